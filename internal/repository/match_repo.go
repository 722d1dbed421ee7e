package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/muzz-match/internal/db"
)

// MatchRepository provides data access methods for the Match model.
type MatchRepository struct {
	db *gorm.DB
}

// NewMatchRepository creates a new repository bound to the given DB connection.
func NewMatchRepository(database *gorm.DB) *MatchRepository {
	return &MatchRepository{db: database}
}

// CreateIfAbsent inserts the match for (closerID, otherID) unless the pair is
// already matched, then returns the pair's match row.
//
// Behavior:
//   - The UNIQUE pair_key index admits one row per unordered pair; a
//     conflicting insert is ignored (ON CONFLICT DO NOTHING).
//   - created is true only for the caller whose insert landed.
//
// Example:
//
//	m, created, err := repo.CreateIfAbsent(ctx, "b", "a") // b closed the match
func (r *MatchRepository) CreateIfAbsent(ctx context.Context, closerID, otherID string) (*db.Match, bool, error) {
	m := db.Match{
		ID:      uuid.NewString(),
		UserAID: closerID,
		UserBID: otherID,
		PairKey: db.PairKey(closerID, otherID),
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "pair_key"}},
			DoNothing: true,
		}).
		Create(&m)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected == 1 {
		return &m, true, nil
	}

	existing, err := r.FindByPair(ctx, closerID, otherID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// FindByID returns the match or gorm.ErrRecordNotFound.
func (r *MatchRepository) FindByID(ctx context.Context, id string) (*db.Match, error) {
	var m db.Match
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// FindByPair returns the match between a and b in either order.
func (r *MatchRepository) FindByPair(ctx context.Context, a, b string) (*db.Match, error) {
	var m db.Match
	if err := r.db.WithContext(ctx).Where("pair_key = ?", db.PairKey(a, b)).Take(&m).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// PartnerIDs returns the other participant of every match userID is in
// (the matched-user-id set).
func (r *MatchRepository) PartnerIDs(ctx context.Context, userID string) ([]string, error) {
	var asA, asB []string
	if err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("user_a_id = ?", userID).
		Pluck("user_b_id", &asA).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("user_b_id = ?", userID).
		Pluck("user_a_id", &asB).Error; err != nil {
		return nil, err
	}
	return append(asA, asB...), nil
}

// Count returns how many matches contain both a and b. Always 0 or 1.
func (r *MatchRepository) Count(ctx context.Context, a, b string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&db.Match{}).
		Where("pair_key = ?", db.PairKey(a, b)).
		Count(&n).Error
	return n, err
}
