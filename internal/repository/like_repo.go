package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/muzz-match/internal/db"
	"github.com/oggyb/muzz-match/internal/utils/pagination"
)

// LikeRepository provides data access methods for the Like model.
// It encapsulates all queries related to one user liking another.
type LikeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new repository bound to the given DB connection.
func NewLikeRepository(database *gorm.DB) *LikeRepository {
	return &LikeRepository{db: database}
}

// AddLike records that liker liked liked.
//
// Behavior:
//   - Set semantics: the composite PK makes a repeated like a no-op
//     (ON CONFLICT DO NOTHING), never an error.
//   - Returns created=true only when a new row was inserted.
//
// Example:
//
//	created, err := repo.AddLike(ctx, "a", "b") // user a liked user b
func (r *LikeRepository) AddLike(ctx context.Context, likerID, likedID string) (bool, error) {
	like := db.Like{
		LikerID: likerID,
		LikedID: likedID,
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "liker_id"}, {Name: "liked_id"}},
			DoNothing: true,
		}).
		Create(&like)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// HasLiked checks whether liker has liked liked.
//
// Behavior:
//   - Reads persisted state; callers check reciprocity after their own write.
//
// Example:
//
//	repo.HasLiked(ctx, "b", "a") // -> true if user b liked user a
func (r *LikeRepository) HasLiked(ctx context.Context, likerID, likedID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("liker_id = ? AND liked_id = ?", likerID, likedID).
		Count(&count).Error
	return count > 0, err
}

// LikedIDs returns every user id liked by liker (the liked-user-id set).
func (r *LikeRepository) LikedIDs(ctx context.Context, likerID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db.Like{}).
		Where("liker_id = ?", likerID).
		Pluck("liked_id", &ids).Error
	return ids, err
}

// pendingLikers scopes likes received by recipient that the recipient has not
// returned. Since a match needs both likes, this also excludes matched users.
func (r *LikeRepository) pendingLikers(ctx context.Context, recipientID string) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("likes l").
		Where("l.liked_id = ?", recipientID).
		Where(`
			NOT EXISTS (
				SELECT 1 FROM likes l2
				WHERE l2.liker_id = ?
				  AND l2.liked_id = l.liker_id
			)`, recipientID)
}

// GetPendingLikers returns likes received by recipient and not yet returned.
//
// Behavior:
//   - Only rows where liked_id = X whose liker X has not liked back.
//   - Ordered by created_at DESC, liker_id DESC.
//   - Supports cursor-based pagination via paginationToken.
//
// Example:
//
//	repo.GetPendingLikers(ctx, "u42", nil, 20) // first 20 one-way likes for u42
func (r *LikeRepository) GetPendingLikers(
	ctx context.Context,
	recipientID string,
	paginationToken *string,
	limit int,
) ([]db.Like, *string, error) {
	var likes []db.Like

	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.pendingLikers(ctx, recipientID).
		Select("l.liker_id, l.liked_id, l.created_at").
		Order("l.created_at DESC, l.liker_id DESC").
		Limit(limit + 1)

	// apply cursor
	if !cursor.IsZero() {
		ts := time.Unix(0, cursor.CreatedUnixNano).UTC()
		query = query.Where(
			"(l.created_at < ? OR (l.created_at = ? AND l.liker_id < ?))",
			ts, ts, cursor.LikerID,
		)
	}

	if err := query.Find(&likes).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(likes) > limit {
		last := likes[limit-1]
		token, _ := pagination.Encode(pagination.Cursor{
			LikerID:         last.LikerID,
			CreatedUnixNano: last.CreatedAt.UnixNano(),
		})
		nextToken = &token
		likes = likes[:limit]
	}

	return likes, nextToken, nil
}

// CountPendingLikers returns how many users liked recipient without being
// liked back. Used in conjunction with the Redis counter (DB is fallback).
func (r *LikeRepository) CountPendingLikers(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	if err := r.pendingLikers(ctx, recipientID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
