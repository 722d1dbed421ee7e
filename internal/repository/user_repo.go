package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/muzz-match/internal/db"
)

// CandidateFilter is the predicate used by the discovery feed.
type CandidateFilter struct {
	Exclude []string
	Genders []string
	MinAge  int
	MaxAge  int
	Limit   int
}

// UserRepository provides data access methods for the User model.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new repository bound to the given DB connection.
func NewUserRepository(database *gorm.DB) *UserRepository {
	return &UserRepository{db: database}
}

// Create inserts a new user. A duplicate email surfaces as
// gorm.ErrDuplicatedKey when the connection translates errors.
func (r *UserRepository) Create(ctx context.Context, u *db.User) error {
	return r.db.WithContext(ctx).Create(u).Error
}

// FindByID returns the user or gorm.ErrRecordNotFound.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByEmail returns the user registered under email or gorm.ErrRecordNotFound.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*db.User, error) {
	var u db.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).Take(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// Exists reports whether a user with id is stored.
func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	_, err := r.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

// FindByIDs loads the given users. Unknown ids are skipped.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) ([]db.User, error) {
	users := []db.User{}
	if len(ids) == 0 {
		return users, nil
	}
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("created_at DESC, id").
		Find(&users).Error
	return users, err
}

// FindCandidates runs the discovery predicate.
//
// Behavior:
//   - id NOT IN Exclude, gender IN Genders, age BETWEEN MinAge AND MaxAge.
//   - At most Limit rows; ordering is left to the store.
//
// Example:
//
//	repo.FindCandidates(ctx, CandidateFilter{Exclude: []string{me}, Genders: []string{"Female"}, MinAge: 20, MaxAge: 40, Limit: 20})
func (r *UserRepository) FindCandidates(ctx context.Context, f CandidateFilter) ([]db.User, error) {
	users := []db.User{}
	if len(f.Genders) == 0 || f.Limit <= 0 {
		return users, nil
	}

	query := r.db.WithContext(ctx).
		Where("gender IN ?", f.Genders).
		Where("age BETWEEN ? AND ?", f.MinAge, f.MaxAge).
		Limit(f.Limit)
	if len(f.Exclude) > 0 {
		query = query.Where("id NOT IN ?", f.Exclude)
	}

	err := query.Find(&users).Error
	return users, err
}

// UpdateColumns writes the named columns of u to the user with id and
// returns the stored row. Only listed columns are touched, zero values
// included; callers pass an allow-listed column set.
func (r *UserRepository) UpdateColumns(ctx context.Context, id string, u *db.User, columns []string) (*db.User, error) {
	if len(columns) > 0 {
		res := r.db.WithContext(ctx).
			Model(&db.User{}).
			Where("id = ?", id).
			Select(columns).
			Updates(u)
		if res.Error != nil {
			return nil, res.Error
		}
	}
	return r.FindByID(ctx, id)
}

// AppendPhotos adds urls to the end of the user's photo list inside a
// transaction holding a row lock where the driver supports it.
func (r *UserRepository) AppendPhotos(ctx context.Context, id string, urls []string) (*db.User, error) {
	var out db.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u db.User
		q := tx
		if tx.Dialector.Name() != "sqlite" {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := q.Where("id = ?", id).Take(&u).Error; err != nil {
			return err
		}
		u.Photos = append(u.Photos, urls...)
		if err := tx.Model(&u).Select("photos").Updates(&u).Error; err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
