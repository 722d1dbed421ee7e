package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/muzz-match/internal/config"
	"github.com/oggyb/muzz-match/internal/db"
	"github.com/oggyb/muzz-match/internal/repository"
	"github.com/oggyb/muzz-match/internal/testutil"
	"github.com/oggyb/muzz-match/internal/utils/pagination"
)

func TestAddLike_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	dbase := testutil.NewDB(t)
	repo := repository.NewLikeRepository(dbase)

	created, err := repo.AddLike(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, created)

	// same like again → no-op, not an error
	created, err = repo.AddLike(ctx, "a", "b")
	require.NoError(t, err)
	assert.False(t, created)

	var n int64
	dbase.Model(&db.Like{}).Where("liker_id = ? AND liked_id = ?", "a", "b").Count(&n)
	assert.Equal(t, int64(1), n)
}

func TestHasLikedAndLikedIDs(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewLikeRepository(testutil.NewDB(t))

	_, _ = repo.AddLike(ctx, "a", "b")
	_, _ = repo.AddLike(ctx, "a", "c")

	ok, err := repo.HasLiked(ctx, "a", "b")
	require.NoError(t, err)
	assert.True(t, ok)

	// direction matters
	ok, err = repo.HasLiked(ctx, "b", "a")
	require.NoError(t, err)
	assert.False(t, ok)

	ids, err := repo.LikedIDs(ctx, "a")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"b", "c"}, ids)
}

func TestGetPendingLikers_ExcludesReturnedLikes(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewLikeRepository(testutil.NewDB(t))

	// 1 and 2 liked 99; 99 liked 1 back
	_, _ = repo.AddLike(ctx, "1", "99")
	_, _ = repo.AddLike(ctx, "2", "99")
	_, _ = repo.AddLike(ctx, "99", "1")

	likes, next, err := repo.GetPendingLikers(ctx, "99", nil, 10)
	require.NoError(t, err)
	assert.Nil(t, next)
	require.Len(t, likes, 1)
	assert.Equal(t, "2", likes[0].LikerID)

	n, err := repo.CountPendingLikers(ctx, "99")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestGetPendingLikers_Pagination(t *testing.T) {
	ctx := context.Background()
	dbase := testutil.NewDB(t)
	repo := repository.NewLikeRepository(dbase)

	base := time.Now().UTC().Truncate(time.Millisecond).Add(-time.Hour)
	rows := []db.Like{
		{LikerID: "l1", LikedID: "me", CreatedAt: base.Add(1 * time.Minute)},
		{LikerID: "l2", LikedID: "me", CreatedAt: base.Add(2 * time.Minute)},
		{LikerID: "l3", LikedID: "me", CreatedAt: base.Add(3 * time.Minute)},
		{LikerID: "l4", LikedID: "me", CreatedAt: base.Add(3 * time.Minute)}, // tie on time
		{LikerID: "l5", LikedID: "me", CreatedAt: base.Add(4 * time.Minute)},
	}
	require.NoError(t, dbase.Create(&rows).Error)

	var seen []string
	var token *string
	for page := 0; page < 5; page++ {
		likes, next, err := repo.GetPendingLikers(ctx, "me", token, 2)
		require.NoError(t, err)
		for _, l := range likes {
			seen = append(seen, l.LikerID)
		}
		if next == nil {
			break
		}
		token = next
	}

	// newest first, ties broken by liker id descending
	assert.Equal(t, []string{"l5", "l4", "l3", "l2", "l1"}, seen)
}

// Likes written back to back through the production connection share a
// millisecond; paging one at a time must still visit each of them once.
func TestGetPendingLikers_PagesLikesWithinSameMillisecond(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{}
	cfg.DB.Driver = "sqlite"
	cfg.DB.DSN = filepath.Join(t.TempDir(), "likes.db")
	cfg.DB.LogLevel = "silent"

	dbase, err := db.NewDB(cfg)
	require.NoError(t, err)
	sqlDB, err := dbase.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	repo := repository.NewLikeRepository(dbase)
	for _, liker := range []string{"l1", "l2", "l3", "l4"} {
		_, err := repo.AddLike(ctx, liker, "me")
		require.NoError(t, err)
	}

	var seen []string
	var token *string
	for page := 0; page < 10; page++ {
		likes, next, err := repo.GetPendingLikers(ctx, "me", token, 1)
		require.NoError(t, err)
		for _, l := range likes {
			seen = append(seen, l.LikerID)
		}
		if next == nil {
			break
		}
		token = next
	}

	n, err := repo.CountPendingLikers(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.ElementsMatch(t, []string{"l1", "l2", "l3", "l4"}, seen)
	assert.Len(t, seen, 4)
}

func TestGetPendingLikers_InvalidToken(t *testing.T) {
	repo := repository.NewLikeRepository(testutil.NewDB(t))

	bad := "%%%"
	_, _, err := repo.GetPendingLikers(context.Background(), "me", &bad, 10)
	assert.ErrorIs(t, err, pagination.ErrInvalidToken)
}
