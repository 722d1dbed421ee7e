package db_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/muzz-match/internal/db"
	"github.com/oggyb/muzz-match/internal/testutil"
)

func TestSeedTestData(t *testing.T) {
	gdb := testutil.NewDB(t)

	require.NoError(t, db.SeedTestData(gdb))
	// reseeding starts from a clean slate
	require.NoError(t, db.SeedTestData(gdb))

	var users int64
	require.NoError(t, gdb.Model(&db.User{}).Count(&users).Error)
	assert.Equal(t, int64(20), users)

	var likes []db.Like
	require.NoError(t, gdb.Find(&likes).Error)
	liked := make(map[string]bool, len(likes))
	for _, l := range likes {
		assert.NotEqual(t, l.LikerID, l.LikedID)
		liked[l.LikerID+">"+l.LikedID] = true
	}

	var matches []db.Match
	require.NoError(t, gdb.Find(&matches).Error)
	matched := make(map[string]bool, len(matches))
	for _, m := range matches {
		assert.True(t, liked[m.UserAID+">"+m.UserBID], "match without like a→b")
		assert.True(t, liked[m.UserBID+">"+m.UserAID], "match without like b→a")
		matched[m.PairKey] = true
	}

	// every mutual pair has its match
	for _, l := range likes {
		if liked[l.LikedID+">"+l.LikerID] {
			assert.True(t, matched[db.PairKey(l.LikerID, l.LikedID)])
		}
	}
}

func TestPairKey(t *testing.T) {
	assert.Equal(t, db.PairKey("a", "b"), db.PairKey("b", "a"))
	assert.Equal(t, "a:b", db.PairKey("b", "a"))
}
