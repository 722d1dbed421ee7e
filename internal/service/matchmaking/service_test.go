package matchmaking_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/service/matchmaking"
	"github.com/oggyb/muzz-match/internal/testutil"
)

//
// Test helpers
//

func setupService(t *testing.T) (*matchmaking.Service, *app.AppContext) {
	t.Helper()
	appCtx, _ := testutil.NewAppContext(t)
	return matchmaking.NewService(appCtx), appCtx
}

func ids(users []matchmaking.PublicUser) []string {
	out := make([]string, 0, len(users))
	for _, u := range users {
		out = append(out, u.ID)
	}
	return out
}

func countLikes(t *testing.T, gdb *gorm.DB, liker, liked string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(&db.Like{}).Where("liker_id = ? AND liked_id = ?", liker, liked).Count(&n).Error)
	return n
}

func countMatches(t *testing.T, gdb *gorm.DB, a, b string) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(&db.Match{}).Where("pair_key = ?", db.PairKey(a, b)).Count(&n).Error)
	return n
}

//
// Discovery
//

// A (30, prefers Female) sees only the female candidate inside the age window.
func TestDiscover_Scenario(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	a := testutil.CreateUser(t, appCtx.DB, "A",
		testutil.WithGender(db.GenderMale), testutil.WithPreference(db.PreferenceFemale), testutil.WithAge(30))
	b := testutil.CreateUser(t, appCtx.DB, "B", testutil.WithGender(db.GenderFemale), testutil.WithAge(25))
	testutil.CreateUser(t, appCtx.DB, "C", testutil.WithGender(db.GenderMale), testutil.WithAge(28))
	testutil.CreateUser(t, appCtx.DB, "D", testutil.WithGender(db.GenderFemale), testutil.WithAge(42))

	feed, err := svc.Discover(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids(feed))
	assert.Equal(t, "Point", feed[0].Location.Type)
}

func TestDiscover_ExcludesSelfLikedAndMatched(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	me := testutil.CreateUser(t, appCtx.DB, "Me")
	liked := testutil.CreateUser(t, appCtx.DB, "Liked")
	matched := testutil.CreateUser(t, appCtx.DB, "Matched")
	open := testutil.CreateUser(t, appCtx.DB, "Open")

	_, err := svc.Like(ctx, me.ID, liked.ID)
	require.NoError(t, err)
	_, err = svc.Like(ctx, matched.ID, me.ID)
	require.NoError(t, err)
	res, err := svc.Like(ctx, me.ID, matched.ID)
	require.NoError(t, err)
	require.True(t, res.IsMatch)

	feed, err := svc.Discover(ctx, me.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{open.ID}, ids(feed))
}

func TestDiscover_Preference(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	wantsMen := testutil.CreateUser(t, appCtx.DB, "WantsMen", testutil.WithPreference(db.PreferenceMale))
	wantsAll := testutil.CreateUser(t, appCtx.DB, "WantsAll", testutil.WithPreference(db.PreferenceBoth))
	m := testutil.CreateUser(t, appCtx.DB, "M", testutil.WithGender(db.GenderMale))
	f := testutil.CreateUser(t, appCtx.DB, "F", testutil.WithGender(db.GenderFemale))
	o := testutil.CreateUser(t, appCtx.DB, "O", testutil.WithGender(db.GenderOther))

	feed, err := svc.Discover(ctx, wantsMen.ID)
	require.NoError(t, err)
	for _, u := range feed {
		assert.Equal(t, db.GenderMale, u.Gender)
	}
	assert.Equal(t, []string{m.ID}, ids(feed))

	feed, err = svc.Discover(ctx, wantsAll.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{wantsMen.ID, m.ID, f.ID, o.ID}, ids(feed))
}

func TestDiscover_AgeWindowBounds(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	me := testutil.CreateUser(t, appCtx.DB, "Me", testutil.WithAge(30))
	lo := testutil.CreateUser(t, appCtx.DB, "Lo", testutil.WithAge(20))
	hi := testutil.CreateUser(t, appCtx.DB, "Hi", testutil.WithAge(40))
	testutil.CreateUser(t, appCtx.DB, "TooYoung", testutil.WithAge(19))
	testutil.CreateUser(t, appCtx.DB, "TooOld", testutil.WithAge(41))

	feed, err := svc.Discover(ctx, me.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{lo.ID, hi.ID}, ids(feed))
	for _, u := range feed {
		assert.GreaterOrEqual(t, u.Age, 20)
		assert.LessOrEqual(t, u.Age, 40)
	}
}

func TestDiscover_FeedCap(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)

	me := testutil.CreateUser(t, appCtx.DB, "Me")
	for i := 0; i < matchmaking.DiscoveryLimit+5; i++ {
		testutil.CreateUser(t, appCtx.DB, fmt.Sprintf("C%d", i))
	}

	feed, err := svc.Discover(ctx, me.ID)
	require.NoError(t, err)
	assert.Len(t, feed, matchmaking.DiscoveryLimit)
	assert.NotContains(t, ids(feed), me.ID)
}

func TestDiscover_UnknownUser(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.Discover(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, svcErr.ErrUserNotFound)
}

//
// Likes and matches
//

func TestLike_Self(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	a := testutil.CreateUser(t, appCtx.DB, "A")

	_, err := svc.Like(ctx, a.ID, a.ID)
	assert.ErrorIs(t, err, svcErr.ErrSelfLike)
	kind, _ := svcErr.KindOf(err)
	assert.Equal(t, svcErr.KindInvalidOperation, kind)

	assert.Equal(t, int64(0), countLikes(t, appCtx.DB, a.ID, a.ID))
	assert.Equal(t, int64(0), countMatches(t, appCtx.DB, a.ID, a.ID))
}

func TestLike_TargetMissingOrMalformed(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	a := testutil.CreateUser(t, appCtx.DB, "A")

	_, err := svc.Like(ctx, a.ID, uuid.NewString())
	assert.ErrorIs(t, err, svcErr.ErrTargetNotFound)

	_, err = svc.Like(ctx, a.ID, "not-a-uuid")
	kind, _ := svcErr.KindOf(err)
	assert.Equal(t, svcErr.KindInvalidArgument, kind)
}

func TestLike_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	a := testutil.CreateUser(t, appCtx.DB, "A")
	b := testutil.CreateUser(t, appCtx.DB, "B")

	first, err := svc.Like(ctx, a.ID, b.ID)
	require.NoError(t, err)
	second, err := svc.Like(ctx, a.ID, b.ID)
	require.NoError(t, err)

	assert.True(t, first.Recorded)
	assert.False(t, first.IsMatch)
	assert.Equal(t, first, second)
	assert.Nil(t, second.MatchID)
	assert.Equal(t, int64(1), countLikes(t, appCtx.DB, a.ID, b.ID))
}

// A likes B, B likes A: the match id comes back on B's call and both see
// each other in their match lists.
func TestLike_MutualScenario(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	a := testutil.CreateUser(t, appCtx.DB, "A")
	b := testutil.CreateUser(t, appCtx.DB, "B")

	res, err := svc.Like(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, res.IsMatch)

	res, err = svc.Like(ctx, b.ID, a.ID)
	require.NoError(t, err)
	require.True(t, res.IsMatch)
	require.NotNil(t, res.MatchID)
	assert.Equal(t, int64(1), countMatches(t, appCtx.DB, a.ID, b.ID))

	aMatches, err := svc.ListMatches(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, ids(aMatches))

	bMatches, err := svc.ListMatches(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, ids(bMatches))

	// repeating a like after the match reports the same match
	again, err := svc.Like(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, again.IsMatch)
	assert.Equal(t, *res.MatchID, *again.MatchID)
	assert.Equal(t, int64(1), countMatches(t, appCtx.DB, a.ID, b.ID))
}

func TestLike_ConcurrentMutual(t *testing.T) {
	run := func(t *testing.T, withRedis bool) {
		ctx := context.Background()
		appCtx, _ := testutil.NewAppContext(t)
		if !withRedis {
			appCtx.RedisCache = nil
		}
		svc := matchmaking.NewService(appCtx)

		a := testutil.CreateUser(t, appCtx.DB, "A")
		b := testutil.CreateUser(t, appCtx.DB, "B")

		const rounds = 10
		results := make([]matchmaking.LikeResult, 2*rounds)
		errs := make([]error, 2*rounds)

		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < 2*rounds; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				<-start
				from, to := a.ID, b.ID
				if i%2 == 1 {
					from, to = b.ID, a.ID
				}
				results[i], errs[i] = svc.Like(ctx, from, to)
			}(i)
		}
		close(start)
		wg.Wait()

		var matchID string
		for i, res := range results {
			require.NoError(t, errs[i])
			if !res.IsMatch {
				continue
			}
			require.NotNil(t, res.MatchID)
			if matchID == "" {
				matchID = *res.MatchID
			}
			assert.Equal(t, matchID, *res.MatchID)
		}

		assert.NotEmpty(t, matchID, "at least one side must observe the match")
		assert.Equal(t, int64(1), countMatches(t, appCtx.DB, a.ID, b.ID))
		assert.Equal(t, int64(1), countLikes(t, appCtx.DB, a.ID, b.ID))
		assert.Equal(t, int64(1), countLikes(t, appCtx.DB, b.ID, a.ID))

		aMatches, err := svc.ListMatches(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{b.ID}, ids(aMatches))
	}

	t.Run("with redis lock", func(t *testing.T) { run(t, true) })
	t.Run("store only", func(t *testing.T) { run(t, false) })
}

func TestListMatches_UnknownUser(t *testing.T) {
	svc, _ := setupService(t)

	_, err := svc.ListMatches(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, svcErr.ErrUserNotFound)
}

func TestGetMatch_AccessControl(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	a := testutil.CreateUser(t, appCtx.DB, "A", testutil.WithAge(31))
	b := testutil.CreateUser(t, appCtx.DB, "B", testutil.WithAge(29))
	c := testutil.CreateUser(t, appCtx.DB, "C")

	_, err := svc.Like(ctx, a.ID, b.ID)
	require.NoError(t, err)
	res, err := svc.Like(ctx, b.ID, a.ID)
	require.NoError(t, err)
	require.NotNil(t, res.MatchID)

	detail, err := svc.GetMatch(ctx, *res.MatchID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, *res.MatchID, detail.ID)
	// the user whose like closed the match comes first
	assert.Equal(t, b.ID, detail.Users[0].ID)
	assert.Equal(t, 29, detail.Users[0].Age)
	assert.Equal(t, a.ID, detail.Users[1].ID)
	assert.Equal(t, a.Photos, detail.Users[1].Photos)

	_, err = svc.GetMatch(ctx, *res.MatchID, b.ID)
	assert.NoError(t, err)

	_, err = svc.GetMatch(ctx, *res.MatchID, c.ID)
	assert.ErrorIs(t, err, svcErr.ErrNotParticipant)

	_, err = svc.GetMatch(ctx, uuid.NewString(), a.ID)
	assert.ErrorIs(t, err, svcErr.ErrMatchNotFound)
}

//
// Likes inbox
//

func TestListAndCountLikers(t *testing.T) {
	ctx := context.Background()
	svc, appCtx := setupService(t)
	me := testutil.CreateUser(t, appCtx.DB, "Me")
	fan1 := testutil.CreateUser(t, appCtx.DB, "Fan1")
	fan2 := testutil.CreateUser(t, appCtx.DB, "Fan2")
	mutual := testutil.CreateUser(t, appCtx.DB, "Mutual")

	for _, u := range []db.User{fan1, fan2, mutual} {
		_, err := svc.Like(ctx, u.ID, me.ID)
		require.NoError(t, err)
	}
	_, err := svc.Like(ctx, me.ID, mutual.ID)
	require.NoError(t, err)

	likers, next, err := svc.ListLikers(ctx, me.ID, nil, 0)
	require.NoError(t, err)
	assert.Nil(t, next)
	got := make([]string, 0, len(likers))
	for _, l := range likers {
		got = append(got, l.UserID)
	}
	assert.ElementsMatch(t, []string{fan1.ID, fan2.ID}, got)

	n, err := svc.CountLikers(ctx, me.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	// cached counter follows new likes and returned likes
	newFan := testutil.CreateUser(t, appCtx.DB, "NewFan")
	_, err = svc.Like(ctx, newFan.ID, me.ID)
	require.NoError(t, err)
	n, err = svc.CountLikers(ctx, me.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = svc.Like(ctx, me.ID, fan1.ID)
	require.NoError(t, err)
	n, err = svc.CountLikers(ctx, me.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	cached, ok, err := appCtx.RedisCache.GetLikeCount(ctx, me.ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), cached)
}

func TestListLikers_InvalidToken(t *testing.T) {
	svc, _ := setupService(t)

	bad := "%%%"
	_, _, err := svc.ListLikers(context.Background(), uuid.NewString(), &bad, 10)
	require.Error(t, err)
	kind, _ := svcErr.KindOf(err)
	assert.Equal(t, svcErr.KindInvalidArgument, kind)
	assert.False(t, errors.Is(err, svcErr.ErrUserNotFound))
}
