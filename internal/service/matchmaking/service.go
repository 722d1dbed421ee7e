package matchmaking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/db"
	svcErr "github.com/oggyb/muzz-match/internal/errors"
	"github.com/oggyb/muzz-match/internal/logger"
	"github.com/oggyb/muzz-match/internal/metrics"
	"github.com/oggyb/muzz-match/internal/repository"
	"github.com/oggyb/muzz-match/internal/utils/pagination"
)

const (
	// DefaultLikersPageSize is used when a caller does not ask for a size.
	DefaultLikersPageSize = 20
	// MaxLikersPageSize bounds a single inbox page.
	MaxLikersPageSize = 100

	pairLockTTL  = 5 * time.Second
	pairLockWait = 2 * time.Second
)

// Service implements discovery, likes and matches on top of the repository
// and cache layers. Every method is safe for concurrent use.
type Service struct {
	appCtx  *app.AppContext
	log     *slog.Logger
	users   *repository.UserRepository
	likes   *repository.LikeRepository
	matches *repository.MatchRepository
}

// NewService creates the matchmaking service with dependencies from AppContext.
// Dependencies include:
//   - DB connection (via User/Like/Match repositories)
//   - RedisCache for the inbox counter and the per-pair lock (optional)
func NewService(appCtx *app.AppContext) *Service {
	log := appCtx.Logger
	if log == nil {
		log = logger.L()
	}
	return &Service{
		appCtx:  appCtx,
		log:     log.With("component", "matchmaking"),
		users:   repository.NewUserRepository(appCtx.DB),
		likes:   repository.NewLikeRepository(appCtx.DB),
		matches: repository.NewMatchRepository(appCtx.DB),
	}
}

// Discover returns up to DiscoveryLimit candidates for userID.
//
// Behavior:
//   - Excludes the requester, everyone they liked and everyone they matched.
//   - Candidate gender must be admitted by the requester's preference.
//   - Candidate age lies in [age-10, age+10].
//   - Read-only; ordering is whatever the store returns.
//
// Example:
//
//	svc.Discover(ctx, "1f0c...") // -> []PublicUser, at most 20
func (s *Service) Discover(ctx context.Context, userID string) ([]PublicUser, error) {
	s.log.Debug("Discover called", "user", userID)

	me, err := s.loadUser(ctx, userID, svcErr.ErrUserNotFound)
	if err != nil {
		return nil, err
	}

	liked, err := s.likes.LikedIDs(ctx, me.ID)
	if err != nil {
		return nil, s.storeErr("LikedIDs", err)
	}
	matched, err := s.matches.PartnerIDs(ctx, me.ID)
	if err != nil {
		return nil, s.storeErr("PartnerIDs", err)
	}

	minAge, maxAge := AgeWindowFor(me.Age)
	users, err := s.users.FindCandidates(ctx, repository.CandidateFilter{
		Exclude: ExclusionSet(me.ID, liked, matched),
		Genders: GendersFor(me.Preference),
		MinAge:  minAge,
		MaxAge:  maxAge,
		Limit:   DiscoveryLimit,
	})
	if err != nil {
		return nil, s.storeErr("FindCandidates", err)
	}

	metrics.DiscoveryCandidates.Observe(float64(len(users)))
	s.log.Debug("Discover result", "user", userID, "candidates", len(users))

	return toPublicList(users), nil
}

// Like records currentID → targetID and creates the match when the like is
// reciprocated.
//
// Behavior:
//   - Self-like fails with InvalidOperation before anything is written.
//   - The like is a set-add; repeating it succeeds without a second row.
//   - Reciprocity is read from the store after this like is persisted, so
//     of two simultaneous mutual likes at least one observes the other.
//   - The match insert is keyed by the unordered pair; whichever caller
//     loses the race reads back the winner's row.
//
// Example:
//
//	res, err := svc.Like(ctx, "b", "a") // a already liked b → res.IsMatch
func (s *Service) Like(ctx context.Context, currentID, targetID string) (LikeResult, error) {
	s.log.Debug("Like called", "user", currentID, "target", targetID)

	if currentID == targetID {
		return LikeResult{}, svcErr.ErrSelfLike
	}
	if err := validateID("targetId", targetID); err != nil {
		return LikeResult{}, err
	}

	if _, err := s.loadUser(ctx, targetID, svcErr.ErrTargetNotFound); err != nil {
		return LikeResult{}, err
	}
	if _, err := s.loadUser(ctx, currentID, svcErr.ErrUserNotFound); err != nil {
		return LikeResult{}, err
	}

	created, err := s.likes.AddLike(ctx, currentID, targetID)
	if err != nil {
		return LikeResult{}, s.storeErr("AddLike", err)
	}
	if created {
		metrics.LikesTotal.WithLabelValues("new").Inc()
	} else {
		metrics.LikesTotal.WithLabelValues("repeat").Inc()
	}

	reciprocal, err := s.likes.HasLiked(ctx, targetID, currentID)
	if err != nil {
		return LikeResult{}, s.storeErr("HasLiked", err)
	}

	if created {
		s.adjustInbox(ctx, currentID, targetID, reciprocal)
	}

	if !reciprocal {
		return LikeResult{Recorded: true}, nil
	}

	m, err := s.createMatch(ctx, currentID, targetID)
	if err != nil {
		return LikeResult{}, err
	}
	return LikeResult{Recorded: true, IsMatch: true, MatchID: &m.ID}, nil
}

// createMatch inserts the pair's match under a best-effort Redis lock.
// The unique pair key remains the authority when Redis is unavailable.
func (s *Service) createMatch(ctx context.Context, currentID, targetID string) (*db.Match, error) {
	pairKey := db.PairKey(currentID, targetID)

	if rc := s.appCtx.RedisCache; rc != nil {
		release, ok, err := rc.WaitPairLock(ctx, pairKey, pairLockTTL, pairLockWait)
		switch {
		case err != nil:
			s.log.Warn("pair lock unavailable", "pair", pairKey, "err", err)
		case !ok:
			s.log.Warn("pair lock wait elapsed", "pair", pairKey)
		default:
			defer release()
		}
	}

	m, created, err := s.matches.CreateIfAbsent(ctx, currentID, targetID)
	if err != nil {
		return nil, s.storeErr("CreateIfAbsent", err)
	}
	if created {
		metrics.MatchesCreatedTotal.Inc()
		s.log.Info("match created", "match", m.ID, "user_a", m.UserAID, "user_b", m.UserBID)
	}
	return m, nil
}

// adjustInbox keeps cached inbox counters in step with a new like.
// A returned like removes the target from the liker's inbox; a one-way like
// adds the liker to the target's inbox.
func (s *Service) adjustInbox(ctx context.Context, currentID, targetID string, reciprocal bool) {
	rc := s.appCtx.RedisCache
	if rc == nil {
		return
	}
	var err error
	if reciprocal {
		err = rc.AdjustLikeCount(ctx, currentID, -1)
	} else {
		err = rc.AdjustLikeCount(ctx, targetID, 1)
	}
	if err != nil {
		s.log.Warn("like counter update failed", "err", err)
	}
}

// ListMatches returns the public profiles of everyone userID is matched with.
func (s *Service) ListMatches(ctx context.Context, userID string) ([]PublicUser, error) {
	s.log.Debug("ListMatches called", "user", userID)

	if _, err := s.loadUser(ctx, userID, svcErr.ErrUserNotFound); err != nil {
		return nil, err
	}

	ids, err := s.matches.PartnerIDs(ctx, userID)
	if err != nil {
		return nil, s.storeErr("PartnerIDs", err)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, s.storeErr("FindByIDs", err)
	}
	return toPublicList(users), nil
}

// GetMatch returns the match with both participants resolved, provided
// userID is one of them.
//
// Behavior:
//   - Unknown match → NotFound.
//   - Requester not in {userA, userB} → Forbidden.
//
// Example:
//
//	svc.GetMatch(ctx, matchID, "a") // -> MatchDetail{Users: [a, b]}
func (s *Service) GetMatch(ctx context.Context, matchID, userID string) (MatchDetail, error) {
	s.log.Debug("GetMatch called", "match", matchID, "user", userID)

	if err := validateID("matchId", matchID); err != nil {
		return MatchDetail{}, err
	}

	m, err := s.matches.FindByID(ctx, matchID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return MatchDetail{}, svcErr.ErrMatchNotFound
	} else if err != nil {
		return MatchDetail{}, s.storeErr("FindMatch", err)
	}

	if !m.HasUser(userID) {
		return MatchDetail{}, svcErr.ErrNotParticipant
	}

	users, err := s.users.FindByIDs(ctx, []string{m.UserAID, m.UserBID})
	if err != nil {
		return MatchDetail{}, s.storeErr("FindByIDs", err)
	}
	byID := make(map[string]db.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	a, okA := byID[m.UserAID]
	b, okB := byID[m.UserBID]
	if !okA || !okB {
		return MatchDetail{}, svcErr.ErrUserNotFound
	}

	return MatchDetail{
		ID:        m.ID,
		Users:     [2]UserSummary{toSummary(a), toSummary(b)},
		CreatedAt: m.CreatedAt,
	}, nil
}

// ListLikers returns users who liked userID and whom userID has not liked
// back, newest first.
//
// Behavior:
//   - limit <= 0 falls back to DefaultLikersPageSize; capped at MaxLikersPageSize.
//   - A malformed pagination token → InvalidArgument.
//   - next is nil on the last page.
func (s *Service) ListLikers(ctx context.Context, userID string, token *string, limit int) ([]Liker, *string, error) {
	s.log.Debug("ListLikers called", "user", userID, "token", token != nil)

	if limit <= 0 {
		limit = DefaultLikersPageSize
	}
	if limit > MaxLikersPageSize {
		limit = MaxLikersPageSize
	}

	likes, next, err := s.likes.GetPendingLikers(ctx, userID, token, limit)
	if errors.Is(err, pagination.ErrInvalidToken) {
		return nil, nil, svcErr.InvalidArgument("invalid pagination token")
	} else if err != nil {
		return nil, nil, s.storeErr("GetPendingLikers", err)
	}

	out := make([]Liker, 0, len(likes))
	for _, l := range likes {
		out = append(out, Liker{UserID: l.LikerID, LikedAt: l.CreatedAt})
	}

	s.log.Debug("ListLikers result", "user", userID, "likers", len(out), "has_next", next != nil)
	return out, next, nil
}

// CountLikers returns the size of userID's inbox.
// Cache-first strategy:
//  1. Attempts to read from Redis (likes:count:userID), refreshing its TTL.
//  2. On a miss, one loader per user falls back to the DB and fills Redis.
//  3. Without Redis it always reads the DB.
func (s *Service) CountLikers(ctx context.Context, userID string) (int64, error) {
	s.log.Debug("CountLikers called", "user", userID)

	load := func(ctx context.Context) (int64, error) {
		return s.likes.CountPendingLikers(ctx, userID)
	}

	var (
		n   int64
		err error
	)
	if rc := s.appCtx.RedisCache; rc != nil {
		n, err = rc.GetOrLoadLikeCount(ctx, userID, load)
	} else {
		n, err = load(ctx)
	}
	if err != nil {
		return 0, s.storeErr("CountPendingLikers", err)
	}
	return n, nil
}

// loadUser fetches id and turns a missing row into notFound.
func (s *Service) loadUser(ctx context.Context, id string, notFound error) (*db.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound
	} else if err != nil {
		return nil, s.storeErr("FindUser", err)
	}
	return u, nil
}

// storeErr logs a persistence failure and classifies it. Context errors pass
// through so transports can report timeouts and cancellations.
func (s *Service) storeErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	s.log.Error(op+" failed", "err", err)
	return svcErr.Store(err)
}

func validateID(field, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return svcErr.InvalidArgument(field + " must be a valid id")
	}
	return nil
}
