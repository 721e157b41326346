// Package matching turns swipes into matches. A match is materialized once,
// and only once, when both members of a pair have liked each other.
package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oggyb/engagement-engine/internal/db"
	"github.com/oggyb/engagement-engine/internal/domain"
	"github.com/oggyb/engagement-engine/internal/entitlement"
	"github.com/oggyb/engagement-engine/internal/events"
	"github.com/oggyb/engagement-engine/internal/metrics"
	"github.com/oggyb/engagement-engine/internal/quota"
	"github.com/oggyb/engagement-engine/internal/repository"
	"github.com/oggyb/engagement-engine/internal/reward"
	"github.com/oggyb/engagement-engine/internal/utils/keylock"
)

type Direction uint8

const (
	Pass Direction = iota
	Like
)

func (d Direction) String() string {
	if d == Like {
		return "like"
	}
	return "pass"
}

type MatchStatus string

const (
	StatusMatched   MatchStatus = db.MatchStatusMatched
	StatusUnmatched MatchStatus = db.MatchStatusUnmatched
)

type Match struct {
	ID          string
	User1       domain.UserID
	User2       domain.UserID
	ChatID      string
	Status      MatchStatus
	CreatedAt   time.Time
	UnmatchedAt time.Time
	UnmatchedBy domain.UserID
}

// Other returns the participant that is not user.
func (m Match) Other(user domain.UserID) domain.UserID {
	if m.User1 == user {
		return m.User2
	}
	return m.User1
}

func (m Match) hasParticipant(user domain.UserID) bool {
	return m.User1 == user || m.User2 == user
}

// SwipeResult is what a swipe produced.
type SwipeResult struct {
	// Match is set when the pair is matched after this swipe.
	Match *Match
	// NewMatch is true only for the swipe that created the match.
	NewMatch bool
	// Remaining is the actor's swipe allowance left today.
	Remaining int64
	// Replayed is true when the swipe repeated the current decision and
	// changed nothing.
	Replayed bool
}

// Entitlements is the slice of the entitlement resolver matching needs.
type Entitlements interface {
	EffectiveTier(ctx context.Context, user domain.UserID) (entitlement.Tier, error)
}

// LikeCounter caches liked-you counts. cache.RedisCache implements it.
type LikeCounter interface {
	GetLikeCount(ctx context.Context, userID string) (int64, bool, error)
	SetLikeCount(ctx context.Context, userID string, count int64) error
	InvalidateLikeCount(ctx context.Context, userID string) error
}

// Rewarder credits engagement rewards. reward.Distributor implements it.
type Rewarder interface {
	Distribute(ctx context.Context, user domain.UserID, kind reward.Kind) (domain.Amount, error)
}

// Deps are the collaborators of an Engine. Rewards may be nil.
type Deps struct {
	DB           *gorm.DB
	Quota        *quota.Tracker
	Entitlements Entitlements
	Likes        LikeCounter
	Events       events.Publisher
	Rewards      Rewarder
	Clock        domain.Clock
	Logger       *slog.Logger
}

type Engine struct {
	db           *gorm.DB
	decisions    *repository.DecisionRepository
	swipes       *repository.SwipeEventRepository
	matches      *repository.MatchRepository
	profiles     *repository.ProfileRepository
	quota        *quota.Tracker
	entitlements Entitlements
	likes        LikeCounter
	events       events.Publisher
	rewards      Rewarder
	clock        domain.Clock
	pairs        *keylock.Locker
	logger       *slog.Logger
}

func NewEngine(d Deps) *Engine {
	return &Engine{
		db:           d.DB,
		decisions:    repository.NewDecisionRepository(d.DB),
		swipes:       repository.NewSwipeEventRepository(d.DB),
		matches:      repository.NewMatchRepository(d.DB),
		profiles:     repository.NewProfileRepository(d.DB),
		quota:        d.Quota,
		entitlements: d.Entitlements,
		likes:        d.Likes,
		events:       d.Events,
		rewards:      d.Rewards,
		clock:        d.Clock,
		pairs:        keylock.New(),
		logger:       d.Logger.With("component", "matching"),
	}
}

// Swipe records actor's decision on target.
//
// Behavior:
//   - Self swipes and targets without a profile fail with ErrInvalidTarget.
//   - Repeating the current decision is a no-op: no quota, no swipe event.
//     A repeated like still creates a missing match for a mutual pair.
//   - Otherwise one unit of quota is consumed first; ErrQuotaExceeded
//     leaves everything untouched.
//   - Decision upsert, audit event, reciprocal check and match insert
//     commit in one transaction. The pair lock serializes swipes within a
//     process; across replicas the reciprocal check is a locking read and
//     deadlock victims are retried.
//   - An unmatched pair is never matched again.
func (e *Engine) Swipe(ctx context.Context, actor, target domain.UserID, dir Direction) (SwipeResult, error) {
	if !actor.Valid() || !target.Valid() || actor == target {
		return SwipeResult{}, fmt.Errorf("%w: cannot swipe %q as %q", domain.ErrInvalidTarget, target, actor)
	}
	ok, err := e.profiles.Exists(ctx, string(target))
	if err != nil {
		return SwipeResult{}, fmt.Errorf("check target profile: %w", err)
	}
	if !ok {
		return SwipeResult{}, fmt.Errorf("%w: %s has no profile", domain.ErrInvalidTarget, target)
	}

	tier, err := e.entitlements.EffectiveTier(ctx, actor)
	if err != nil {
		return SwipeResult{}, fmt.Errorf("resolve tier: %w", err)
	}

	matchID := domain.MatchID(actor, target)
	unlock := e.pairs.Lock(matchID)
	defer unlock()

	liked := dir == Like
	current, found, err := e.decisions.Get(ctx, string(actor), string(target))
	if err != nil {
		return SwipeResult{}, fmt.Errorf("load decision: %w", err)
	}
	if found && current.Liked == liked {
		return e.replay(ctx, actor, target, tier, liked)
	}

	usage, err := e.quota.Consume(ctx, actor, tier)
	if err != nil {
		return SwipeResult{Remaining: usage.Remaining}, err
	}

	now := e.clock.Now()
	var (
		match    *db.Match
		newMatch bool
	)
	err = db.Transaction(ctx, e.db, func(tx *gorm.DB) error {
		match, newMatch = nil, false
		if err := e.decisions.WithTx(tx).CreateOrUpdateDecision(ctx, string(actor), string(target), liked, domain.Nanos(now)); err != nil {
			return fmt.Errorf("save decision: %w", err)
		}
		ev := db.SwipeEvent{
			ID:        uuid.NewString(),
			ActorID:   string(actor),
			TargetID:  string(target),
			Liked:     liked,
			CreatedAt: domain.Nanos(now),
		}
		if err := e.swipes.WithTx(tx).Append(ctx, &ev); err != nil {
			return fmt.Errorf("append swipe event: %w", err)
		}
		if !liked {
			return nil
		}

		reciprocal, err := e.decisions.WithTx(tx).HasLikedForUpdate(ctx, string(target), string(actor))
		if err != nil {
			return fmt.Errorf("check reciprocal like: %w", err)
		}
		if !reciprocal {
			return nil
		}
		match, newMatch, err = e.materialize(ctx, tx, actor, target, now)
		return err
	})
	if err != nil {
		e.quota.Release(ctx, actor, usage)
		return SwipeResult{}, err
	}

	e.afterSwipe(ctx, actor, target, dir, now)

	res := SwipeResult{Remaining: usage.Remaining, NewMatch: newMatch}
	if match != nil {
		m := toMatch(*match)
		res.Match = &m
	}
	if newMatch {
		e.onMatchCreated(ctx, actor, *res.Match)
	}
	return res, nil
}

// materialize inserts the match row for a mutually liked pair, or loads the
// existing one. match is nil when the pair was unmatched before.
func (e *Engine) materialize(ctx context.Context, tx *gorm.DB, actor, target domain.UserID, now time.Time) (*db.Match, bool, error) {
	lo, hi := domain.SortPair(actor, target)
	m := db.Match{
		ID:        domain.MatchID(lo, hi),
		User1ID:   string(lo),
		User2ID:   string(hi),
		ChatID:    domain.ChatID(lo, hi),
		Status:    db.MatchStatusMatched,
		CreatedAt: domain.Nanos(now),
	}
	created, err := e.matches.WithTx(tx).CreateIfAbsent(ctx, &m)
	if err != nil {
		return nil, false, fmt.Errorf("create match: %w", err)
	}
	if !created {
		existing, err := e.matches.WithTx(tx).Get(ctx, m.ID)
		if err != nil {
			return nil, false, fmt.Errorf("load match: %w", err)
		}
		m = existing
	}
	if m.Status != db.MatchStatusMatched {
		return nil, false, nil
	}
	return &m, created, nil
}

// replay answers a swipe that repeats the current decision. It costs no
// quota and writes no swipe event, but a repeated like still repairs a
// mutually liked pair that has no match row yet.
func (e *Engine) replay(ctx context.Context, actor, target domain.UserID, tier entitlement.Tier, liked bool) (SwipeResult, error) {
	remaining, err := e.quota.Remaining(ctx, actor, tier)
	if err != nil {
		return SwipeResult{}, err
	}
	res := SwipeResult{Remaining: remaining, Replayed: true}

	row, err := e.matches.Get(ctx, domain.MatchID(actor, target))
	switch {
	case errors.Is(err, domain.ErrNotFound):
	case err != nil:
		return SwipeResult{}, fmt.Errorf("load match: %w", err)
	case row.Status == db.MatchStatusMatched:
		m := toMatch(row)
		res.Match = &m
		return res, nil
	default:
		return res, nil
	}
	if !liked {
		return res, nil
	}

	var (
		match    *db.Match
		newMatch bool
	)
	err = db.Transaction(ctx, e.db, func(tx *gorm.DB) error {
		match, newMatch = nil, false
		reciprocal, err := e.decisions.WithTx(tx).HasLikedForUpdate(ctx, string(target), string(actor))
		if err != nil || !reciprocal {
			return err
		}
		match, newMatch, err = e.materialize(ctx, tx, actor, target, e.clock.Now())
		return err
	})
	if err != nil {
		return SwipeResult{}, fmt.Errorf("repair match: %w", err)
	}
	if match != nil {
		m := toMatch(*match)
		res.Match = &m
		res.NewMatch = newMatch
	}
	if newMatch {
		e.logger.Warn("mutual like had no match, created on replay", "match_id", match.ID)
		e.onMatchCreated(ctx, actor, *res.Match)
	}
	return res, nil
}

// afterSwipe runs once the swipe committed. Failures here are logged only.
func (e *Engine) afterSwipe(ctx context.Context, actor, target domain.UserID, dir Direction, now time.Time) {
	metrics.SwipesTotal.WithLabelValues(dir.String()).Inc()

	// Both liked-you counts may have moved: target gained or lost a liker,
	// and a pass by actor hides target from actor's list.
	for _, u := range []domain.UserID{target, actor} {
		if err := e.likes.InvalidateLikeCount(ctx, string(u)); err != nil {
			e.logger.Warn("like count invalidation failed", "user", u, "err", err)
		}
	}
	if err := e.profiles.TouchLastActive(ctx, string(actor), domain.Nanos(now)); err != nil {
		e.logger.Warn("last active update failed", "user", actor, "err", err)
	}
}

func (e *Engine) onMatchCreated(ctx context.Context, actor domain.UserID, m Match) {
	metrics.MatchesTotal.Inc()
	e.logger.Info("match created", "match_id", m.ID, "user1", m.User1, "user2", m.User2)

	ev := events.NewMatchEvent(events.TypeMatchCreated, m.ID, m.ChatID, string(actor),
		[]string{string(m.User1), string(m.User2)}, domain.Nanos(m.CreatedAt))
	if err := e.events.Publish(ctx, ev); err != nil {
		e.logger.Error("match event publish failed", "match_id", m.ID, "err", err)
	}

	e.reward(ctx, m.User1, reward.KindMatch)
	e.reward(ctx, m.User2, reward.KindMatch)
}

func (e *Engine) reward(ctx context.Context, user domain.UserID, kind reward.Kind) {
	if e.rewards == nil {
		return
	}
	if _, err := e.rewards.Distribute(ctx, user, kind); err != nil {
		e.logger.Warn("reward not distributed", "user", user, "kind", kind, "err", err)
	}
}

// Matches returns every live match of user, newest first.
func (e *Engine) Matches(ctx context.Context, user domain.UserID) ([]Match, error) {
	rows, err := e.matches.ListMatched(ctx, string(user))
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	out := make([]Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, toMatch(row))
	}
	return out, nil
}

// Match returns one match; only its participants may read it.
func (e *Engine) Match(ctx context.Context, user domain.UserID, matchID string) (Match, error) {
	row, err := e.matches.Get(ctx, matchID)
	if err != nil {
		return Match{}, err
	}
	m := toMatch(row)
	if !m.hasParticipant(user) {
		return Match{}, fmt.Errorf("%w: not a participant of %s", domain.ErrUnauthorized, matchID)
	}
	return m, nil
}

// Unmatch dissolves a match for good. It reports false when the match was
// already unmatched.
func (e *Engine) Unmatch(ctx context.Context, user domain.UserID, matchID string) (bool, error) {
	unlock := e.pairs.Lock(matchID)
	defer unlock()

	m, err := e.Match(ctx, user, matchID)
	if err != nil {
		return false, err
	}
	if m.Status != StatusMatched {
		return false, nil
	}

	now := e.clock.Now()
	changed, err := e.matches.Unmatch(ctx, matchID, string(user), domain.Nanos(now))
	if err != nil {
		return false, fmt.Errorf("unmatch: %w", err)
	}
	if !changed {
		return false, nil
	}

	metrics.UnmatchesTotal.Inc()
	e.logger.Info("match dissolved", "match_id", matchID, "by", user)
	ev := events.NewMatchEvent(events.TypeMatchUnmatched, m.ID, m.ChatID, string(user),
		[]string{string(m.User1), string(m.User2)}, domain.Nanos(now))
	if err := e.events.Publish(ctx, ev); err != nil {
		e.logger.Error("unmatch event publish failed", "match_id", matchID, "err", err)
	}
	return true, nil
}

// RemainingSwipes is today's unused allowance of user at the current tier.
func (e *Engine) RemainingSwipes(ctx context.Context, user domain.UserID) (int64, error) {
	tier, err := e.entitlements.EffectiveTier(ctx, user)
	if err != nil {
		return 0, fmt.Errorf("resolve tier: %w", err)
	}
	return e.quota.Remaining(ctx, user, tier)
}

func toMatch(row db.Match) Match {
	m := Match{
		ID:          row.ID,
		User1:       domain.UserID(row.User1ID),
		User2:       domain.UserID(row.User2ID),
		ChatID:      row.ChatID,
		Status:      MatchStatus(row.Status),
		CreatedAt:   domain.FromNanos(row.CreatedAt),
		UnmatchedBy: domain.UserID(row.UnmatchedBy),
	}
	if row.UnmatchedAt != 0 {
		m.UnmatchedAt = domain.FromNanos(row.UnmatchedAt)
	}
	return m
}
