// Package staking escrows tokens for a fixed lock period and pays them back
// with a fixed APR reward once the lock expires.
package staking

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/oggyb/engagement-engine/internal/balance"
	"github.com/oggyb/engagement-engine/internal/db"
	"github.com/oggyb/engagement-engine/internal/domain"
	"github.com/oggyb/engagement-engine/internal/metrics"
	"github.com/oggyb/engagement-engine/internal/repository"
	"github.com/oggyb/engagement-engine/internal/utils/keylock"
)

// Stake is one position. Duration and AprBps are copied from the config at
// stake time; later config changes never touch open stakes.
type Stake struct {
	ID            string
	Owner         domain.UserID
	Index         int
	Amount        domain.Amount
	DurationIndex int
	Duration      time.Duration
	AprBps        int64
	StartTime     time.Time
	UnlockTime    time.Time
	// Reward is what the stake earns at maturity.
	Reward    domain.Amount
	Claimed   bool
	ClaimedAt time.Time
	Payout    domain.Amount
}

type Ledger struct {
	cfg    Config
	stakes *repository.StakeRepository
	ledger balance.Ledger
	clock  domain.Clock
	locks  *keylock.Locker
	logger *slog.Logger
}

func NewLedger(
	cfg Config,
	stakes *repository.StakeRepository,
	ledger balance.Ledger,
	clock domain.Clock,
	logger *slog.Logger,
) *Ledger {
	return &Ledger{
		cfg:    cfg,
		stakes: stakes,
		ledger: ledger,
		clock:  clock,
		locks:  keylock.New(),
		logger: logger.With("component", "staking"),
	}
}

func (l *Ledger) Config() Config { return l.cfg }

// Stake validates the request, escrows amount from the user's balance and
// records the position. Nothing is debited when validation fails.
func (l *Ledger) Stake(ctx context.Context, user domain.UserID, amount domain.Amount, durationIndex int) (Stake, error) {
	if amount.Cmp(l.cfg.MinStake) < 0 || amount.Cmp(l.cfg.MaxStake) > 0 {
		return Stake{}, fmt.Errorf("%w: %s outside [%s, %s]", domain.ErrInvalidAmount, amount, l.cfg.MinStake, l.cfg.MaxStake)
	}
	duration, apr, err := l.cfg.Tier(durationIndex)
	if err != nil {
		return Stake{}, err
	}

	unlock := l.locks.Lock(string(user))
	defer unlock()

	idx, err := l.stakes.NextIndex(ctx, string(user))
	if err != nil {
		return Stake{}, fmt.Errorf("next stake index: %w", err)
	}

	if err := l.ledger.Debit(ctx, user, amount); err != nil {
		return Stake{}, fmt.Errorf("escrow stake: %w", err)
	}

	row := db.Stake{
		ID:            uuid.NewString(),
		OwnerID:       string(user),
		Idx:           idx,
		Amount:        amount,
		DurationIndex: durationIndex,
		DurationNs:    int64(duration),
		AprBps:        apr,
		StartTime:     domain.Nanos(l.clock.Now()),
	}
	if err := l.stakes.Create(ctx, &row); err != nil {
		if cerr := l.ledger.Credit(context.WithoutCancel(ctx), user, amount); cerr != nil {
			l.logger.Error("stake escrow refund failed", "user", user, "amount", amount.String(), "err", cerr)
		}
		return Stake{}, fmt.Errorf("record stake: %w", err)
	}

	metrics.StakesTotal.WithLabelValues(strconv.Itoa(durationIndex)).Inc()
	l.logger.Info("stake opened",
		"user", user, "stake_id", row.ID, "index", idx, "amount", amount.String(), "duration", duration)
	return toStake(row), nil
}

// Unstake claims the owner's stake at index and credits the payout.
func (l *Ledger) Unstake(ctx context.Context, user domain.UserID, index int) (domain.Amount, error) {
	unlock := l.locks.Lock(string(user))
	defer unlock()

	row, err := l.stakes.GetByOwnerIndex(ctx, string(user), index)
	if err != nil {
		return domain.Amount{}, err
	}
	return l.claim(ctx, user, row)
}

// UnstakeByID is Unstake addressed by stake id. A stake of another user
// fails with domain.ErrUnauthorized.
func (l *Ledger) UnstakeByID(ctx context.Context, user domain.UserID, id string) (domain.Amount, error) {
	unlock := l.locks.Lock(string(user))
	defer unlock()

	row, err := l.stakes.GetByID(ctx, id)
	if err != nil {
		return domain.Amount{}, err
	}
	if row.OwnerID != string(user) {
		return domain.Amount{}, fmt.Errorf("%w: stake %s belongs to another user", domain.ErrUnauthorized, id)
	}
	return l.claim(ctx, user, row)
}

// claim must run under the user's lock.
func (l *Ledger) claim(ctx context.Context, user domain.UserID, row db.Stake) (domain.Amount, error) {
	if row.Claimed {
		return domain.Amount{}, fmt.Errorf("%w: stake %d", domain.ErrAlreadyClaimed, row.Idx)
	}
	now := l.clock.Now()
	st := toStake(row)
	if now.Before(st.UnlockTime) {
		return domain.Amount{}, fmt.Errorf("%w: unlocks at %s", domain.ErrStillLocked, st.UnlockTime.Format(time.RFC3339))
	}

	payout := st.Amount.Add(st.Reward)
	ok, err := l.stakes.MarkClaimed(ctx, row.ID, domain.Nanos(now), payout)
	if err != nil {
		return domain.Amount{}, fmt.Errorf("mark stake claimed: %w", err)
	}
	if !ok {
		return domain.Amount{}, fmt.Errorf("%w: stake %d", domain.ErrAlreadyClaimed, row.Idx)
	}

	if err := l.ledger.Credit(ctx, user, payout); err != nil {
		if rerr := l.stakes.RevertClaim(context.WithoutCancel(ctx), row.ID); rerr != nil {
			l.logger.Error("stake claim revert failed", "user", user, "stake_id", row.ID, "err", rerr)
		}
		return domain.Amount{}, fmt.Errorf("credit payout: %w", err)
	}

	metrics.UnstakesTotal.Inc()
	l.logger.Info("stake claimed",
		"user", user, "stake_id", row.ID, "index", row.Idx, "payout", payout.String())
	return payout, nil
}

// Stakes lists every stake of user, claimed ones included, oldest first.
func (l *Ledger) Stakes(ctx context.Context, user domain.UserID) ([]Stake, error) {
	rows, err := l.stakes.ListByOwner(ctx, string(user))
	if err != nil {
		return nil, fmt.Errorf("list stakes: %w", err)
	}
	out := make([]Stake, 0, len(rows))
	for _, row := range rows {
		out = append(out, toStake(row))
	}
	return out, nil
}

func toStake(row db.Stake) Stake {
	start := domain.FromNanos(row.StartTime)
	duration := time.Duration(row.DurationNs)
	s := Stake{
		ID:            row.ID,
		Owner:         domain.UserID(row.OwnerID),
		Index:         row.Idx,
		Amount:        row.Amount,
		DurationIndex: row.DurationIndex,
		Duration:      duration,
		AprBps:        row.AprBps,
		StartTime:     start,
		UnlockTime:    start.Add(duration),
		Reward:        Reward(row.Amount, row.AprBps, duration),
		Claimed:       row.Claimed,
		Payout:        row.Payout,
	}
	if row.ClaimedAt != 0 {
		s.ClaimedAt = domain.FromNanos(row.ClaimedAt)
	}
	return s
}
