// Package reward hands out engagement token rewards (new match, message
// sent, profile completed) through the balance ledger, capped per UTC day.
package reward

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oggyb/engagement-engine/internal/balance"
	"github.com/oggyb/engagement-engine/internal/config"
	"github.com/oggyb/engagement-engine/internal/db"
	"github.com/oggyb/engagement-engine/internal/domain"
	"github.com/oggyb/engagement-engine/internal/metrics"
	"github.com/oggyb/engagement-engine/internal/repository"
	"github.com/oggyb/engagement-engine/internal/utils/keylock"
)

type Kind string

const (
	KindMatch         Kind = "match"
	// KindMessage is paid per message.sent event from the messaging topic.
	KindMessage       Kind = "message"
	KindProfileUpdate Kind = "profile_update"
)

// Rates holds the per-kind amounts and the daily ceiling.
type Rates struct {
	PerKind  map[Kind]domain.Amount
	DailyCap domain.Amount
}

// ParseRates reads the rewards section of cfg.
func ParseRates(cfg *config.Config) (Rates, error) {
	r := Rates{PerKind: make(map[Kind]domain.Amount, 3)}
	for kind, raw := range map[Kind]string{
		KindMatch:         cfg.Rewards.Match,
		KindMessage:       cfg.Rewards.Message,
		KindProfileUpdate: cfg.Rewards.ProfileUpdate,
	} {
		a, err := domain.ParseAmount(raw)
		if err != nil {
			return Rates{}, fmt.Errorf("reward %s: %w", kind, err)
		}
		if a.Sign() < 0 {
			return Rates{}, fmt.Errorf("reward %s: %w: negative", kind, domain.ErrInvalidAmount)
		}
		r.PerKind[kind] = a
	}
	dailyCap, err := domain.ParseAmount(cfg.Rewards.DailyCap)
	if err != nil {
		return Rates{}, fmt.Errorf("reward daily cap: %w", err)
	}
	if dailyCap.Sign() < 0 {
		return Rates{}, fmt.Errorf("reward daily cap: %w: negative", domain.ErrInvalidAmount)
	}
	r.DailyCap = dailyCap
	return r, nil
}

// State is the reward history of one user.
type State struct {
	User           domain.UserID
	LastRewardTime time.Time
	// DailyRewards counts only Day; it reads as zero on any later day.
	Day          string
	DailyRewards domain.Amount
	TotalRewards domain.Amount
}

type Distributor struct {
	repo   *repository.RewardRepository
	ledger balance.Ledger
	rates  Rates
	clock  domain.Clock
	locks  *keylock.Locker
	logger *slog.Logger
}

func NewDistributor(
	repo *repository.RewardRepository,
	ledger balance.Ledger,
	rates Rates,
	clock domain.Clock,
	logger *slog.Logger,
) *Distributor {
	return &Distributor{
		repo:   repo,
		ledger: ledger,
		rates:  rates,
		clock:  clock,
		locks:  keylock.New(),
		logger: logger.With("component", "reward"),
	}
}

// State returns the user's reward history as of now.
func (d *Distributor) State(ctx context.Context, user domain.UserID) (State, error) {
	row, found, err := d.repo.Get(ctx, string(user))
	if err != nil {
		return State{}, fmt.Errorf("load reward state: %w", err)
	}
	if !found {
		return State{User: user, Day: domain.DayBucket(d.clock.Now())}, nil
	}
	return d.rollover(fromRow(row)), nil
}

// Distribute credits the reward for kind, trimmed to what is left of the
// daily cap. It returns the amount actually granted, which is zero once
// the cap is reached.
func (d *Distributor) Distribute(ctx context.Context, user domain.UserID, kind Kind) (domain.Amount, error) {
	amount, ok := d.rates.PerKind[kind]
	if !ok {
		return domain.Amount{}, fmt.Errorf("%w: unknown reward kind %q", domain.ErrInvalidAmount, kind)
	}

	unlock := d.locks.Lock(string(user))
	defer unlock()

	state, err := d.State(ctx, user)
	if err != nil {
		return domain.Amount{}, err
	}

	room := d.rates.DailyCap.Sub(state.DailyRewards)
	if room.Cmp(amount) < 0 {
		amount = room
	}
	if amount.Sign() <= 0 {
		d.logger.Debug("daily reward cap reached", "user", user, "kind", kind)
		return domain.Amount{}, nil
	}

	if err := d.ledger.Credit(ctx, user, amount); err != nil {
		return domain.Amount{}, fmt.Errorf("credit reward: %w", err)
	}

	now := d.clock.Now()
	next := state
	next.LastRewardTime = now
	next.DailyRewards = state.DailyRewards.Add(amount)
	next.TotalRewards = state.TotalRewards.Add(amount)
	if err := d.repo.Save(ctx, toRow(next)); err != nil {
		if derr := d.ledger.Debit(context.WithoutCancel(ctx), user, amount); derr != nil {
			d.logger.Error("reward rollback failed", "user", user, "amount", amount.String(), "err", derr)
		}
		return domain.Amount{}, fmt.Errorf("save reward state: %w", err)
	}

	metrics.RewardsTotal.WithLabelValues(string(kind)).Inc()
	d.logger.Info("reward distributed", "user", user, "kind", kind, "amount", amount.String())
	return amount, nil
}

func (d *Distributor) rollover(s State) State {
	today := domain.DayBucket(d.clock.Now())
	if s.Day != today {
		s.Day = today
		s.DailyRewards = domain.Amount{}
	}
	return s
}

func fromRow(row db.RewardState) State {
	s := State{
		User:         domain.UserID(row.UserID),
		Day:          row.Day,
		DailyRewards: row.DailyRewards,
		TotalRewards: row.TotalRewards,
	}
	if row.LastRewardTime != 0 {
		s.LastRewardTime = domain.FromNanos(row.LastRewardTime)
	}
	return s
}

func toRow(s State) *db.RewardState {
	return &db.RewardState{
		UserID:         string(s.User),
		LastRewardTime: domain.Nanos(s.LastRewardTime),
		Day:            s.Day,
		DailyRewards:   s.DailyRewards,
		TotalRewards:   s.TotalRewards,
	}
}
