package entitlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oggyb/engagement-engine/internal/balance"
	"github.com/oggyb/engagement-engine/internal/db"
	"github.com/oggyb/engagement-engine/internal/domain"
	"github.com/oggyb/engagement-engine/internal/metrics"
	"github.com/oggyb/engagement-engine/internal/repository"
	"github.com/oggyb/engagement-engine/internal/utils/keylock"
)

// Subscription is the stored purchase of a user. The zero value is a user
// who never subscribed.
type Subscription struct {
	User      domain.UserID
	Tier      Tier
	Start     time.Time
	End       time.Time
	AutoRenew bool
}

// EffectiveTier is the tier sub grants at now: the stored tier strictly
// before End, Free from End on. Expiry is always computed, never persisted.
func EffectiveTier(sub Subscription, now time.Time) Tier {
	if now.Before(sub.End) {
		return sub.Tier
	}
	return TierFree
}

// State is the client view of a subscription.
type State struct {
	Subscription
	Effective Tier
	Active    bool
}

// RenewalReport summarizes one RenewDue pass.
type RenewalReport struct {
	Renewed  int
	Disabled int
	Failed   int
}

// Resolver answers entitlement questions and owns subscription mutations.
type Resolver struct {
	subs   *repository.SubscriptionRepository
	ledger balance.Ledger
	prices Prices
	clock  domain.Clock
	locks  *keylock.Locker
	logger *slog.Logger
}

func NewResolver(
	subs *repository.SubscriptionRepository,
	ledger balance.Ledger,
	prices Prices,
	clock domain.Clock,
	logger *slog.Logger,
) *Resolver {
	return &Resolver{
		subs:   subs,
		ledger: ledger,
		prices: prices,
		clock:  clock,
		locks:  keylock.New(),
		logger: logger.With("component", "entitlement"),
	}
}

// Plans lists every tier with price and features.
func (r *Resolver) Plans() []Plan { return r.prices.Plans() }

// Subscription loads the stored subscription of user.
func (r *Resolver) Subscription(ctx context.Context, user domain.UserID) (Subscription, error) {
	row, found, err := r.subs.Get(ctx, string(user))
	if err != nil {
		return Subscription{}, fmt.Errorf("load subscription: %w", err)
	}
	if !found {
		return Subscription{User: user}, nil
	}
	return fromRow(row), nil
}

// State returns the subscription of user as seen right now.
func (r *Resolver) State(ctx context.Context, user domain.UserID) (State, error) {
	sub, err := r.Subscription(ctx, user)
	if err != nil {
		return State{}, err
	}
	return r.stateOf(sub), nil
}

func (r *Resolver) stateOf(sub Subscription) State {
	eff := EffectiveTier(sub, r.clock.Now())
	return State{Subscription: sub, Effective: eff, Active: eff != TierFree}
}

// EffectiveTier re-derives the tier of user from stored state and the clock.
func (r *Resolver) EffectiveTier(ctx context.Context, user domain.UserID) (Tier, error) {
	sub, err := r.Subscription(ctx, user)
	if err != nil {
		return TierFree, err
	}
	return EffectiveTier(sub, r.clock.Now()), nil
}

// Features resolves the FeatureSet user is entitled to right now.
func (r *Resolver) Features(ctx context.Context, user domain.UserID) (FeatureSet, error) {
	tier, err := r.EffectiveTier(ctx, user)
	if err != nil {
		return FeatureSetFor(TierFree), err
	}
	return FeatureSetFor(tier), nil
}

// CheckFeatureAccess is a simple gate. Unknown feature names answer false;
// a failed subscription lookup is returned as an error.
func (r *Resolver) CheckFeatureAccess(ctx context.Context, user domain.UserID, feature string) (bool, error) {
	fs, err := r.Features(ctx, user)
	if err != nil {
		return false, err
	}
	return fs.Allows(feature), nil
}

// Subscribe buys months of tier for user, starting now. The balance is
// debited first; the subscription row is untouched if the debit fails.
func (r *Resolver) Subscribe(ctx context.Context, user domain.UserID, tier Tier, months int) (Subscription, error) {
	if !tier.Paid() {
		return Subscription{}, fmt.Errorf("%w: %s cannot be purchased", domain.ErrInvalidTier, tier)
	}
	if months < 1 {
		return Subscription{}, fmt.Errorf("%w: months must be positive", domain.ErrInvalidAmount)
	}

	unlock := r.locks.Lock(string(user))
	defer unlock()

	cost := r.prices.MonthlyRate(tier).MulInt64(int64(months))
	if err := r.ledger.Debit(ctx, user, cost); err != nil {
		return Subscription{}, fmt.Errorf("charge subscription: %w", err)
	}

	now := r.clock.Now()
	sub := Subscription{
		User:      user,
		Tier:      tier,
		Start:     now,
		End:       now.AddDate(0, months, 0),
		AutoRenew: false,
	}
	if err := r.save(ctx, sub, now); err != nil {
		r.refund(ctx, user, cost, "subscribe")
		return Subscription{}, err
	}

	metrics.SubscriptionsTotal.WithLabelValues(tier.String(), "subscribe").Inc()
	r.logger.Info("subscription activated",
		"user", user, "tier", tier.String(), "months", months, "cost", cost.String())
	return sub, nil
}

// Unsubscribe stops auto-renewal. Access continues until the paid End:
// no refund, no immediate downgrade.
func (r *Resolver) Unsubscribe(ctx context.Context, user domain.UserID) (Subscription, error) {
	unlock := r.locks.Lock(string(user))
	defer unlock()

	sub, err := r.Subscription(ctx, user)
	if err != nil {
		return Subscription{}, err
	}
	if sub.Start.IsZero() || !sub.AutoRenew {
		return sub, nil
	}
	if err := r.subs.SetAutoRenew(ctx, string(user), false, domain.Nanos(r.clock.Now())); err != nil {
		return Subscription{}, fmt.Errorf("disable auto-renew: %w", err)
	}
	sub.AutoRenew = false
	r.logger.Info("subscription auto-renew cancelled", "user", user, "ends", sub.End)
	return sub, nil
}

// SetAutoRenew toggles auto-renewal. Turning it on needs a live paid
// subscription.
func (r *Resolver) SetAutoRenew(ctx context.Context, user domain.UserID, on bool) (Subscription, error) {
	if !on {
		return r.Unsubscribe(ctx, user)
	}

	unlock := r.locks.Lock(string(user))
	defer unlock()

	sub, err := r.activePaid(ctx, user)
	if err != nil {
		return Subscription{}, err
	}
	if err := r.subs.SetAutoRenew(ctx, string(user), true, domain.Nanos(r.clock.Now())); err != nil {
		return Subscription{}, fmt.Errorf("enable auto-renew: %w", err)
	}
	sub.AutoRenew = true
	return sub, nil
}

// Renew extends a live subscription by months at its current tier.
func (r *Resolver) Renew(ctx context.Context, user domain.UserID, months int) (Subscription, error) {
	if months < 1 {
		return Subscription{}, fmt.Errorf("%w: months must be positive", domain.ErrInvalidAmount)
	}

	unlock := r.locks.Lock(string(user))
	defer unlock()

	sub, err := r.activePaid(ctx, user)
	if err != nil {
		return Subscription{}, err
	}
	return r.extend(ctx, sub, months, "renew")
}

// RenewDue charges and extends every auto-renewing subscription ending
// within window from now. Users who cannot pay have auto-renew switched
// off and lapse to Free on their own at End.
func (r *Resolver) RenewDue(ctx context.Context, window time.Duration) (RenewalReport, error) {
	now := r.clock.Now()
	rows, err := r.subs.ListRenewable(ctx, domain.Nanos(now), domain.Nanos(now.Add(window)))
	if err != nil {
		return RenewalReport{}, fmt.Errorf("list renewable subscriptions: %w", err)
	}

	var report RenewalReport
	for _, row := range rows {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		switch err := r.renewOne(ctx, domain.UserID(row.UserID), now, window); {
		case err == nil:
			report.Renewed++
		case errors.Is(err, domain.ErrInsufficientBalance):
			report.Disabled++
		case errors.Is(err, errNotDue):
		default:
			report.Failed++
			r.logger.Error("auto-renew failed", "user", row.UserID, "err", err)
		}
	}
	return report, nil
}

var errNotDue = errors.New("subscription not due")

func (r *Resolver) renewOne(ctx context.Context, user domain.UserID, now time.Time, window time.Duration) error {
	unlock := r.locks.Lock(string(user))
	defer unlock()

	// Re-read under the lock: the user may have cancelled or renewed.
	sub, err := r.Subscription(ctx, user)
	if err != nil {
		return err
	}
	if !sub.AutoRenew || !sub.Tier.Paid() || !now.Before(sub.End) || sub.End.After(now.Add(window)) {
		return errNotDue
	}

	_, err = r.extend(ctx, sub, 1, "auto_renew")
	if errors.Is(err, domain.ErrInsufficientBalance) {
		if derr := r.subs.SetAutoRenew(ctx, string(user), false, domain.Nanos(now)); derr != nil {
			return derr
		}
		r.logger.Warn("auto-renew disabled, balance too low", "user", user, "tier", sub.Tier.String())
	}
	return err
}

// extend must run under the user's lock.
func (r *Resolver) extend(ctx context.Context, sub Subscription, months int, kind string) (Subscription, error) {
	cost := r.prices.MonthlyRate(sub.Tier).MulInt64(int64(months))
	if err := r.ledger.Debit(ctx, sub.User, cost); err != nil {
		return Subscription{}, fmt.Errorf("charge renewal: %w", err)
	}

	extended := sub
	extended.End = sub.End.AddDate(0, months, 0)
	if err := r.save(ctx, extended, r.clock.Now()); err != nil {
		r.refund(ctx, sub.User, cost, kind)
		return Subscription{}, err
	}

	metrics.SubscriptionsTotal.WithLabelValues(sub.Tier.String(), kind).Inc()
	r.logger.Info("subscription extended",
		"user", sub.User, "tier", sub.Tier.String(), "months", months, "ends", extended.End, "kind", kind)
	return extended, nil
}

// activePaid must run under the user's lock.
func (r *Resolver) activePaid(ctx context.Context, user domain.UserID) (Subscription, error) {
	sub, err := r.Subscription(ctx, user)
	if err != nil {
		return Subscription{}, err
	}
	if sub.Start.IsZero() {
		return Subscription{}, fmt.Errorf("%w: no subscription", domain.ErrNotFound)
	}
	if EffectiveTier(sub, r.clock.Now()) == TierFree {
		return Subscription{}, fmt.Errorf("%w: ended %s", domain.ErrSubscriptionExpired, sub.End.Format(time.RFC3339))
	}
	return sub, nil
}

func (r *Resolver) save(ctx context.Context, sub Subscription, now time.Time) error {
	row := db.Subscription{
		UserID:    string(sub.User),
		Tier:      sub.Tier.String(),
		StartTime: domain.Nanos(sub.Start),
		EndTime:   domain.Nanos(sub.End),
		AutoRenew: sub.AutoRenew,
		UpdatedAt: domain.Nanos(now),
	}
	if err := r.subs.Save(ctx, &row); err != nil {
		return fmt.Errorf("save subscription: %w", err)
	}
	return nil
}

func (r *Resolver) refund(ctx context.Context, user domain.UserID, amount domain.Amount, op string) {
	if err := r.ledger.Credit(context.WithoutCancel(ctx), user, amount); err != nil {
		r.logger.Error("refund after failed write did not go through",
			"user", user, "amount", amount.String(), "op", op, "err", err)
	}
}

func fromRow(row db.Subscription) Subscription {
	tier, err := ParseTier(row.Tier)
	if err != nil {
		tier = TierFree
	}
	return Subscription{
		User:      domain.UserID(row.UserID),
		Tier:      tier,
		Start:     domain.FromNanos(row.StartTime),
		End:       domain.FromNanos(row.EndTime),
		AutoRenew: row.AutoRenew,
	}
}
