package staking_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/engagement-engine/internal/balance"
	"github.com/oggyb/engagement-engine/internal/config"
	"github.com/oggyb/engagement-engine/internal/db/dbtest"
	"github.com/oggyb/engagement-engine/internal/domain"
	"github.com/oggyb/engagement-engine/internal/logger"
	"github.com/oggyb/engagement-engine/internal/repository"
	"github.com/oggyb/engagement-engine/internal/staking"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func testConfig() staking.Config {
	return staking.Config{
		MinStake:  domain.NewAmount(100),
		MaxStake:  domain.NewAmount(10_000_000),
		Durations: []time.Duration{30 * 24 * time.Hour, staking.Year},
		AprBps:    []int64{500, 1000},
	}
}

type fixture struct {
	ledger  *staking.Ledger
	balance *balance.Store
	clock   *domain.FakeClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	database := dbtest.New(t)
	clock := domain.NewFakeClock(start)
	bal := balance.NewStore(database, clock, logger.Discard())
	l := staking.NewLedger(testConfig(), repository.NewStakeRepository(database), bal, clock, logger.Discard())
	return fixture{ledger: l, balance: bal, clock: clock}
}

func (f fixture) fund(t *testing.T, user domain.UserID, n int64) {
	t.Helper()
	require.NoError(t, f.balance.Credit(context.Background(), user, domain.NewAmount(n)))
}

func (f fixture) balanceOf(t *testing.T, user domain.UserID) string {
	t.Helper()
	b, err := f.balance.Balance(context.Background(), user)
	require.NoError(t, err)
	return b.String()
}

func TestRewardOneYearTenPercent(t *testing.T) {
	r := staking.Reward(domain.NewAmount(1_000_000), 1000, staking.Year)
	assert.Equal(t, "100000", r.String())
}

func TestRewardFloorsAndHandlesHugeAmounts(t *testing.T) {
	// 999 * 5% * 30/365 = 4.1054... → 4
	assert.Equal(t, "4", staking.Reward(domain.NewAmount(999), 500, 30*24*time.Hour).String())

	huge := domain.MustAmount("123456789012345678901234567890")
	assert.Equal(t, "12345678901234567890123456789", staking.Reward(huge, 1000, staking.Year).String())

	assert.True(t, staking.Reward(domain.NewAmount(1_000_000), 0, staking.Year).IsZero())
}

func TestParseConfig(t *testing.T) {
	cfg := config.New()
	cfg.Staking.MinStake = "100"
	cfg.Staking.MaxStake = "1000"
	cfg.Staking.Durations = "720h, 8760h"
	cfg.Staking.AprBps = "500,1000"

	c, err := staking.ParseConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{720 * time.Hour, staking.Year}, c.Durations)
	assert.Equal(t, []int64{500, 1000}, c.AprBps)

	cfg.Staking.AprBps = "500"
	_, err = staking.ParseConfig(cfg)
	assert.ErrorContains(t, err, "2 durations but 1 APR rates")

	cfg.Staking.AprBps = "500,1000"
	cfg.Staking.MaxStake = "10"
	_, err = staking.ParseConfig(cfg)
	assert.Error(t, err)

	cfg.Staking.MaxStake = "1000"
	cfg.Staking.Durations = "720h,forever"
	_, err = staking.ParseConfig(cfg)
	assert.Error(t, err)
}

func TestStakeValidatesBeforeDebit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fund(t, "u", 1000)

	_, err := f.ledger.Stake(ctx, "u", domain.NewAmount(99), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.ledger.Stake(ctx, "u", domain.NewAmount(10_000_001), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.ledger.Stake(ctx, "u", domain.NewAmount(500), 2)
	assert.ErrorIs(t, err, domain.ErrInvalidDuration)

	_, err = f.ledger.Stake(ctx, "u", domain.NewAmount(500), -1)
	assert.ErrorIs(t, err, domain.ErrInvalidDuration)

	_, err = f.ledger.Stake(ctx, "u", domain.NewAmount(5000), 0)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)

	assert.Equal(t, "1000", f.balanceOf(t, "u"))
	stakes, err := f.ledger.Stakes(ctx, "u")
	require.NoError(t, err)
	assert.Empty(t, stakes)
}

func TestStakeEscrowsAndUnstakePaysOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fund(t, "u", 1_000_000)

	s, err := f.ledger.Stake(ctx, "u", domain.NewAmount(1_000_000), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Index)
	assert.Equal(t, start.Add(staking.Year), s.UnlockTime)
	assert.Equal(t, "100000", s.Reward.String())
	assert.Equal(t, "0", f.balanceOf(t, "u"))

	f.clock.Set(s.UnlockTime.Add(-time.Nanosecond))
	_, err = f.ledger.Unstake(ctx, "u", 0)
	require.ErrorIs(t, err, domain.ErrStillLocked)

	f.clock.Set(s.UnlockTime)
	payout, err := f.ledger.Unstake(ctx, "u", 0)
	require.NoError(t, err)
	assert.Equal(t, "1100000", payout.String())
	assert.Equal(t, "1100000", f.balanceOf(t, "u"))

	_, err = f.ledger.Unstake(ctx, "u", 0)
	require.ErrorIs(t, err, domain.ErrAlreadyClaimed)
	assert.Equal(t, "1100000", f.balanceOf(t, "u"))

	stakes, err := f.ledger.Stakes(ctx, "u")
	require.NoError(t, err)
	require.Len(t, stakes, 1)
	assert.True(t, stakes[0].Claimed)
	assert.Equal(t, "1100000", stakes[0].Payout.String())
	assert.Equal(t, s.UnlockTime, stakes[0].ClaimedAt)
}

func TestUnstakeErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fund(t, "owner", 1000)

	s, err := f.ledger.Stake(ctx, "owner", domain.NewAmount(500), 0)
	require.NoError(t, err)

	_, err = f.ledger.Unstake(ctx, "owner", 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.ledger.UnstakeByID(ctx, "thief", s.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = f.ledger.UnstakeByID(ctx, "owner", "no-such-id")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	f.clock.Set(s.UnlockTime)
	payout, err := f.ledger.UnstakeByID(ctx, "owner", s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.NewAmount(500).Add(s.Reward).String(), payout.String())
}

func TestConcurrentUnstakeClaimsOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fund(t, "u", 1000)

	s, err := f.ledger.Stake(ctx, "u", domain.NewAmount(1000), 0)
	require.NoError(t, err)
	f.clock.Set(s.UnlockTime)

	var wg sync.WaitGroup
	results := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.ledger.Unstake(ctx, "u", 0)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, domain.ErrAlreadyClaimed)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, domain.NewAmount(1000).Add(s.Reward).String(), f.balanceOf(t, "u"))
}

func TestStakeIndexesIncrease(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.fund(t, "u", 1000)

	for i := 0; i < 3; i++ {
		s, err := f.ledger.Stake(ctx, "u", domain.NewAmount(100), i%2)
		require.NoError(t, err)
		assert.Equal(t, i, s.Index)
	}
	assert.Equal(t, "700", f.balanceOf(t, "u"))
}
