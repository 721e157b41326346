package reward_test

import (
	"context"
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
	"github.com/oggyb/engagement-engine/internal/reward"
)

func newDistributor(t *testing.T) (*reward.Distributor, *balance.Store, *domain.FakeClock) {
	t.Helper()
	database := dbtest.New(t)
	clock := domain.NewFakeClock(time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC))
	ledger := balance.NewStore(database, clock, logger.Discard())

	cfg := config.New()
	cfg.Rewards.Match = "10"
	cfg.Rewards.Message = "1"
	cfg.Rewards.ProfileUpdate = "5"
	cfg.Rewards.DailyCap = "25"
	rates, err := reward.ParseRates(cfg)
	require.NoError(t, err)

	d := reward.NewDistributor(repository.NewRewardRepository(database), ledger, rates, clock, logger.Discard())
	return d, ledger, clock
}

func TestDistributeCreditsAndTracksState(t *testing.T) {
	ctx := context.Background()
	d, ledger, _ := newDistributor(t)

	got, err := d.Distribute(ctx, "u", reward.KindMatch)
	require.NoError(t, err)
	assert.Equal(t, "10", got.String())

	got, err = d.Distribute(ctx, "u", reward.KindProfileUpdate)
	require.NoError(t, err)
	assert.Equal(t, "5", got.String())

	bal, err := ledger.Balance(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "15", bal.String())

	st, err := d.State(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "15", st.DailyRewards.String())
	assert.Equal(t, "15", st.TotalRewards.String())
	assert.False(t, st.LastRewardTime.IsZero())
}

func TestDistributeStopsAtDailyCap(t *testing.T) {
	ctx := context.Background()
	d, ledger, clock := newDistributor(t)

	for _, want := range []string{"10", "10", "5", "0"} {
		got, err := d.Distribute(ctx, "u", reward.KindMatch)
		require.NoError(t, err)
		assert.Equal(t, want, got.String())
	}
	bal, err := ledger.Balance(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "25", bal.String())

	clock.Advance(24 * time.Hour)
	got, err := d.Distribute(ctx, "u", reward.KindMatch)
	require.NoError(t, err)
	assert.Equal(t, "10", got.String())

	st, err := d.State(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, "10", st.DailyRewards.String())
	assert.Equal(t, "35", st.TotalRewards.String())
}

func TestDistributeUnknownKind(t *testing.T) {
	d, _, _ := newDistributor(t)
	_, err := d.Distribute(context.Background(), "u", reward.Kind("referral"))
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)
}
