package server_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/oggyb/engagement-engine/internal/api"
	"github.com/oggyb/engagement-engine/internal/app"
	"github.com/oggyb/engagement-engine/internal/auth"
	"github.com/oggyb/engagement-engine/internal/cache"
	"github.com/oggyb/engagement-engine/internal/config"
	"github.com/oggyb/engagement-engine/internal/db/dbtest"
	"github.com/oggyb/engagement-engine/internal/domain"
	svcErr "github.com/oggyb/engagement-engine/internal/errors"
	"github.com/oggyb/engagement-engine/internal/events"
	"github.com/oggyb/engagement-engine/internal/logger"
	"github.com/oggyb/engagement-engine/internal/server"
	"github.com/oggyb/engagement-engine/internal/service/matching"
	"github.com/oggyb/engagement-engine/internal/service/staking"
	"github.com/oggyb/engagement-engine/internal/service/subscription"
)

type harness struct {
	appCtx *app.AppContext
	clock  *domain.FakeClock
	lis    *bufconn.Listener
}

type client struct {
	matching     *api.MatchingClient
	subscription *api.SubscriptionClient
	staking      *api.StakingClient
	conn         *grpc.ClientConn
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = rc.Close() })

	log := logger.Discard()
	clock := domain.NewFakeClock(time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC))
	appCtx, err := app.New(cfg, dbtest.New(t), rc, events.NewLogPublisher(log), clock, log)
	require.NoError(t, err)

	srv := server.NewGRPCServer(appCtx.Tokens, log,
		matching.NewRegistrar(appCtx),
		subscription.NewRegistrar(appCtx),
		staking.NewRegistrar(appCtx),
	)

	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, lis) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return &harness{appCtx: appCtx, clock: clock, lis: lis}
}

// as dials the server as user; an empty user sends no token.
func (h *harness) as(t *testing.T, user domain.UserID) client {
	t.Helper()
	opts := []grpc.DialOption{
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return h.lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}
	if user != "" {
		tok, err := h.appCtx.Tokens.Issue(user)
		require.NoError(t, err)
		opts = append(opts, grpc.WithPerRPCCredentials(auth.BearerCredentials{Token: tok, Insecure: true}))
	}
	conn, err := grpc.NewClient("passthrough:///bufnet", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return client{
		matching:     api.NewMatchingClient(conn),
		subscription: api.NewSubscriptionClient(conn),
		staking:      api.NewStakingClient(conn),
		conn:         conn,
	}
}

func profile(name, gender, wants string) *api.PutProfileRequest {
	return &api.PutProfileRequest{Profile: api.Profile{
		Name:   name,
		Age:    28,
		Gender: gender,
		Location: api.Location{
			City:      "Berlin",
			Latitude:  52.52,
			Longitude: 13.40,
		},
		Preferences: api.Preferences{MinAge: 18, MaxAge: 40, Gender: wants, MaxDistanceKm: 25},
	}}
}

func assertCode(t *testing.T, err error, code codes.Code, reason string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, status.Code(err), err.Error())
	if reason != "" {
		assert.Equal(t, reason, svcErr.Reason(err))
	}
}

func TestAuthAndPublicMethods(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	anon := h.as(t, "")

	_, err := anon.matching.GetMatches(ctx, &api.Empty{})
	assertCode(t, err, codes.Unauthenticated, "")

	plans, err := anon.subscription.GetAvailablePlans(ctx, &api.Empty{})
	require.NoError(t, err)
	require.Len(t, plans.Plans, 4)
	assert.Equal(t, "vip", plans.Plans[3].ID)

	cfg, err := anon.staking.GetStakingConfig(ctx, &api.Empty{})
	require.NoError(t, err)
	assert.Equal(t, []int64{500, 800, 1200, 2000}, cfg.AprRates)
	assert.Equal(t, int64(30*24*time.Hour), cfg.Durations[0])

	hc, err := healthpb.NewHealthClient(anon.conn).Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, hc.GetStatus())
}

func TestRequestValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice := h.as(t, "alice")

	bad := profile("Alice", "female", "male")
	bad.Profile.Age = 12
	_, err := alice.matching.PutProfile(ctx, bad)
	assertCode(t, err, codes.InvalidArgument, "INVALID_ARGUMENT")

	_, err = alice.matching.Swipe(ctx, &api.SwipeRequest{TargetUserID: "bob", Direction: "superlike"})
	assertCode(t, err, codes.InvalidArgument, "")

	_, err = alice.subscription.Subscribe(ctx, &api.SubscribeRequest{Plan: "premium", Months: 0})
	assertCode(t, err, codes.InvalidArgument, "")
}

func TestMatchFlowOverGRPC(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	alice, bob := h.as(t, "alice"), h.as(t, "bob")

	_, err := alice.matching.PutProfile(ctx, profile("Alice", "female", "male"))
	require.NoError(t, err)
	_, err = bob.matching.PutProfile(ctx, profile("Bob", "male", "female"))
	require.NoError(t, err)

	pool, err := alice.matching.GetPotentialMatches(ctx, &api.GetPotentialMatchesRequest{})
	require.NoError(t, err)
	require.Len(t, pool.Profiles, 1)
	assert.Equal(t, "bob", pool.Profiles[0].UserID)

	first, err := alice.matching.Swipe(ctx, &api.SwipeRequest{TargetUserID: "bob", Direction: "like"})
	require.NoError(t, err)
	assert.False(t, first.Matched)
	assert.Equal(t, int64(9), first.Remaining)

	// free tier may count but not list
	count, err := bob.matching.CountLikedYou(ctx, &api.Empty{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count.Count)
	_, err = bob.matching.ListLikedYou(ctx, &api.ListLikedYouRequest{})
	assertCode(t, err, codes.PermissionDenied, "UNAUTHORIZED")

	second, err := bob.matching.Swipe(ctx, &api.SwipeRequest{TargetUserID: "alice", Direction: "LIKE"})
	require.NoError(t, err)
	require.True(t, second.Matched)
	assert.True(t, second.NewMatch)
	require.NotNil(t, second.Match)
	assert.Equal(t, domain.MatchID("alice", "bob"), second.Match.ID)

	got, err := alice.matching.GetMatch(ctx, &api.MatchRequest{MatchID: second.Match.ID})
	require.NoError(t, err)
	assert.Equal(t, "matched", got.Match.Status)

	outsider := h.as(t, "carol")
	_, err = outsider.matching.GetMatch(ctx, &api.MatchRequest{MatchID: second.Match.ID})
	assertCode(t, err, codes.PermissionDenied, "UNAUTHORIZED")

	// profile reward + match reward
	bal, err := alice.staking.GetBalance(ctx, &api.Empty{})
	require.NoError(t, err)
	assert.Equal(t, "15", bal.Balance.String())

	rs, err := alice.staking.GetRewardState(ctx, &api.Empty{})
	require.NoError(t, err)
	assert.Equal(t, "15", rs.TotalRewards.String())

	un, err := bob.matching.Unmatch(ctx, &api.MatchRequest{MatchID: second.Match.ID})
	require.NoError(t, err)
	assert.True(t, un.Unmatched)

	matches, err := alice.matching.GetMatches(ctx, &api.Empty{})
	require.NoError(t, err)
	assert.Empty(t, matches.Matches)
}

func TestSubscriptionOverGRPC(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	dana := h.as(t, "dana")

	_, err := dana.subscription.Subscribe(ctx, &api.SubscribeRequest{Plan: "premium", Months: 1})
	assertCode(t, err, codes.FailedPrecondition, "INSUFFICIENT_BALANCE")

	_, err = dana.subscription.Subscribe(ctx, &api.SubscribeRequest{Plan: "gold", Months: 1})
	assertCode(t, err, codes.InvalidArgument, "INVALID_TIER")

	require.NoError(t, h.appCtx.Balances.Credit(ctx, "dana", domain.NewAmount(300)))
	st, err := dana.subscription.Subscribe(ctx, &api.SubscribeRequest{Plan: "premium", Months: 1})
	require.NoError(t, err)
	assert.True(t, st.Active)
	assert.Equal(t, "premium", st.EffectivePlan)
	assert.True(t, st.Features.CanSeeWhoLikedYou)

	access, err := dana.subscription.CheckFeatureAccess(ctx, &api.FeatureAccessRequest{Feature: "verifiedBadge"})
	require.NoError(t, err)
	assert.False(t, access.Allowed)

	left, err := dana.matching.GetDailySwipesRemaining(ctx, &api.Empty{})
	require.NoError(t, err)
	assert.Equal(t, int64(200), left.Remaining)

	st, err = dana.subscription.SetAutoRenew(ctx, &api.SetAutoRenewRequest{Enabled: true})
	require.NoError(t, err)
	assert.True(t, st.AutoRenew)

	st, err = dana.subscription.Unsubscribe(ctx, &api.Empty{})
	require.NoError(t, err)
	assert.False(t, st.AutoRenew)
	assert.True(t, st.Active, "access runs until the paid end")

	h.clock.Advance(31 * 24 * time.Hour)
	st, err = dana.subscription.GetSubscriptionState(ctx, &api.Empty{})
	require.NoError(t, err)
	assert.False(t, st.Active)
	assert.Equal(t, "premium", st.Plan)
	assert.Equal(t, "free", st.EffectivePlan)

	_, err = dana.subscription.Renew(ctx, &api.RenewRequest{Months: 1})
	assertCode(t, err, codes.FailedPrecondition, "SUBSCRIPTION_EXPIRED")
}

func TestStakingOverGRPC(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	erin := h.as(t, "erin")
	require.NoError(t, h.appCtx.Balances.Credit(ctx, "erin", domain.NewAmount(10_000)))

	_, err := erin.staking.Stake(ctx, &api.StakeRequest{Amount: domain.NewAmount(10), DurationIndex: 0})
	assertCode(t, err, codes.InvalidArgument, "INVALID_AMOUNT")

	_, err = erin.staking.Stake(ctx, &api.StakeRequest{Amount: domain.NewAmount(500), DurationIndex: 9})
	assertCode(t, err, codes.InvalidArgument, "INVALID_DURATION")

	res, err := erin.staking.Stake(ctx, &api.StakeRequest{Amount: domain.NewAmount(10_000), DurationIndex: 0})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Stake.Index)
	// 10000 * 5% * 30/365, truncated
	assert.Equal(t, "41", res.Stake.Reward.String())

	bal, err := erin.staking.GetBalance(ctx, &api.Empty{})
	require.NoError(t, err)
	assert.Equal(t, "0", bal.Balance.String())

	_, err = erin.staking.Unstake(ctx, &api.UnstakeRequest{StakeIndex: 0})
	assertCode(t, err, codes.FailedPrecondition, "STILL_LOCKED")

	h.clock.Advance(30 * 24 * time.Hour)
	out, err := erin.staking.Unstake(ctx, &api.UnstakeRequest{StakeID: res.Stake.ID})
	require.NoError(t, err)
	assert.Equal(t, "10041", out.Payout.String())

	_, err = erin.staking.Unstake(ctx, &api.UnstakeRequest{StakeIndex: 0})
	assertCode(t, err, codes.FailedPrecondition, "ALREADY_CLAIMED")

	stakes, err := erin.staking.GetStakes(ctx, &api.Empty{})
	require.NoError(t, err)
	require.Len(t, stakes.Stakes, 1)
	assert.True(t, stakes.Stakes[0].Claimed)

	other := h.as(t, "frank")
	_, err = other.staking.Unstake(ctx, &api.UnstakeRequest{StakeID: res.Stake.ID})
	assertCode(t, err, codes.PermissionDenied, "UNAUTHORIZED")
}
