package staking

import (
	"context"
	"time"

	"github.com/oggyb/engagement-engine/internal/api"
	"github.com/oggyb/engagement-engine/internal/app"
	"github.com/oggyb/engagement-engine/internal/auth"
	"github.com/oggyb/engagement-engine/internal/domain"
	svcErr "github.com/oggyb/engagement-engine/internal/errors"
	"github.com/oggyb/engagement-engine/internal/logger"
	core "github.com/oggyb/engagement-engine/internal/staking"
)

// Service implements the Staking gRPC API. It also exposes the caller's
// token balance and reward history, which staking draws from.
type Service struct {
	appCtx *app.AppContext
	ledger *core.Ledger
}

func NewStakingService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx, ledger: appCtx.Staking}
}

var _ api.StakingServer = (*Service)(nil)

// GetStakingConfig is public.
func (s *Service) GetStakingConfig(_ context.Context, _ *api.Empty) (*api.StakingConfig, error) {
	cfg := s.ledger.Config()
	out := &api.StakingConfig{
		MinStake:  cfg.MinStake,
		MaxStake:  cfg.MaxStake,
		Durations: make([]int64, 0, len(cfg.Durations)),
		AprRates:  append([]int64(nil), cfg.AprBps...),
	}
	for _, d := range cfg.Durations {
		out.Durations = append(out.Durations, int64(d))
	}
	return out, nil
}

// Stake escrows req.Amount from the caller for the chosen lock period.
func (s *Service) Stake(ctx context.Context, req *api.StakeRequest) (*api.StakeResponse, error) {
	caller, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx, s.appCtx.Logger)
	log.Debug("Stake called", "user", caller, "amount", req.Amount.String(), "duration_index", req.DurationIndex)

	st, err := s.ledger.Stake(ctx, caller, req.Amount, req.DurationIndex)
	if err != nil {
		log.Info("Stake rejected", "user", caller, "err", err)
		return nil, svcErr.Map(err)
	}
	return &api.StakeResponse{Stake: toAPIStake(st)}, nil
}

// Unstake claims a matured stake by id when given, else by index.
func (s *Service) Unstake(ctx context.Context, req *api.UnstakeRequest) (*api.UnstakeResponse, error) {
	caller, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}

	var payout domain.Amount
	if req.StakeID != "" {
		payout, err = s.ledger.UnstakeByID(ctx, caller, req.StakeID)
	} else {
		payout, err = s.ledger.Unstake(ctx, caller, req.StakeIndex)
	}
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.UnstakeResponse{Payout: payout}, nil
}

func (s *Service) GetStakes(ctx context.Context, _ *api.Empty) (*api.StakesResponse, error) {
	caller, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	stakes, err := s.ledger.Stakes(ctx, caller)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	resp := &api.StakesResponse{Stakes: make([]api.Stake, 0, len(stakes))}
	for _, st := range stakes {
		resp.Stakes = append(resp.Stakes, toAPIStake(st))
	}
	return resp, nil
}

func (s *Service) GetBalance(ctx context.Context, _ *api.Empty) (*api.BalanceResponse, error) {
	caller, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	b, err := s.appCtx.Balances.Balance(ctx, caller)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.BalanceResponse{Balance: b}, nil
}

func (s *Service) GetRewardState(ctx context.Context, _ *api.Empty) (*api.RewardStateResponse, error) {
	caller, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	st, err := s.appCtx.Rewards.State(ctx, caller)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.RewardStateResponse{
		LastRewardTime: nanos(st.LastRewardTime),
		DailyRewards:   st.DailyRewards,
		TotalRewards:   st.TotalRewards,
	}, nil
}

func toAPIStake(st core.Stake) api.Stake {
	return api.Stake{
		ID:            st.ID,
		Index:         st.Index,
		Amount:        st.Amount,
		DurationIndex: st.DurationIndex,
		Duration:      int64(st.Duration),
		AprBps:        st.AprBps,
		StartTime:     nanos(st.StartTime),
		UnlockTime:    nanos(st.UnlockTime),
		Reward:        st.Reward,
		Claimed:       st.Claimed,
		ClaimedAt:     nanos(st.ClaimedAt),
		Payout:        st.Payout,
	}
}

func nanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return domain.Nanos(t)
}
