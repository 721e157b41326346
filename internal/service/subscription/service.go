package subscription

import (
	"context"

	"github.com/oggyb/engagement-engine/internal/api"
	"github.com/oggyb/engagement-engine/internal/app"
	"github.com/oggyb/engagement-engine/internal/auth"
	"github.com/oggyb/engagement-engine/internal/domain"
	"github.com/oggyb/engagement-engine/internal/entitlement"
	svcErr "github.com/oggyb/engagement-engine/internal/errors"
	"github.com/oggyb/engagement-engine/internal/logger"
)

// Service implements the Subscription gRPC API: plans, purchases and
// feature checks, all resolved against the caller's stored subscription.
type Service struct {
	appCtx   *app.AppContext
	resolver *entitlement.Resolver
}

func NewSubscriptionService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx, resolver: appCtx.Entitlements}
}

var _ api.SubscriptionServer = (*Service)(nil)

// GetAvailablePlans is public.
func (s *Service) GetAvailablePlans(_ context.Context, _ *api.Empty) (*api.PlansResponse, error) {
	plans := s.resolver.Plans()
	resp := &api.PlansResponse{Plans: make([]api.Plan, 0, len(plans))}
	for _, p := range plans {
		resp.Plans = append(resp.Plans, api.Plan{
			ID:               p.ID,
			Name:             p.Name,
			Price:            p.Price,
			Features:         p.Description,
			Limits:           toAPIFeatures(p.Features),
			MaxSwipes:        p.MaxSwipes,
			PriorityMatching: p.PriorityMatching,
		})
	}
	return resp, nil
}

func (s *Service) GetSubscriptionState(ctx context.Context, _ *api.Empty) (*api.SubscriptionState, error) {
	caller, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	state, err := s.resolver.State(ctx, caller)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return toAPIState(state), nil
}

// Subscribe buys req.Months of req.Plan, charged from the caller's balance.
func (s *Service) Subscribe(ctx context.Context, req *api.SubscribeRequest) (*api.SubscriptionState, error) {
	caller, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	tier, err := entitlement.ParseTier(req.Plan)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	log := logger.FromContext(ctx, s.appCtx.Logger)
	log.Debug("Subscribe called", "user", caller, "plan", tier.String(), "months", req.Months)

	if _, err := s.resolver.Subscribe(ctx, caller, tier, req.Months); err != nil {
		log.Info("Subscribe rejected", "user", caller, "plan", tier.String(), "err", err)
		return nil, svcErr.Map(err)
	}
	return s.current(ctx, caller)
}

// Unsubscribe stops auto-renewal; access lasts until the paid end date.
func (s *Service) Unsubscribe(ctx context.Context, _ *api.Empty) (*api.SubscriptionState, error) {
	caller, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolver.Unsubscribe(ctx, caller); err != nil {
		return nil, svcErr.Map(err)
	}
	return s.current(ctx, caller)
}

func (s *Service) Renew(ctx context.Context, req *api.RenewRequest) (*api.SubscriptionState, error) {
	caller, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolver.Renew(ctx, caller, req.Months); err != nil {
		return nil, svcErr.Map(err)
	}
	return s.current(ctx, caller)
}

func (s *Service) SetAutoRenew(ctx context.Context, req *api.SetAutoRenewRequest) (*api.SubscriptionState, error) {
	caller, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.resolver.SetAutoRenew(ctx, caller, req.Enabled); err != nil {
		return nil, svcErr.Map(err)
	}
	return s.current(ctx, caller)
}

// CheckFeatureAccess answers false for unknown feature names.
func (s *Service) CheckFeatureAccess(ctx context.Context, req *api.FeatureAccessRequest) (*api.FeatureAccessResponse, error) {
	caller, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	ok, err := s.resolver.CheckFeatureAccess(ctx, caller, req.Feature)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.FeatureAccessResponse{Allowed: ok}, nil
}

func (s *Service) GetFeatures(ctx context.Context, _ *api.Empty) (*api.FeatureSet, error) {
	caller, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	fs, err := s.resolver.Features(ctx, caller)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	out := toAPIFeatures(fs)
	return &out, nil
}

func (s *Service) current(ctx context.Context, user domain.UserID) (*api.SubscriptionState, error) {
	state, err := s.resolver.State(ctx, user)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return toAPIState(state), nil
}

func toAPIState(st entitlement.State) *api.SubscriptionState {
	out := &api.SubscriptionState{
		Active:        st.Active,
		Plan:          st.Tier.String(),
		EffectivePlan: st.Effective.String(),
		AutoRenew:     st.AutoRenew,
		Features:      toAPIFeatures(entitlement.FeatureSetFor(st.Effective)),
	}
	if !st.Start.IsZero() {
		out.StartDate = domain.Nanos(st.Start)
		out.EndDate = domain.Nanos(st.End)
	}
	return out
}

func toAPIFeatures(f entitlement.FeatureSet) api.FeatureSet {
	return api.FeatureSet{
		MaxSwipesPerDay:   f.MaxSwipesPerDay,
		MaxMessagesPerDay: f.MaxMessagesPerDay,
		CanSeeWhoLikedYou: f.CanSeeWhoLikedYou,
		PriorityMatching:  f.PriorityMatching,
		ProfileBoosts:     f.ProfileBoosts,
		HideAds:           f.HideAds,
		VerifiedBadge:     f.VerifiedBadge,
		CustomTheme:       f.CustomTheme,
	}
}
