package matching

import (
	"context"
	"strings"
	"time"

	"github.com/oggyb/engagement-engine/internal/api"
	"github.com/oggyb/engagement-engine/internal/app"
	"github.com/oggyb/engagement-engine/internal/auth"
	"github.com/oggyb/engagement-engine/internal/domain"
	svcErr "github.com/oggyb/engagement-engine/internal/errors"
	"github.com/oggyb/engagement-engine/internal/logger"
	core "github.com/oggyb/engagement-engine/internal/matching"
)

// Service implements the Matching gRPC API on top of the matching engine.
// Every method acts on behalf of the authenticated caller.
type Service struct {
	appCtx *app.AppContext
	engine *core.Engine
}

func NewMatchingService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx, engine: appCtx.Matching}
}

var _ api.MatchingServer = (*Service)(nil)

// PutProfile creates or supersedes the caller's profile. The user id in the
// payload is ignored.
func (s *Service) PutProfile(ctx context.Context, req *api.PutProfileRequest) (*api.ProfileResponse, error) {
	caller, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	if p := req.Profile.Preferences; p.MaxAge != 0 && p.MinAge > p.MaxAge {
		return nil, svcErr.InvalidArgument("preferences.minAge must not exceed preferences.maxAge")
	}

	saved, err := s.engine.PutProfile(ctx, fromAPIProfile(caller, req.Profile))
	if err != nil {
		logger.FromContext(ctx, s.appCtx.Logger).Error("PutProfile failed", "user", caller, "err", err)
		return nil, svcErr.Map(err)
	}
	return &api.ProfileResponse{Profile: toAPIProfile(saved, 0)}, nil
}

// GetProfile returns the profile of req.UserID, or of the caller when empty.
func (s *Service) GetProfile(ctx context.Context, req *api.GetProfileRequest) (*api.ProfileResponse, error) {
	caller, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	user := caller
	if id := strings.TrimSpace(req.UserID); id != "" {
		user = domain.UserID(id)
	}

	p, err := s.engine.GetProfile(ctx, user)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.ProfileResponse{Profile: toAPIProfile(p, 0)}, nil
}

// GetPotentialMatches lists profiles the caller may swipe next.
func (s *Service) GetPotentialMatches(ctx context.Context, req *api.GetPotentialMatchesRequest) (*api.GetPotentialMatchesResponse, error) {
	caller, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	log := logger.FromContext(ctx, s.appCtx.Logger)
	log.Debug("GetPotentialMatches called", "user", caller, "prioritized", req.Prioritized, "limit", req.Limit)

	candidates, err := s.engine.PotentialMatches(ctx, caller, req.Prioritized, req.Limit)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	resp := &api.GetPotentialMatchesResponse{Profiles: make([]api.Profile, 0, len(candidates))}
	for _, c := range candidates {
		resp.Profiles = append(resp.Profiles, toAPIProfile(c.Profile, c.DistanceKm))
	}
	log.Debug("GetPotentialMatches result", "user", caller, "count", len(resp.Profiles))
	return resp, nil
}

// Swipe records a like or pass by the caller on req.TargetUserID.
func (s *Service) Swipe(ctx context.Context, req *api.SwipeRequest) (*api.SwipeResponse, error) {
	caller, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	var dir core.Direction
	switch strings.ToLower(req.Direction) {
	case "like":
		dir = core.Like
	case "pass":
		dir = core.Pass
	default:
		return nil, svcErr.InvalidArgument("direction must be like or pass")
	}

	log := logger.FromContext(ctx, s.appCtx.Logger)
	log.Debug("Swipe called", "actor", caller, "target", req.TargetUserID, "direction", dir.String())

	res, err := s.engine.Swipe(ctx, caller, domain.UserID(req.TargetUserID), dir)
	if err != nil {
		log.Debug("Swipe rejected", "actor", caller, "target", req.TargetUserID, "err", err)
		return nil, svcErr.Map(err)
	}

	resp := &api.SwipeResponse{NewMatch: res.NewMatch, Remaining: res.Remaining}
	if res.Match != nil {
		m := toAPIMatch(*res.Match)
		resp.Matched = true
		resp.Match = &m
	}
	return resp, nil
}

// GetMatches lists the caller's live matches.
func (s *Service) GetMatches(ctx context.Context, _ *api.Empty) (*api.GetMatchesResponse, error) {
	caller, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	matches, err := s.engine.Matches(ctx, caller)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	resp := &api.GetMatchesResponse{Matches: make([]api.Match, 0, len(matches))}
	for _, m := range matches {
		resp.Matches = append(resp.Matches, toAPIMatch(m))
	}
	return resp, nil
}

func (s *Service) GetMatch(ctx context.Context, req *api.MatchRequest) (*api.MatchResponse, error) {
	caller, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	m, err := s.engine.Match(ctx, caller, req.MatchID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.MatchResponse{Match: toAPIMatch(m)}, nil
}

// Unmatch dissolves a match the caller takes part in.
func (s *Service) Unmatch(ctx context.Context, req *api.MatchRequest) (*api.UnmatchResponse, error) {
	caller, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	changed, err := s.engine.Unmatch(ctx, caller, req.MatchID)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.UnmatchResponse{Unmatched: changed}, nil
}

func (s *Service) GetDailySwipesRemaining(ctx context.Context, _ *api.Empty) (*api.SwipesRemainingResponse, error) {
	caller, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.engine.RemainingSwipes(ctx, caller)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.SwipesRemainingResponse{Remaining: n}, nil
}

// ListLikedYou pages through users who like the caller. Needs a tier that
// can see who liked you.
func (s *Service) ListLikedYou(ctx context.Context, req *api.ListLikedYouRequest) (*api.ListLikedYouResponse, error) {
	caller, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	logger.FromContext(ctx, s.appCtx.Logger).Debug("ListLikedYou called",
		"recipient", caller, "new_only", req.NewOnly, "token", req.PaginationToken)

	likers, next, err := s.engine.LikedYou(ctx, caller, req.NewOnly, req.PaginationToken, req.Limit)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	resp := &api.ListLikedYouResponse{Likers: make([]api.Liker, 0, len(likers)), NextPaginationToken: next}
	for _, l := range likers {
		resp.Likers = append(resp.Likers, api.Liker{ActorID: string(l.User), LikedAt: domain.Nanos(l.LikedAt)})
	}
	return resp, nil
}

func (s *Service) CountLikedYou(ctx context.Context, _ *api.Empty) (*api.CountLikedYouResponse, error) {
	caller, err := auth.RequirePrincipal(ctx)
	if err != nil {
		return nil, err
	}
	n, err := s.engine.CountLikedYou(ctx, caller)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return &api.CountLikedYouResponse{Count: n}, nil
}

func fromAPIProfile(owner domain.UserID, p api.Profile) core.Profile {
	return core.Profile{
		User:      owner,
		Name:      strings.TrimSpace(p.Name),
		Age:       p.Age,
		Gender:    p.Gender,
		Bio:       p.Bio,
		Photos:    p.Photos,
		Interests: p.Interests,
		Location: core.Location{
			City:      p.Location.City,
			Latitude:  p.Location.Latitude,
			Longitude: p.Location.Longitude,
		},
		Preferences: core.Preferences{
			MinAge:        p.Preferences.MinAge,
			MaxAge:        p.Preferences.MaxAge,
			Gender:        p.Preferences.Gender,
			MaxDistanceKm: p.Preferences.MaxDistanceKm,
		},
		Verified: p.Verified,
	}
}

func toAPIProfile(p core.Profile, distanceKm float64) api.Profile {
	return api.Profile{
		UserID:    string(p.User),
		Name:      p.Name,
		Age:       p.Age,
		Gender:    p.Gender,
		Bio:       p.Bio,
		Photos:    p.Photos,
		Interests: p.Interests,
		Location: api.Location{
			City:      p.Location.City,
			Latitude:  p.Location.Latitude,
			Longitude: p.Location.Longitude,
		},
		Preferences: api.Preferences{
			MinAge:        p.Preferences.MinAge,
			MaxAge:        p.Preferences.MaxAge,
			Gender:        p.Preferences.Gender,
			MaxDistanceKm: p.Preferences.MaxDistanceKm,
		},
		Verified:   p.Verified,
		LastActive: nanos(p.LastActive),
		DistanceKm: distanceKm,
	}
}

func toAPIMatch(m core.Match) api.Match {
	return api.Match{
		ID:          m.ID,
		User1:       string(m.User1),
		User2:       string(m.User2),
		ChatID:      m.ChatID,
		Status:      string(m.Status),
		CreatedAt:   nanos(m.CreatedAt),
		UnmatchedAt: nanos(m.UnmatchedAt),
		UnmatchedBy: string(m.UnmatchedBy),
	}
}

// nanos keeps unset times at 0 instead of the year-1 nanosecond count.
func nanos(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return domain.Nanos(t)
}
