package api

import (
	"context"

	"google.golang.org/grpc"
)

const MatchingServiceName = "engagement.v1.MatchingService"

// MatchingServer handles profiles, discovery, swipes, matches and the
// liked-you inbox. The caller is always the authenticated principal.
type MatchingServer interface {
	PutProfile(context.Context, *PutProfileRequest) (*ProfileResponse, error)
	GetProfile(context.Context, *GetProfileRequest) (*ProfileResponse, error)
	GetPotentialMatches(context.Context, *GetPotentialMatchesRequest) (*GetPotentialMatchesResponse, error)
	Swipe(context.Context, *SwipeRequest) (*SwipeResponse, error)
	GetMatches(context.Context, *Empty) (*GetMatchesResponse, error)
	GetMatch(context.Context, *MatchRequest) (*MatchResponse, error)
	Unmatch(context.Context, *MatchRequest) (*UnmatchResponse, error)
	GetDailySwipesRemaining(context.Context, *Empty) (*SwipesRemainingResponse, error)
	ListLikedYou(context.Context, *ListLikedYouRequest) (*ListLikedYouResponse, error)
	CountLikedYou(context.Context, *Empty) (*CountLikedYouResponse, error)
}

var MatchingServiceDesc = grpc.ServiceDesc{
	ServiceName: MatchingServiceName,
	HandlerType: (*MatchingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MatchingServiceName, "PutProfile", MatchingServer.PutProfile),
		unary(MatchingServiceName, "GetProfile", MatchingServer.GetProfile),
		unary(MatchingServiceName, "GetPotentialMatches", MatchingServer.GetPotentialMatches),
		unary(MatchingServiceName, "Swipe", MatchingServer.Swipe),
		unary(MatchingServiceName, "GetMatches", MatchingServer.GetMatches),
		unary(MatchingServiceName, "GetMatch", MatchingServer.GetMatch),
		unary(MatchingServiceName, "Unmatch", MatchingServer.Unmatch),
		unary(MatchingServiceName, "GetDailySwipesRemaining", MatchingServer.GetDailySwipesRemaining),
		unary(MatchingServiceName, "ListLikedYou", MatchingServer.ListLikedYou),
		unary(MatchingServiceName, "CountLikedYou", MatchingServer.CountLikedYou),
	},
	Metadata: "engagement/v1/matching",
}

func RegisterMatchingServer(s grpc.ServiceRegistrar, srv MatchingServer) {
	s.RegisterService(&MatchingServiceDesc, srv)
}

type MatchingClient struct {
	cc grpc.ClientConnInterface
}

func NewMatchingClient(cc grpc.ClientConnInterface) *MatchingClient {
	return &MatchingClient{cc: cc}
}

func (c *MatchingClient) PutProfile(ctx context.Context, in *PutProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c.cc, FullMethod(MatchingServiceName, "PutProfile"), in, opts)
}

func (c *MatchingClient) GetProfile(ctx context.Context, in *GetProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c.cc, FullMethod(MatchingServiceName, "GetProfile"), in, opts)
}

func (c *MatchingClient) GetPotentialMatches(ctx context.Context, in *GetPotentialMatchesRequest, opts ...grpc.CallOption) (*GetPotentialMatchesResponse, error) {
	return invoke[GetPotentialMatchesResponse](ctx, c.cc, FullMethod(MatchingServiceName, "GetPotentialMatches"), in, opts)
}

func (c *MatchingClient) Swipe(ctx context.Context, in *SwipeRequest, opts ...grpc.CallOption) (*SwipeResponse, error) {
	return invoke[SwipeResponse](ctx, c.cc, FullMethod(MatchingServiceName, "Swipe"), in, opts)
}

func (c *MatchingClient) GetMatches(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*GetMatchesResponse, error) {
	return invoke[GetMatchesResponse](ctx, c.cc, FullMethod(MatchingServiceName, "GetMatches"), in, opts)
}

func (c *MatchingClient) GetMatch(ctx context.Context, in *MatchRequest, opts ...grpc.CallOption) (*MatchResponse, error) {
	return invoke[MatchResponse](ctx, c.cc, FullMethod(MatchingServiceName, "GetMatch"), in, opts)
}

func (c *MatchingClient) Unmatch(ctx context.Context, in *MatchRequest, opts ...grpc.CallOption) (*UnmatchResponse, error) {
	return invoke[UnmatchResponse](ctx, c.cc, FullMethod(MatchingServiceName, "Unmatch"), in, opts)
}

func (c *MatchingClient) GetDailySwipesRemaining(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*SwipesRemainingResponse, error) {
	return invoke[SwipesRemainingResponse](ctx, c.cc, FullMethod(MatchingServiceName, "GetDailySwipesRemaining"), in, opts)
}

func (c *MatchingClient) ListLikedYou(ctx context.Context, in *ListLikedYouRequest, opts ...grpc.CallOption) (*ListLikedYouResponse, error) {
	return invoke[ListLikedYouResponse](ctx, c.cc, FullMethod(MatchingServiceName, "ListLikedYou"), in, opts)
}

func (c *MatchingClient) CountLikedYou(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*CountLikedYouResponse, error) {
	return invoke[CountLikedYouResponse](ctx, c.cc, FullMethod(MatchingServiceName, "CountLikedYou"), in, opts)
}
