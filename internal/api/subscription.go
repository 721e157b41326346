package api

import (
	"context"

	"google.golang.org/grpc"
)

const SubscriptionServiceName = "engagement.v1.SubscriptionService"

type SubscriptionServer interface {
	GetAvailablePlans(context.Context, *Empty) (*PlansResponse, error)
	GetSubscriptionState(context.Context, *Empty) (*SubscriptionState, error)
	Subscribe(context.Context, *SubscribeRequest) (*SubscriptionState, error)
	Unsubscribe(context.Context, *Empty) (*SubscriptionState, error)
	Renew(context.Context, *RenewRequest) (*SubscriptionState, error)
	SetAutoRenew(context.Context, *SetAutoRenewRequest) (*SubscriptionState, error)
	CheckFeatureAccess(context.Context, *FeatureAccessRequest) (*FeatureAccessResponse, error)
	GetFeatures(context.Context, *Empty) (*FeatureSet, error)
}

var SubscriptionServiceDesc = grpc.ServiceDesc{
	ServiceName: SubscriptionServiceName,
	HandlerType: (*SubscriptionServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(SubscriptionServiceName, "GetAvailablePlans", SubscriptionServer.GetAvailablePlans),
		unary(SubscriptionServiceName, "GetSubscriptionState", SubscriptionServer.GetSubscriptionState),
		unary(SubscriptionServiceName, "Subscribe", SubscriptionServer.Subscribe),
		unary(SubscriptionServiceName, "Unsubscribe", SubscriptionServer.Unsubscribe),
		unary(SubscriptionServiceName, "Renew", SubscriptionServer.Renew),
		unary(SubscriptionServiceName, "SetAutoRenew", SubscriptionServer.SetAutoRenew),
		unary(SubscriptionServiceName, "CheckFeatureAccess", SubscriptionServer.CheckFeatureAccess),
		unary(SubscriptionServiceName, "GetFeatures", SubscriptionServer.GetFeatures),
	},
	Metadata: "engagement/v1/subscription",
}

func RegisterSubscriptionServer(s grpc.ServiceRegistrar, srv SubscriptionServer) {
	s.RegisterService(&SubscriptionServiceDesc, srv)
}

type SubscriptionClient struct {
	cc grpc.ClientConnInterface
}

func NewSubscriptionClient(cc grpc.ClientConnInterface) *SubscriptionClient {
	return &SubscriptionClient{cc: cc}
}

func (c *SubscriptionClient) GetAvailablePlans(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*PlansResponse, error) {
	return invoke[PlansResponse](ctx, c.cc, FullMethod(SubscriptionServiceName, "GetAvailablePlans"), in, opts)
}

func (c *SubscriptionClient) GetSubscriptionState(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*SubscriptionState, error) {
	return invoke[SubscriptionState](ctx, c.cc, FullMethod(SubscriptionServiceName, "GetSubscriptionState"), in, opts)
}

func (c *SubscriptionClient) Subscribe(ctx context.Context, in *SubscribeRequest, opts ...grpc.CallOption) (*SubscriptionState, error) {
	return invoke[SubscriptionState](ctx, c.cc, FullMethod(SubscriptionServiceName, "Subscribe"), in, opts)
}

func (c *SubscriptionClient) Unsubscribe(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*SubscriptionState, error) {
	return invoke[SubscriptionState](ctx, c.cc, FullMethod(SubscriptionServiceName, "Unsubscribe"), in, opts)
}

func (c *SubscriptionClient) Renew(ctx context.Context, in *RenewRequest, opts ...grpc.CallOption) (*SubscriptionState, error) {
	return invoke[SubscriptionState](ctx, c.cc, FullMethod(SubscriptionServiceName, "Renew"), in, opts)
}

func (c *SubscriptionClient) SetAutoRenew(ctx context.Context, in *SetAutoRenewRequest, opts ...grpc.CallOption) (*SubscriptionState, error) {
	return invoke[SubscriptionState](ctx, c.cc, FullMethod(SubscriptionServiceName, "SetAutoRenew"), in, opts)
}

func (c *SubscriptionClient) CheckFeatureAccess(ctx context.Context, in *FeatureAccessRequest, opts ...grpc.CallOption) (*FeatureAccessResponse, error) {
	return invoke[FeatureAccessResponse](ctx, c.cc, FullMethod(SubscriptionServiceName, "CheckFeatureAccess"), in, opts)
}

func (c *SubscriptionClient) GetFeatures(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*FeatureSet, error) {
	return invoke[FeatureSet](ctx, c.cc, FullMethod(SubscriptionServiceName, "GetFeatures"), in, opts)
}
