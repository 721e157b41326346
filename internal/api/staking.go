package api

import (
	"context"

	"google.golang.org/grpc"
)

const StakingServiceName = "engagement.v1.StakingService"

type StakingServer interface {
	GetStakingConfig(context.Context, *Empty) (*StakingConfig, error)
	Stake(context.Context, *StakeRequest) (*StakeResponse, error)
	Unstake(context.Context, *UnstakeRequest) (*UnstakeResponse, error)
	GetStakes(context.Context, *Empty) (*StakesResponse, error)
	GetBalance(context.Context, *Empty) (*BalanceResponse, error)
	GetRewardState(context.Context, *Empty) (*RewardStateResponse, error)
}

var StakingServiceDesc = grpc.ServiceDesc{
	ServiceName: StakingServiceName,
	HandlerType: (*StakingServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(StakingServiceName, "GetStakingConfig", StakingServer.GetStakingConfig),
		unary(StakingServiceName, "Stake", StakingServer.Stake),
		unary(StakingServiceName, "Unstake", StakingServer.Unstake),
		unary(StakingServiceName, "GetStakes", StakingServer.GetStakes),
		unary(StakingServiceName, "GetBalance", StakingServer.GetBalance),
		unary(StakingServiceName, "GetRewardState", StakingServer.GetRewardState),
	},
	Metadata: "engagement/v1/staking",
}

func RegisterStakingServer(s grpc.ServiceRegistrar, srv StakingServer) {
	s.RegisterService(&StakingServiceDesc, srv)
}

type StakingClient struct {
	cc grpc.ClientConnInterface
}

func NewStakingClient(cc grpc.ClientConnInterface) *StakingClient {
	return &StakingClient{cc: cc}
}

func (c *StakingClient) GetStakingConfig(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*StakingConfig, error) {
	return invoke[StakingConfig](ctx, c.cc, FullMethod(StakingServiceName, "GetStakingConfig"), in, opts)
}

func (c *StakingClient) Stake(ctx context.Context, in *StakeRequest, opts ...grpc.CallOption) (*StakeResponse, error) {
	return invoke[StakeResponse](ctx, c.cc, FullMethod(StakingServiceName, "Stake"), in, opts)
}

func (c *StakingClient) Unstake(ctx context.Context, in *UnstakeRequest, opts ...grpc.CallOption) (*UnstakeResponse, error) {
	return invoke[UnstakeResponse](ctx, c.cc, FullMethod(StakingServiceName, "Unstake"), in, opts)
}

func (c *StakingClient) GetStakes(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*StakesResponse, error) {
	return invoke[StakesResponse](ctx, c.cc, FullMethod(StakingServiceName, "GetStakes"), in, opts)
}

func (c *StakingClient) GetBalance(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*BalanceResponse, error) {
	return invoke[BalanceResponse](ctx, c.cc, FullMethod(StakingServiceName, "GetBalance"), in, opts)
}

func (c *StakingClient) GetRewardState(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*RewardStateResponse, error) {
	return invoke[RewardStateResponse](ctx, c.cc, FullMethod(StakingServiceName, "GetRewardState"), in, opts)
}
