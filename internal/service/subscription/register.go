package subscription

import (
	"google.golang.org/grpc"

	"github.com/oggyb/engagement-engine/internal/api"
	"github.com/oggyb/engagement-engine/internal/app"
)

// Registrar ties the Subscription service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

func (r *Registrar) Register(s *grpc.Server) {
	api.RegisterSubscriptionServer(s, NewSubscriptionService(r.appCtx))
}

// PublicMethods need no bearer token.
func (r *Registrar) PublicMethods() []string {
	return []string{api.FullMethod(api.SubscriptionServiceName, "GetAvailablePlans")}
}
