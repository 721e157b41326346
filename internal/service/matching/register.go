package matching

import (
	"google.golang.org/grpc"

	"github.com/oggyb/engagement-engine/internal/api"
	"github.com/oggyb/engagement-engine/internal/app"
)

// Registrar ties the Matching service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the Matching service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	api.RegisterMatchingServer(s, NewMatchingService(r.appCtx))
}

// PublicMethods need no bearer token.
func (r *Registrar) PublicMethods() []string { return nil }
