package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/engagement-engine/internal/auth"
	"github.com/oggyb/engagement-engine/internal/config"
)

var healthMethods = []string{
	"/grpc.health.v1.Health/Check",
	"/grpc.health.v1.Health/List",
}

// GRPCServer hosts the engine's gRPC API and its health service.
type GRPCServer struct {
	grpc   *grpc.Server
	health *health.Server
	logger *slog.Logger
}

// NewGRPCServer builds the server, installs the interceptor chain and
// registers every service.
//
// Chain order: recovery, logging/metrics, auth, validation.
func NewGRPCServer(tokens *auth.Tokens, log *slog.Logger, registrars ...Registrar) *GRPCServer {
	public := append([]string(nil), healthMethods...)
	for _, r := range registrars {
		public = append(public, r.PublicMethods()...)
	}

	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		RecoveryInterceptor(log),
		LoggingInterceptor(log),
		auth.UnaryServerInterceptor(tokens, public...),
		ValidationInterceptor(),
	))

	// register all services
	for _, r := range registrars {
		r.Register(srv)
	}

	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	for name := range srv.GetServiceInfo() {
		hs.SetServingStatus(name, healthpb.HealthCheckResponse_SERVING)
	}
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	// Reflection lists every service, but only health and reflection can be
	// described: the engagement services have no generated descriptors. Use
	// api/engagement/v1/engagement.proto for their schema.
	reflection.Register(srv)

	return &GRPCServer{grpc: srv, health: hs, logger: log}
}

// Server exposes the underlying grpc.Server (tests serve it on bufconn).
func (s *GRPCServer) Server() *grpc.Server { return s.grpc }

// Serve accepts on lis until ctx is cancelled, then drains in-flight calls.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	s.logger.Info("gRPC server listening", "addr", lis.Addr().String())

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpc.Serve(lis)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.grpc.GracefulStop()
		return ignoreStopped(<-serveErr)
	case err := <-serveErr:
		return ignoreStopped(err)
	}
}

// StartGRPCServer listens on the configured address and serves until ctx ends.
func StartGRPCServer(ctx context.Context, cfg *config.Config, s *GRPCServer) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, lis)
}

func ignoreStopped(err error) error {
	if err == nil || errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return fmt.Errorf("serve gRPC: %w", err)
}
