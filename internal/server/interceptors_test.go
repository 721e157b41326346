package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/oggyb/engagement-engine/internal/api"
	"github.com/oggyb/engagement-engine/internal/logger"
	"github.com/oggyb/engagement-engine/internal/server"
)

var info = &grpc.UnaryServerInfo{FullMethod: "/engagement.v1.Test/Call"}

func TestRecoveryInterceptor(t *testing.T) {
	intercept := server.RecoveryInterceptor(logger.Discard())
	_, err := intercept(context.Background(), nil, info, func(context.Context, any) (any, error) {
		panic("boom")
	})
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestValidationInterceptor(t *testing.T) {
	intercept := server.ValidationInterceptor()
	called := false
	handler := func(context.Context, any) (any, error) {
		called = true
		return nil, nil
	}

	_, err := intercept(context.Background(), &api.SwipeRequest{Direction: "like"}, info, handler)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, err.Error(), "TargetUserID is required")
	assert.False(t, called)

	_, err = intercept(context.Background(), &api.SwipeRequest{TargetUserID: "bob", Direction: "pass"}, info, handler)
	require.NoError(t, err)
	assert.True(t, called)
}

func TestLoggingInterceptorKeepsResult(t *testing.T) {
	intercept := server.LoggingInterceptor(logger.Discard())
	boom := status.Error(codes.NotFound, "nope")

	_, err := intercept(context.Background(), nil, info, func(ctx context.Context, _ any) (any, error) {
		assert.NotNil(t, logger.FromContext(ctx, nil))
		return nil, boom
	})
	assert.Equal(t, boom, err)

	resp, err := intercept(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}

func TestAdminRouter(t *testing.T) {
	h := server.NewAdminRouter(map[string]server.Pinger{
		"db":    func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
