package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oggyb/engagement-engine/internal/auth"
	"github.com/oggyb/engagement-engine/internal/config"
	"github.com/oggyb/engagement-engine/internal/domain"
)

func newTokens(secret string) *auth.Tokens {
	cfg := config.New()
	cfg.Auth.JWTSecret = secret
	cfg.Auth.Issuer = "identity"
	cfg.Auth.TokenTTL = time.Hour
	return auth.NewTokens(cfg)
}

func TestIssueVerify(t *testing.T) {
	tokens := newTokens("s3cret")
	raw, err := tokens.Issue("alice")
	require.NoError(t, err)

	user, err := tokens.Verify(raw)
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("alice"), user)

	_, err = newTokens("other").Verify(raw)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = tokens.Verify("not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestInterceptor(t *testing.T) {
	tokens := newTokens("s3cret")
	raw, err := tokens.Issue("bob")
	require.NoError(t, err)

	intercept := auth.UnaryServerInterceptor(tokens, "/svc/Public")
	handler := func(ctx context.Context, _ any) (any, error) {
		user, _ := auth.Principal(ctx)
		return user, nil
	}
	call := func(ctx context.Context, method string) (any, error) {
		return intercept(ctx, nil, &grpc.UnaryServerInfo{FullMethod: method}, handler)
	}

	withToken := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+raw))
	got, err := call(withToken, "/svc/Private")
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("bob"), got)

	_, err = call(context.Background(), "/svc/Private")
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	got, err = call(context.Background(), "/svc/Public")
	require.NoError(t, err)
	assert.Equal(t, domain.UserID(""), got)

	bad := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer junk"))
	_, err = call(bad, "/svc/Public")
	assert.Equal(t, codes.Unauthenticated, status.Code(err), "a bad token is rejected even on public methods")
}

func TestRequirePrincipal(t *testing.T) {
	_, err := auth.RequirePrincipal(context.Background())
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	user, err := auth.RequirePrincipal(auth.WithPrincipal(context.Background(), "carol"))
	require.NoError(t, err)
	assert.Equal(t, domain.UserID("carol"), user)
}
