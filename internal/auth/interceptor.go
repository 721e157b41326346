package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/oggyb/engagement-engine/internal/domain"
	svcErr "github.com/oggyb/engagement-engine/internal/errors"
	"github.com/oggyb/engagement-engine/internal/logger"
)

type principalKey struct{}

// WithPrincipal stores the authenticated caller in ctx.
func WithPrincipal(ctx context.Context, user domain.UserID) context.Context {
	return context.WithValue(ctx, principalKey{}, user)
}

// Principal returns the authenticated caller.
func Principal(ctx context.Context) (domain.UserID, bool) {
	user, ok := ctx.Value(principalKey{}).(domain.UserID)
	return user, ok && user.Valid()
}

// RequirePrincipal is Principal for handlers behind the interceptor: a
// missing caller is reported as Unauthenticated.
func RequirePrincipal(ctx context.Context) (domain.UserID, error) {
	user, ok := Principal(ctx)
	if !ok {
		return "", svcErr.Unauthenticated("no authenticated caller")
	}
	return user, nil
}

// UnaryServerInterceptor authenticates every call except the methods in
// public (full method names, e.g. "/engagement.v1.StakingService/GetStakingConfig").
func UnaryServerInterceptor(tokens *Tokens, public ...string) grpc.UnaryServerInterceptor {
	open := make(map[string]bool, len(public))
	for _, m := range public {
		open[m] = true
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		raw := bearer(ctx)
		if raw == "" {
			if open[info.FullMethod] {
				return handler(ctx, req)
			}
			return nil, svcErr.Unauthenticated("missing bearer token")
		}
		user, err := tokens.Verify(raw)
		if err != nil {
			return nil, svcErr.Unauthenticated(err.Error())
		}
		ctx = logger.NewContext(ctx, logger.FromContext(ctx, nil).With("principal", string(user)))
		return handler(WithPrincipal(ctx, user), req)
	}
}

func bearer(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, v := range md.Get("authorization") {
		scheme, token, found := strings.Cut(strings.TrimSpace(v), " ")
		if found && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
	}
	return ""
}

// BearerCredentials attaches a token to every outgoing call.
type BearerCredentials struct {
	Token string
	// Insecure allows plaintext transports (local dev, bufconn tests).
	Insecure bool
}

func (c BearerCredentials) GetRequestMetadata(context.Context, ...string) (map[string]string, error) {
	return map[string]string{"authorization": "Bearer " + c.Token}, nil
}

func (c BearerCredentials) RequireTransportSecurity() bool { return !c.Insecure }
