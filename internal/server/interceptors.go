package server

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"

	svcErr "github.com/oggyb/engagement-engine/internal/errors"
	"github.com/oggyb/engagement-engine/internal/logger"
	"github.com/oggyb/engagement-engine/internal/metrics"
	"github.com/oggyb/engagement-engine/internal/utils/validation"
)

// RequestIDKey is the metadata key carrying the request id both ways.
const RequestIDKey = "x-request-id"

// RecoveryInterceptor turns a handler panic into codes.Internal.
func RecoveryInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.FromContext(ctx, log).Error("panic in handler",
					"method", info.FullMethod, "panic", r, "stack", string(debug.Stack()))
				err = status.Error(codes.Internal, "internal error")
			}
		}()
		return handler(ctx, req)
	}
}

// LoggingInterceptor tags the call with a request id, stores a scoped
// logger in ctx and records request metrics.
func LoggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		id := requestID(ctx)
		_ = grpc.SetHeader(ctx, metadata.Pairs(RequestIDKey, id))

		reqLog := log.With("request_id", id, "method", info.FullMethod)
		resp, err := handler(logger.NewContext(ctx, reqLog), req)

		code := status.Code(err)
		metrics.RPCRequestsTotal.WithLabelValues(info.FullMethod, code.String()).Inc()
		metrics.RPCDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())

		switch code {
		case codes.OK:
			reqLog.Debug("rpc done", logger.Elapsed(start))
		case codes.Internal, codes.Unknown:
			reqLog.Error("rpc failed", "code", code.String(), "err", err, logger.Elapsed(start))
		default:
			reqLog.Info("rpc rejected", "code", code.String(), "reason", svcErr.Reason(err), logger.Elapsed(start))
		}
		return resp, err
	}
}

// ValidationInterceptor checks request structs against their validate tags.
// Protobuf messages (health, reflection) pass through untouched.
func ValidationInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if _, ok := req.(proto.Message); !ok && req != nil {
			if err := validation.Struct(req); err != nil {
				return nil, svcErr.InvalidArgument(err.Error())
			}
		}
		return handler(ctx, req)
	}
}

func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(RequestIDKey); len(v) > 0 && v[0] != "" {
			return v[0]
		}
	}
	return uuid.NewString()
}
