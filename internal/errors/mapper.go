// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"github.com/oggyb/engagement-engine/internal/domain"
	"github.com/oggyb/engagement-engine/internal/utils/pagination"
)

// Domain is the ErrorInfo domain attached to every mapped domain error.
const Domain = "engagement-engine"

type mapping struct {
	target error
	code   codes.Code
	reason string
}

// Order matters only for errors wrapping more than one sentinel.
var mappings = []mapping{
	{domain.ErrQuotaExceeded, codes.ResourceExhausted, "QUOTA_EXCEEDED"},
	{domain.ErrInvalidTarget, codes.InvalidArgument, "INVALID_TARGET"},
	{domain.ErrInvalidAmount, codes.InvalidArgument, "INVALID_AMOUNT"},
	{domain.ErrInvalidDuration, codes.InvalidArgument, "INVALID_DURATION"},
	{domain.ErrInvalidTier, codes.InvalidArgument, "INVALID_TIER"},
	{domain.ErrNotFound, codes.NotFound, "NOT_FOUND"},
	{domain.ErrUnauthorized, codes.PermissionDenied, "UNAUTHORIZED"},
	{domain.ErrAlreadyClaimed, codes.FailedPrecondition, "ALREADY_CLAIMED"},
	{domain.ErrStillLocked, codes.FailedPrecondition, "STILL_LOCKED"},
	{domain.ErrInsufficientBalance, codes.FailedPrecondition, "INSUFFICIENT_BALANCE"},
	{domain.ErrSubscriptionExpired, codes.FailedPrecondition, "SUBSCRIPTION_EXPIRED"},
	{pagination.ErrInvalidToken, codes.InvalidArgument, "INVALID_PAGE_TOKEN"},
}

// Map converts domain/repo/infra errors into gRPC-friendly status errors.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return withReason(m.code, m.reason, err.Error())
		}
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return withReason(codes.NotFound, "NOT_FOUND", "record not found")

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		// infra details stay in the server log
		return status.Error(codes.Internal, "internal error")
	}
}

// Reason extracts the ErrorInfo reason of a mapped status error, "" if none.
func Reason(err error) string {
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	for _, d := range st.Details() {
		if info, ok := d.(*errdetails.ErrorInfo); ok {
			return info.GetReason()
		}
	}
	return ""
}

// InvalidArgument creates a gRPC InvalidArgument error.
// Use this in service layer for bad input validation.
func InvalidArgument(msg string) error {
	return withReason(codes.InvalidArgument, "INVALID_ARGUMENT", msg)
}

// Unauthenticated is returned when no valid bearer token was presented.
func Unauthenticated(msg string) error {
	return status.Error(codes.Unauthenticated, msg)
}

func withReason(code codes.Code, reason, msg string) error {
	st := status.New(code, msg)
	detailed, err := st.WithDetails(&errdetails.ErrorInfo{Reason: reason, Domain: Domain})
	if err != nil {
		return st.Err()
	}
	return detailed.Err()
}
