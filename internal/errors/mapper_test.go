package errors_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"

	"github.com/oggyb/engagement-engine/internal/domain"
	svcErr "github.com/oggyb/engagement-engine/internal/errors"
	"github.com/oggyb/engagement-engine/internal/utils/pagination"
)

func TestMapDomainErrors(t *testing.T) {
	cases := []struct {
		err    error
		code   codes.Code
		reason string
	}{
		{domain.ErrQuotaExceeded, codes.ResourceExhausted, "QUOTA_EXCEEDED"},
		{domain.ErrInvalidTarget, codes.InvalidArgument, "INVALID_TARGET"},
		{domain.ErrInvalidTier, codes.InvalidArgument, "INVALID_TIER"},
		{domain.ErrNotFound, codes.NotFound, "NOT_FOUND"},
		{domain.ErrUnauthorized, codes.PermissionDenied, "UNAUTHORIZED"},
		{domain.ErrStillLocked, codes.FailedPrecondition, "STILL_LOCKED"},
		{domain.ErrInsufficientBalance, codes.FailedPrecondition, "INSUFFICIENT_BALANCE"},
		{pagination.ErrInvalidToken, codes.InvalidArgument, "INVALID_PAGE_TOKEN"},
		{gorm.ErrRecordNotFound, codes.NotFound, "NOT_FOUND"},
	}
	for _, tc := range cases {
		t.Run(tc.reason, func(t *testing.T) {
			err := svcErr.Map(fmt.Errorf("doing thing: %w", tc.err))
			assert.Equal(t, tc.code, status.Code(err))
			assert.Equal(t, tc.reason, svcErr.Reason(err))
		})
	}
}

func TestMapInfraErrors(t *testing.T) {
	assert.Nil(t, svcErr.Map(nil))
	assert.Equal(t, codes.DeadlineExceeded, status.Code(svcErr.Map(context.DeadlineExceeded)))
	assert.Equal(t, codes.Canceled, status.Code(svcErr.Map(context.Canceled)))

	err := svcErr.Map(errors.New("dial tcp 10.0.0.1:3306: connection refused"))
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.NotContains(t, err.Error(), "10.0.0.1")
	assert.Empty(t, svcErr.Reason(err))
}

func TestMapKeepsStatusErrors(t *testing.T) {
	in := status.Error(codes.Unavailable, "try later")
	assert.Equal(t, in, svcErr.Map(in))
}
