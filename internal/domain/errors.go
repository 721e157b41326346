package domain

import "errors"

// Error taxonomy shared by every engine. Callers match with errors.Is.
var (
	ErrQuotaExceeded       = errors.New("daily swipe quota exceeded")
	ErrInvalidTarget       = errors.New("invalid swipe target")
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrAlreadyClaimed      = errors.New("stake already claimed")
	ErrStillLocked         = errors.New("stake is still locked")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidDuration     = errors.New("invalid duration")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidTier         = errors.New("invalid subscription tier")

	// ErrSubscriptionExpired is diagnostic only: entitlement checks treat an
	// expired subscription as Free, never as a failure.
	ErrSubscriptionExpired = errors.New("subscription expired")
)
