package usecase

import (
	"errors"
	"fmt"
	"time"
)

// Policy and security rejections surfaced to the transport layer. Each maps
// to a stable machine-readable code there; internal detail never leaks.
var (
	// ErrInvalidOTP covers wrong, expired, and exhausted codes alike so a
	// caller cannot distinguish them.
	ErrInvalidOTP = errors.New("invalid or expired code")

	// ErrAccountNotFound rejects a login challenge for an unknown identifier.
	ErrAccountNotFound = errors.New("account not found")

	// ErrAccountExists rejects a registration challenge for a known identifier.
	ErrAccountExists = errors.New("account already exists")

	// ErrAccountDeactivated blocks session creation and refresh for inactive accounts.
	ErrAccountDeactivated = errors.New("account deactivated")

	// ErrMissingRegistrationDetails rejects a registration verify without the
	// payload needed to provision the account.
	ErrMissingRegistrationDetails = errors.New("registration details required")

	// ErrSessionNotFound means the presented refresh token matches no row.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired means the token row exists, was never revoked, but its
	// validity window has passed. No protective side effect fires.
	ErrSessionExpired = errors.New("session expired")

	// ErrSessionReplayed means a revoked token was presented again. By the
	// time callers see this the whole chain has already been revoked.
	ErrSessionReplayed = errors.New("revoked session token reused")

	// ErrInvalidAccessToken covers malformed tokens, bad signatures, and
	// issuer or audience mismatches.
	ErrInvalidAccessToken = errors.New("invalid access token")

	// ErrExpiredAccessToken is returned for structurally valid but stale tokens.
	ErrExpiredAccessToken = errors.New("access token expired")

	// ErrDeviceNotFound means no device row exists for the (account, device) pair.
	ErrDeviceNotFound = errors.New("device not found")
)

// RateLimitError rejects a challenge request that exceeded the hourly budget
// for its identifier.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("challenge limit reached, retry after %s", e.RetryAfter)
}

// CooldownError rejects a challenge re-request inside the resend cooldown.
// The previously issued challenge stays valid.
type CooldownError struct {
	RetryAfter time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("challenge recently sent, retry after %s", e.RetryAfter)
}
