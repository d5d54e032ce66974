package repository

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("repository: not found")
	// ErrAlreadyRevoked indicates a conditional revoke matched no active row,
	// i.e. the token was revoked by a concurrent operation.
	ErrAlreadyRevoked = errors.New("repository: token already revoked")
	// ErrAlreadyUsed indicates a conditional consume matched no unused row,
	// i.e. the challenge was consumed by a concurrent validation.
	ErrAlreadyUsed = errors.New("repository: challenge already used")
	// ErrChallengeRateLimited indicates the identifier's hourly challenge
	// budget was exhausted inside the create transaction.
	ErrChallengeRateLimited = errors.New("repository: challenge budget exhausted")
)

// CooldownError reports that the (identifier, purpose) pair is still inside
// its resend cooldown and how long remains of it.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("repository: challenge cooldown active for %s", e.Remaining)
}
