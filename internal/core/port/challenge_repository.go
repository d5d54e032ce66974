package port

import (
	"context"
	"time"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/domain"
)

// ChallengeRepository persists OTP challenges. Rows are retained after use as
// an audit trail; "deletion" is always a logical invalidation.
type ChallengeRepository interface {
	// Create enforces the issuance limits, invalidates every unused challenge
	// for the challenge's (identifier, purpose) pair, and inserts the new row
	// as one atomic unit. The limit checks run inside the same transaction
	// that inserts, so concurrent creates cannot overshoot the budget.
	// Returns repository.ErrChallengeRateLimited when the hourly budget is
	// spent and *repository.CooldownError while the pair is cooling down.
	Create(ctx context.Context, challenge domain.OtpChallenge, limits domain.ChallengeLimits) error

	// FindLatestValid returns the most recent unused, unexpired challenge for
	// the pair, or repository.ErrNotFound.
	FindLatestValid(ctx context.Context, identifier string, purpose domain.Purpose, now time.Time) (*domain.OtpChallenge, error)

	// IncrementAttempts atomically bumps the attempt counter and returns the
	// new value.
	IncrementAttempts(ctx context.Context, challengeID string) (int, error)

	// MarkUsed consumes the challenge. The write is conditional on the row
	// still being unused; repository.ErrAlreadyUsed means a concurrent
	// validation consumed it first.
	MarkUsed(ctx context.Context, challengeID string) error
}
