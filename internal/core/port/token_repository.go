package port

import (
	"context"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/domain"
)

// TokenRepository persists refresh tokens and their rotation chain.
// Rows are append-only; revocation mutates state but never deletes.
type TokenRepository interface {
	// Create inserts a freshly minted refresh token.
	Create(ctx context.Context, token domain.RefreshToken) error

	// GetByHash returns the token row matching the hashed value, in whatever
	// state it is in, or repository.ErrNotFound.
	GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error)

	// Rotate atomically revokes the old token (reason "rotated", replaced_by
	// pointing at the successor's hash) and inserts the successor. Returns
	// repository.ErrAlreadyRevoked when the old token was revoked by a
	// concurrent rotation, so exactly one successor can ever win.
	Rotate(ctx context.Context, oldTokenID string, successor domain.RefreshToken, ip string) error

	// Revoke marks a single token as revoked with the supplied context.
	Revoke(ctx context.Context, tokenID, ip, reason string) error

	// RevokeAllForAccount revokes every currently-active token for the
	// account and returns how many rows changed. Zero is not an error.
	RevokeAllForAccount(ctx context.Context, accountID, ip, reason string) (int, error)
}
