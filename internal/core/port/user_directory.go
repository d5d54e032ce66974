package port

import (
	"context"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/domain"
)

// UserDirectory is the narrow interface over the back office's account store.
// Account CRUD beyond these calls belongs to the owning subsystem.
type UserDirectory interface {
	// FindByIdentifier resolves an account by a verified mobile number or
	// email address, or returns repository.ErrNotFound.
	FindByIdentifier(ctx context.Context, identifier string) (*domain.Account, error)

	// FindByID resolves an account by its id, or returns repository.ErrNotFound.
	FindByID(ctx context.Context, accountID string) (*domain.Account, error)

	// Create provisions a new account from validated registration details.
	// The identifier the registrant proved control of arrives separately so
	// the directory can record it as verified.
	Create(ctx context.Context, details domain.RegistrationDetails, identifier string, channel domain.Channel) (*domain.Account, error)

	// MarkVerified flags the channel's identifier as verified on the account.
	MarkVerified(ctx context.Context, accountID string, channel domain.Channel) error

	// SetLastLogin stamps the account's last successful authentication.
	SetLastLogin(ctx context.Context, accountID string) error

	// GetRoles returns the account's role names.
	GetRoles(ctx context.Context, accountID string) ([]string, error)
}
