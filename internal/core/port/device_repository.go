package port

import (
	"context"
	"time"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/domain"
)

// DeviceRepository persists per-account device records.
type DeviceRepository interface {
	// Get returns the device keyed by (accountID, deviceID) or
	// repository.ErrNotFound.
	Get(ctx context.Context, accountID, deviceID string) (*domain.Device, error)

	// Create inserts a new device row.
	Create(ctx context.Context, device domain.Device) error

	// Touch refreshes last-used-at, the sliding expiry, the last seen IP, and
	// reactivates the row.
	Touch(ctx context.Context, accountID, deviceID string, ip *string, lastUsedAt, expiresAt time.Time) error

	// SetTrusted flags the device as trusted. Idempotent.
	SetTrusted(ctx context.Context, accountID, deviceID string) error

	// Deactivate marks the device inactive.
	Deactivate(ctx context.Context, accountID, deviceID string) error

	// DeactivateExpired batch-deactivates devices whose sliding expiry passed
	// before now and returns how many rows changed.
	DeactivateExpired(ctx context.Context, now time.Time) (int, error)

	// ListByAccount returns all device rows for the account, newest first.
	ListByAccount(ctx context.Context, accountID string) ([]domain.Device, error)
}
