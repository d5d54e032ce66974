package domain

import "time"

// Device tracks a known client device for an account. Uniquely keyed by
// (AccountID, DeviceID); DeviceID is a client-supplied opaque identifier.
type Device struct {
	ID         string
	AccountID  string
	DeviceID   string
	Name       string
	Class      string
	LastIP     *string
	Trusted    bool
	Active     bool
	CreatedAt  time.Time
	LastUsedAt time.Time
	ExpiresAt  time.Time
}

// IsExpired reports whether the sliding expiry window has passed.
func (d Device) IsExpired(at time.Time) bool {
	return !d.ExpiresAt.After(at)
}

// IsUsable returns true when the device is active and inside its expiry window.
func (d Device) IsUsable(at time.Time) bool {
	return d.Active && !d.IsExpired(at)
}
