package domain

import "time"

// Revocation reasons recorded on refresh token rows.
const (
	RevokeReasonRotated   = "rotated"
	RevokeReasonLogout    = "logout"
	RevokeReasonLogoutAll = "logout_all"
	RevokeReasonReplay    = "replayed token reuse"
)

// RefreshToken is one link in a session's rotation chain. The raw token is an
// opaque random string handed to the client; rows persist only its SHA-256 hash.
// Rows are never deleted, forming an append-only audit trail.
type RefreshToken struct {
	ID          string
	AccountID   string
	TokenHash   string
	CreatedByIP string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	RevokedAt   *time.Time
	RevokedByIP *string
	Reason      *string
	ReplacedBy  *string
}

// IsExpired reports whether the token has elapsed its validity window.
func (t RefreshToken) IsExpired(at time.Time) bool {
	return !t.ExpiresAt.After(at)
}

// IsRevoked reports whether the token has been explicitly revoked.
func (t RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// IsActive returns true when the token can still be presented for rotation.
func (t RefreshToken) IsActive(at time.Time) bool {
	return !t.IsRevoked() && !t.IsExpired(at)
}

// Revoke marks the token as revoked with the supplied context.
// Returns true if the token transitioned to the revoked state.
func (t *RefreshToken) Revoke(at time.Time, ip, reason string) bool {
	if t.RevokedAt != nil {
		return false
	}
	timeCopy := at
	t.RevokedAt = &timeCopy
	if ip != "" {
		ipCopy := ip
		t.RevokedByIP = &ipCopy
	}
	if reason != "" {
		reasonCopy := reason
		t.Reason = &reasonCopy
	}
	return true
}
