package domain

import "time"

// ChallengeIssuedEvent is emitted after a challenge is persisted and handed to
// the delivery collaborator. The identifier is masked before publishing.
type ChallengeIssuedEvent struct {
	EventID          string         `json:"event_id"`
	ChallengeID      string         `json:"challenge_id"`
	MaskedIdentifier string         `json:"masked_identifier"`
	Channel          Channel        `json:"channel"`
	Purpose          Purpose        `json:"purpose"`
	IssuedAt         time.Time      `json:"issued_at"`
	ExpiresAt        time.Time      `json:"expires_at"`
	Delivered        bool           `json:"delivered"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// SessionStartedEvent is emitted when a login or registration completes and a
// refresh token chain begins.
type SessionStartedEvent struct {
	EventID   string         `json:"event_id"`
	AccountID string         `json:"account_id"`
	Purpose   Purpose        `json:"purpose"`
	IP        string         `json:"ip,omitempty"`
	DeviceID  string         `json:"device_id,omitempty"`
	StartedAt time.Time      `json:"started_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// TokenReplayEvent records a suspected refresh-token theft: a revoked token
// was presented for rotation, so the whole chain was revoked.
type TokenReplayEvent struct {
	EventID       string    `json:"event_id"`
	AccountID     string    `json:"account_id"`
	TokenID       string    `json:"token_id"`
	PresentedByIP string    `json:"presented_by_ip,omitempty"`
	TokensRevoked int       `json:"tokens_revoked"`
	DetectedAt    time.Time `json:"detected_at"`
}

// SessionsRevokedEvent is emitted when one or more refresh tokens are revoked
// outside of normal rotation (logout, logout-all, replay response).
type SessionsRevokedEvent struct {
	EventID   string    `json:"event_id"`
	AccountID string    `json:"account_id"`
	Reason    string    `json:"reason"`
	Count     int       `json:"count"`
	IP        string    `json:"ip,omitempty"`
	RevokedAt time.Time `json:"revoked_at"`
}

// DeviceTrustedEvent is emitted when a device is upgraded to trusted.
type DeviceTrustedEvent struct {
	EventID   string    `json:"event_id"`
	AccountID string    `json:"account_id"`
	DeviceID  string    `json:"device_id"`
	TrustedAt time.Time `json:"trusted_at"`
}
