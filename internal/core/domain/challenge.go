package domain

import "time"

// Channel identifies how a one-time code reaches its owner.
type Channel string

const (
	ChannelMobile Channel = "mobile"
	ChannelEmail  Channel = "email"
)

// IsValid reports whether the channel is one of the supported delivery channels.
func (c Channel) IsValid() bool {
	return c == ChannelMobile || c == ChannelEmail
}

// Purpose enumerates the flows an OTP challenge may authorize.
type Purpose string

const (
	PurposeLogin              Purpose = "login"
	PurposeRegistration       Purpose = "registration"
	PurposePasswordReset      Purpose = "password_reset"
	PurposeEmailVerification  Purpose = "email_verification"
	PurposeMobileVerification Purpose = "mobile_verification"
)

// IsValid reports whether the purpose is known.
func (p Purpose) IsValid() bool {
	switch p {
	case PurposeLogin, PurposeRegistration, PurposePasswordReset,
		PurposeEmailVerification, PurposeMobileVerification:
		return true
	}
	return false
}

// ChallengeLimits bounds challenge issuance for an identifier. MaxPerHour
// caps creations across all purposes in the trailing hour; ResendCooldown is
// the minimum gap between creations for the same (identifier, purpose) pair.
type ChallengeLimits struct {
	MaxPerHour     int
	ResendCooldown time.Duration
}

// OtpChallenge represents one outstanding or historical OTP attempt.
// The plaintext code never appears here; only its Argon2id hash is stored.
type OtpChallenge struct {
	ID         string
	Identifier string
	Channel    Channel
	Purpose    Purpose
	CodeHash   string
	AccountID  *string
	Attempts   int
	Used       bool
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// IsExpired reports whether the challenge has elapsed its validity window.
func (c OtpChallenge) IsExpired(at time.Time) bool {
	return !c.ExpiresAt.After(at)
}

// IsValidAt returns true when the challenge can still accept a validation attempt.
func (c OtpChallenge) IsValidAt(at time.Time) bool {
	return !c.Used && !c.IsExpired(at)
}
