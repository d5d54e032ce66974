package handlers

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/domain"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/transport/http/middleware"
)

// RequestOTPRequest asks for a fresh challenge.
type RequestOTPRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Channel    string `json:"channel" binding:"required"`
	Purpose    string `json:"purpose" binding:"required"`
}

// RequestOTPResponse reports a successfully issued challenge. The code itself
// travels only through the delivery channel.
type RequestOTPResponse struct {
	Success          bool   `json:"success"`
	MaskedIdentifier string `json:"masked_identifier"`
	ExpirySeconds    int    `json:"expiry_seconds"`
	CooldownSeconds  int    `json:"cooldown_seconds"`
	IsNewUser        bool   `json:"is_new_user"`
	Message          string `json:"message"`
}

// RegistrationDetailsPayload is the strict registration payload. Unknown
// fields are rejected by binding; missing ones fail validation here.
type RegistrationDetailsPayload struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Role      string `json:"role" binding:"required"`
	Email     string `json:"email"`
	Mobile    string `json:"mobile"`
}

// DevicePayload describes the client device attached to a verification.
type DevicePayload struct {
	DeviceID string `json:"device_id" binding:"required"`
	Name     string `json:"name"`
	Class    string `json:"class"`
}

// VerifyOTPRequest presents a code for validation.
type VerifyOTPRequest struct {
	Identifier          string                      `json:"identifier" binding:"required"`
	Code                string                      `json:"code" binding:"required"`
	Purpose             string                      `json:"purpose" binding:"required"`
	RegistrationDetails *RegistrationDetailsPayload `json:"registration_details"`
	Device              *DevicePayload              `json:"device"`
}

// RefreshRequest presents a refresh token for rotation.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest optionally names the session to end.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UserResponse is the account view returned with a session.
type UserResponse struct {
	ID        string   `json:"id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email,omitempty"`
	Mobile    string   `json:"mobile,omitempty"`
	Roles     []string `json:"roles"`
}

// SessionResponse carries a freshly minted credential pair.
type SessionResponse struct {
	AccessToken      string       `json:"access_token"`
	RefreshToken     string       `json:"refresh_token"`
	ExpiresAt        time.Time    `json:"expires_at"`
	RefreshExpiresAt time.Time    `json:"refresh_expires_at"`
	User             UserResponse `json:"user"`
}

// DeviceResponse is one known device of the caller.
type DeviceResponse struct {
	DeviceID   string    `json:"device_id"`
	Name       string    `json:"name"`
	Class      string    `json:"class"`
	Trusted    bool      `json:"trusted"`
	Active     bool      `json:"active"`
	LastUsedAt time.Time `json:"last_used_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// SuccessResponse acknowledges an operation with no payload.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the uniform failure payload.
type ErrorResponse struct {
	Success    bool   `json:"success"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
}

// HealthResponse reports liveness.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// NewErrorResponse builds the failure payload with the request correlation id.
func NewErrorResponse(c *gin.Context, code, message string) ErrorResponse {
	return ErrorResponse{
		Success:   false,
		ErrorCode: code,
		Message:   message,
		RequestID: middleware.GetRequestID(c),
	}
}

var (
	mobileFormat = regexp.MustCompile(`^\+?[0-9]{10,15}$`)
	emailFormat  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// validIdentifier checks the identifier against its channel's format before
// any storage is touched.
func validIdentifier(identifier string, channel domain.Channel) bool {
	identifier = strings.TrimSpace(identifier)
	switch channel {
	case domain.ChannelMobile:
		return mobileFormat.MatchString(identifier)
	case domain.ChannelEmail:
		return emailFormat.MatchString(identifier)
	}
	return false
}

func toUserResponse(account *domain.Account) UserResponse {
	user := UserResponse{
		ID:        account.ID,
		FirstName: account.FirstName,
		LastName:  account.LastName,
		Roles:     account.Roles,
	}
	if account.Email != nil {
		user.Email = *account.Email
	}
	if account.Mobile != nil {
		user.Mobile = *account.Mobile
	}
	return user
}
