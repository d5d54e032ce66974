package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/core/domain"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/transport/http/middleware"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/usecase"
)

// AuthHandler exposes the OTP login, registration, and session endpoints.
type AuthHandler struct {
	auth   *usecase.AuthService
	logger *zap.Logger
}

// NewAuthHandler builds a new auth handler instance.
func NewAuthHandler(auth *usecase.AuthService, log *zap.Logger) *AuthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthHandler{auth: auth, logger: log}
}

// RequestOTP handles POST /api/v1/auth/otp/request.
func (h *AuthHandler) RequestOTP(c *gin.Context) {
	var req RequestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, CodeValidationError, "identifier, channel, and purpose are required"))
		return
	}

	channel := domain.Channel(strings.ToLower(strings.TrimSpace(req.Channel)))
	purpose := domain.Purpose(strings.ToLower(strings.TrimSpace(req.Purpose)))
	identifier := strings.TrimSpace(req.Identifier)

	if !channel.IsValid() || !purpose.IsValid() {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, CodeValidationError, "unknown channel or purpose"))
		return
	}
	if !validIdentifier(identifier, channel) {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, CodeValidationError, "identifier does not match the channel format"))
		return
	}

	result, err := h.auth.RequestChallenge(c.Request.Context(), identifier, channel, purpose)
	if err != nil {
		respondWithUsecaseError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, RequestOTPResponse{
		Success:          true,
		MaskedIdentifier: result.MaskedIdentifier,
		ExpirySeconds:    result.ExpirySeconds,
		CooldownSeconds:  result.CooldownSeconds,
		IsNewUser:        result.IsNewUser,
		Message:          "verification code sent to " + result.MaskedIdentifier,
	})
}

// VerifyOTP handles POST /api/v1/auth/otp/verify.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, CodeValidationError, "identifier, code, and purpose are required"))
		return
	}

	purpose := domain.Purpose(strings.ToLower(strings.TrimSpace(req.Purpose)))
	identifier := strings.TrimSpace(req.Identifier)
	code := strings.TrimSpace(req.Code)

	if !purpose.IsValid() {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, CodeValidationError, "unknown purpose"))
		return
	}

	var registration *domain.RegistrationDetails
	if req.RegistrationDetails != nil {
		registration = &domain.RegistrationDetails{
			FirstName: strings.TrimSpace(req.RegistrationDetails.FirstName),
			LastName:  strings.TrimSpace(req.RegistrationDetails.LastName),
			Role:      strings.ToLower(strings.TrimSpace(req.RegistrationDetails.Role)),
			Email:     strings.TrimSpace(req.RegistrationDetails.Email),
			Mobile:    strings.TrimSpace(req.RegistrationDetails.Mobile),
		}
		if registration.FirstName == "" || registration.LastName == "" || registration.Role == "" {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, CodeValidationError, "registration details are incomplete"))
			return
		}
	}

	var device *usecase.DeviceInput
	if req.Device != nil {
		device = &usecase.DeviceInput{
			DeviceID: strings.TrimSpace(req.Device.DeviceID),
			Name:     strings.TrimSpace(req.Device.Name),
			Class:    strings.TrimSpace(req.Device.Class),
		}
	}

	session, err := h.auth.VerifyAndAuthenticate(c.Request.Context(), identifier, code, purpose, registration, device, c.ClientIP())
	if err != nil {
		respondWithUsecaseError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		AccessToken:      session.AccessToken,
		RefreshToken:     session.RefreshToken,
		ExpiresAt:        session.AccessExpiresAt,
		RefreshExpiresAt: session.RefreshExpiresAt,
		User:             toUserResponse(session.Account),
	})
}

// Refresh handles POST /api/v1/auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, CodeValidationError, "refresh_token is required"))
		return
	}

	session, err := h.auth.Refresh(c.Request.Context(), strings.TrimSpace(req.RefreshToken), c.ClientIP())
	if err != nil {
		respondWithUsecaseError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, SessionResponse{
		AccessToken:      session.AccessToken,
		RefreshToken:     session.RefreshToken,
		ExpiresAt:        session.AccessExpiresAt,
		RefreshExpiresAt: session.RefreshExpiresAt,
		User:             toUserResponse(session.Account),
	})
}

// Logout handles POST /api/v1/auth/logout. With a refresh token in the body
// only that session ends; without one every session for the caller ends.
func (h *AuthHandler) Logout(c *gin.Context) {
	accountID := middleware.GetAccountID(c)

	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = LogoutRequest{}
	}

	if err := h.auth.Logout(c.Request.Context(), accountID, strings.TrimSpace(req.RefreshToken), c.ClientIP()); err != nil {
		respondWithUsecaseError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "logged out"})
}

// LogoutAll handles POST /api/v1/auth/logout-all.
func (h *AuthHandler) LogoutAll(c *gin.Context) {
	accountID := middleware.GetAccountID(c)

	if _, err := h.auth.LogoutAll(c.Request.Context(), accountID, c.ClientIP()); err != nil {
		respondWithUsecaseError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "all sessions ended"})
}
