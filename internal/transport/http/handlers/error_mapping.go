package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/transport/http/middleware"
	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/usecase"
)

// Stable machine-readable error codes surfaced to clients.
const (
	CodeValidationError    = "VALIDATION_ERROR"
	CodeRateLimited        = "RATE_LIMITED"
	CodeCooldownActive     = "COOLDOWN_ACTIVE"
	CodeInvalidOTP         = "INVALID_OTP"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeUserExists         = "USER_ALREADY_EXISTS"
	CodeAccountDeactivated = "ACCOUNT_DEACTIVATED"
	CodeMissingDetails     = "MISSING_REGISTRATION_DETAILS"
	CodeSessionInvalid     = "TOKEN_REVOKED_OR_EXPIRED"
	CodeDeviceNotFound     = "DEVICE_NOT_FOUND"
	CodeInternalError      = "INTERNAL_ERROR"
)

// respondWithUsecaseError translates the usecase error taxonomy into HTTP
// responses. Security rejections stay deliberately vague; transient failures
// are logged in full and surfaced generically.
func respondWithUsecaseError(c *gin.Context, log *zap.Logger, err error) {
	var rateLimited *usecase.RateLimitError
	if errors.As(err, &rateLimited) {
		resp := NewErrorResponse(c, CodeRateLimited, "too many codes requested, try again later")
		resp.RetryAfter = int(rateLimited.RetryAfter.Seconds())
		c.JSON(http.StatusTooManyRequests, resp)
		return
	}

	var cooldown *usecase.CooldownError
	if errors.As(err, &cooldown) {
		resp := NewErrorResponse(c, CodeCooldownActive, "a code was sent recently, try again shortly")
		resp.RetryAfter = int(cooldown.RetryAfter.Seconds())
		c.JSON(http.StatusTooManyRequests, resp)
		return
	}

	switch {
	case errors.Is(err, usecase.ErrInvalidOTP):
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, CodeInvalidOTP, "invalid or expired code"))
	case errors.Is(err, usecase.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, NewErrorResponse(c, CodeUserNotFound, "no account found for this identifier"))
	case errors.Is(err, usecase.ErrAccountExists):
		c.JSON(http.StatusConflict, NewErrorResponse(c, CodeUserExists, "an account already exists for this identifier"))
	case errors.Is(err, usecase.ErrAccountDeactivated):
		c.JSON(http.StatusForbidden, NewErrorResponse(c, CodeAccountDeactivated, "account is deactivated"))
	case errors.Is(err, usecase.ErrMissingRegistrationDetails):
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, CodeMissingDetails, "registration details are required"))
	case errors.Is(err, usecase.ErrSessionNotFound),
		errors.Is(err, usecase.ErrSessionExpired),
		errors.Is(err, usecase.ErrSessionReplayed):
		// One response for every dead-session shape; the distinction only
		// matters server side.
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, CodeSessionInvalid, "session is no longer valid"))
	case errors.Is(err, usecase.ErrDeviceNotFound):
		c.JSON(http.StatusNotFound, NewErrorResponse(c, CodeDeviceNotFound, "device not found"))
	default:
		if log != nil {
			log.Error("request failed", zap.String("request_id", middleware.GetRequestID(c)), zap.Error(err))
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, CodeInternalError, "something went wrong, please try again"))
	}
}
