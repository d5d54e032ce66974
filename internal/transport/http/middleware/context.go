package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appLogger "github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/infra/logger"
)

const (
	// RequestIDHeader carries the correlation identifier end to end.
	RequestIDHeader = "X-Request-ID"
	// AccountIDKey is the gin context key for the authenticated account id.
	AccountIDKey = "account_id"
	// RolesKey is the gin context key for the authenticated account's roles.
	RolesKey = "roles"
)

// RequestID injects a correlation identifier into the request context and
// echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}

		c.Writer.Header().Set(RequestIDHeader, reqID)
		ctx := context.WithValue(c.Request.Context(), appLogger.RequestIDKey{}, reqID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetRequestID returns the correlation identifier for the request, if set.
func GetRequestID(c *gin.Context) string {
	if c == nil || c.Request == nil {
		return ""
	}
	if id, ok := c.Request.Context().Value(appLogger.RequestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// GetAccountID returns the authenticated account id set by RequireAuth.
func GetAccountID(c *gin.Context) string {
	if id, ok := c.Get(AccountIDKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

// GetRoles returns the authenticated account's roles set by RequireAuth.
func GetRoles(c *gin.Context) []string {
	if roles, ok := c.Get(RolesKey); ok {
		if s, ok := roles.([]string); ok {
			return s
		}
	}
	return nil
}
