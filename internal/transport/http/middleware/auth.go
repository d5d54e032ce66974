package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/SakshamSharma09/MasterMindCoaching-sub000/internal/usecase"
)

type authError struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func newAuthError(c *gin.Context, message string) authError {
	return authError{Error: message, RequestID: GetRequestID(c)}
}

// RequireAuth validates the bearer access token and stores the caller's
// identity on the gin context.
func RequireAuth(tokens *usecase.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, newAuthError(c, "missing authorization header"))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, newAuthError(c, "authorization header must be 'Bearer <token>'"))
			return
		}

		claims, err := tokens.VerifyAccessToken(strings.TrimSpace(parts[1]))
		if err != nil {
			switch {
			case errors.Is(err, usecase.ErrExpiredAccessToken):
				c.AbortWithStatusJSON(http.StatusUnauthorized, newAuthError(c, "access token expired"))
			default:
				c.AbortWithStatusJSON(http.StatusUnauthorized, newAuthError(c, "invalid access token"))
			}
			return
		}

		c.Set(AccountIDKey, claims.Subject)
		c.Set(RolesKey, claims.Roles)

		c.Next()
	}
}

// RequireRole allows the request only when the caller holds one of the roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		held := GetRoles(c)
		for _, want := range roles {
			for _, have := range held {
				if have == want {
					c.Next()
					return
				}
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, newAuthError(c, "insufficient privileges"))
	}
}
