// internal/middleware/auth_middleware.go
package middleware

import (
	"strings"

	"kunden-service/internal/pkg/response"
	"kunden-service/internal/service/auth"

	"github.com/gin-gonic/gin"
)

const (
	ctxUsername    = "username"
	ctxDisplayName = "display_name"
	ctxJTI         = "jti"
	ctxDevice      = "device"
)

type AuthMiddleware struct {
	authService *auth.AuthService
}

func NewAuthMiddleware(authService *auth.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// Auth validates the bearer token and its session and stores the caller in the context.
func (m *AuthMiddleware) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			response.Unauthorized(c, "missing authorization token", nil)
			return
		}

		claims, err := m.authService.ValidateToken(c.Request.Context(), token)
		if err != nil {
			response.Unauthorized(c, "invalid or expired token", err)
			return
		}

		c.Set(ctxUsername, claims.Username)
		c.Set(ctxDisplayName, claims.DisplayName)
		c.Set(ctxJTI, claims.ID)
		c.Set(ctxDevice, claims.Device)

		c.Next()
	}
}

// extractToken extracts Bearer token from Authorization header
func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}

	// Browsers cannot set headers on a plain download link (export)
	return c.Query("token")
}

// GetUsername returns the authenticated username.
func GetUsername(c *gin.Context) (string, bool) {
	return getString(c, ctxUsername)
}

// GetJTI returns the token id of the current session.
func GetJTI(c *gin.Context) (string, bool) {
	return getString(c, ctxJTI)
}

func getString(c *gin.Context, key string) (string, bool) {
	v, exists := c.Get(key)
	if !exists {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
