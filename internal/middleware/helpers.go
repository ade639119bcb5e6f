// internal/middleware/helpers.go
package middleware

import "github.com/gin-gonic/gin"

// MustGetUsername gets the username from context or panics
func MustGetUsername(c *gin.Context) string {
	username, exists := GetUsername(c)
	if !exists {
		panic("username not found in context")
	}
	return username
}

// MustGetJTI gets JTI from context or panics
func MustGetJTI(c *gin.Context) string {
	jti, exists := GetJTI(c)
	if !exists {
		panic("jti not found in context")
	}
	return jti
}

// Actor is the name written to the audit log for the current request:
// the display name, falling back to the username.
func Actor(c *gin.Context) string {
	if name, ok := getString(c, ctxDisplayName); ok && name != "" {
		return name
	}
	username, _ := GetUsername(c)
	return username
}

// IsAuthenticated checks if request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get(ctxUsername)
	return exists
}
