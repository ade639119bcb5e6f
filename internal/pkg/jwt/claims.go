// internal/pkg/jwt/claims.go
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims identify the editor behind a request. The display name is what
// the audit log records.
type Claims struct {
	Username       string `json:"username"`
	DisplayName    string `json:"display_name"`
	Device         string `json:"device,omitempty"`
	SessionPurpose string `json:"session_purpose"`
	jwt.RegisteredClaims
}
