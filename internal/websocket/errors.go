// internal/websocket/errors.go
package websocket

import "errors"

var (
	ErrTokenBlacklisted = errors.New("token has been blacklisted")
	ErrSessionExpired   = errors.New("session has expired")
	ErrInvalidToken     = errors.New("invalid token")
)

// Reason is the code sent to a client whose connection was refused. The
// empty string means err is not an authentication failure.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrTokenBlacklisted):
		return "token_revoked"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	default:
		return ""
	}
}
