// internal/pkg/session/types.go
package session

import (
	"context"
	"time"
)

type SessionData struct {
	JTI            string    `json:"jti"`
	Username       string    `json:"username"`
	DisplayName    string    `json:"display_name"`
	Email          string    `json:"email"`
	Device         string    `json:"device,omitempty"`
	IPAddress      string    `json:"ip_address"`
	UserAgent      string    `json:"user_agent"`
	LoginAt        time.Time `json:"login_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Store keeps login sessions and revoked token ids. Manager (Redis) and
// MemoryStore implement it.
type Store interface {
	CreateSession(ctx context.Context, session *SessionData) error
	GetSession(ctx context.Context, username, jti string) (*SessionData, error)
	InvalidateSession(ctx context.Context, username, jti string) error
	IsTokenBlacklisted(ctx context.Context, jti string) (bool, error)
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
}

// LoginLimiter throttles password attempts per client address and username.
type LoginLimiter interface {
	CheckLoginAttempt(ctx context.Context, ip, username string) (bool, int64, error)
	ResetLoginAttempts(ctx context.Context, ip, username string) error
}

const (
	maxLoginAttempts   = 5
	loginAttemptWindow = 15 * time.Minute
)
