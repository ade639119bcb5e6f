// internal/service/auth/auth.go
package auth

import (
	"context"
	"fmt"
	"time"

	"kunden-service/internal/domain/auth"
	xerrors "kunden-service/internal/pkg/errors"
	"kunden-service/internal/pkg/jwt"
	"kunden-service/internal/pkg/session"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SessionNotifier tells connected websocket clients that their session ended.
type SessionNotifier interface {
	ForceLogout(username, sessionID, reason string)
}

type AuthService struct {
	users          map[string]auth.User
	jwtManager     *jwt.Manager
	sessionManager session.Store
	rateLimiter    session.LoginLimiter
	notifier       SessionNotifier
	logger         *zap.Logger
}

func NewAuthService(
	users map[string]auth.User,
	jwtManager *jwt.Manager,
	sessionManager session.Store,
	rateLimiter session.LoginLimiter,
	notifier SessionNotifier,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:          users,
		jwtManager:     jwtManager,
		sessionManager: sessionManager,
		rateLimiter:    rateLimiter,
		notifier:       notifier,
		logger:         logger,
	}
}

// ========== Login ==========

// Login checks the password against the credentials file and opens a session.
func (s *AuthService) Login(ctx context.Context, req *auth.LoginRequest) (*auth.LoginResponse, error) {
	// Rate limiting
	allowed, remaining, err := s.rateLimiter.CheckLoginAttempt(ctx, req.IPAddress, req.Username)
	if err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}
	if !allowed {
		return nil, fmt.Errorf("%w: please try again in 15 minutes", xerrors.ErrRateLimited)
	}

	user, ok := s.users[req.Username]
	if !ok {
		s.logger.Info("login for unknown user", zap.String("username", req.Username), zap.String("ip", req.IPAddress))
		return nil, fmt.Errorf("%w: invalid credentials", xerrors.ErrUnauthorized)
	}

	// Verify password
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Info("wrong password", zap.String("username", req.Username), zap.String("ip", req.IPAddress))
		return nil, fmt.Errorf("%w: invalid credentials (attempts remaining: %d)", xerrors.ErrUnauthorized, remaining)
	}

	if err := s.rateLimiter.ResetLoginAttempts(ctx, req.IPAddress, req.Username); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.Error(err))
	}

	accessToken, jti, err := s.jwtManager.Generator.GenerateAccessToken(user.Username, user.Name, req.Device)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	now := time.Now()
	expiresAt := now.Add(s.jwtManager.Generator.Ttl)
	sessionData := &session.SessionData{
		JTI:            jti,
		Username:       user.Username,
		DisplayName:    user.Name,
		Email:          user.Email,
		Device:         req.Device,
		IPAddress:      req.IPAddress,
		UserAgent:      req.UserAgent,
		LoginAt:        now,
		LastActivityAt: now,
		ExpiresAt:      expiresAt,
	}
	if err := s.sessionManager.CreateSession(ctx, sessionData); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("user logged in", zap.String("username", user.Username), zap.String("ip", req.IPAddress))

	return &auth.LoginResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.jwtManager.Generator.Ttl.Seconds()),
		ExpiresAt:   expiresAt,
		User:        toUserInfo(user),
	}, nil
}

// ========== Logout ==========

// Logout invalidates the current session
func (s *AuthService) Logout(ctx context.Context, username, jti string) error {
	if err := s.sessionManager.InvalidateSession(ctx, username, jti); err != nil {
		return fmt.Errorf("failed to invalidate session: %w", err)
	}

	// Blacklist the token for as long as it could still verify
	if err := s.sessionManager.BlacklistToken(ctx, jti, s.jwtManager.Generator.Ttl); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	if s.notifier != nil {
		s.notifier.ForceLogout(username, jti, "User logged out")
	}

	s.logger.Info("user logged out", zap.String("username", username))
	return nil
}

// ValidateToken verifies signature, blacklist and session of an access token.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*jwt.Claims, error) {
	claims, err := s.jwtManager.Verifier.VerifyAccessToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token: %v", xerrors.ErrUnauthorized, err)
	}

	// Check blacklist
	blacklisted, err := s.sessionManager.IsTokenBlacklisted(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check blacklist: %w", err)
	}
	if blacklisted {
		return nil, xerrors.ErrTokenRevoked
	}

	// Verify session
	if _, err := s.sessionManager.GetSession(ctx, claims.Username, claims.ID); err != nil {
		return nil, fmt.Errorf("session not found or expired: %w", err)
	}

	return claims, nil
}

// GetSession returns the stored session behind a validated token.
func (s *AuthService) GetSession(ctx context.Context, username, jti string) (*session.SessionData, error) {
	return s.sessionManager.GetSession(ctx, username, jti)
}

// Me returns the profile of username as listed in the credentials file.
func (s *AuthService) Me(username string) (*auth.UserInfo, error) {
	user, ok := s.users[username]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	info := toUserInfo(user)
	return &info, nil
}

func toUserInfo(u auth.User) auth.UserInfo {
	return auth.UserInfo{Username: u.Username, DisplayName: u.Name, Email: u.Email}
}
