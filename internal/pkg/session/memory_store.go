// internal/pkg/session/memory_store.go
package session

import (
	"context"
	"sync"
	"time"

	xerrors "kunden-service/internal/pkg/errors"
)

// MemoryStore keeps sessions in process memory. It is used when no Redis is
// configured; sessions do not survive a restart.
type MemoryStore struct {
	mu        sync.Mutex
	sessions  map[string]SessionData
	blacklist map[string]time.Time
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:  make(map[string]SessionData),
		blacklist: make(map[string]time.Time),
		now:       time.Now,
	}
}

func (m *MemoryStore) CreateSession(_ context.Context, session *SessionData) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !session.ExpiresAt.After(m.now()) {
		return xerrors.ErrSessionExpired
	}
	m.sessions[session.Username+":"+session.JTI] = *session
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, username, jti string) (*SessionData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := username + ":" + jti
	s, ok := m.sessions[key]
	if !ok {
		return nil, xerrors.ErrSessionExpired
	}
	now := m.now()
	if !s.ExpiresAt.After(now) {
		delete(m.sessions, key)
		return nil, xerrors.ErrSessionExpired
	}
	s.LastActivityAt = now
	m.sessions[key] = s
	return &s, nil
}

func (m *MemoryStore) InvalidateSession(_ context.Context, username, jti string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, username+":"+jti)
	return nil
}

func (m *MemoryStore) IsTokenBlacklisted(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	until, ok := m.blacklist[jti]
	if !ok {
		return false, nil
	}
	if !until.After(m.now()) {
		delete(m.blacklist, jti)
		return false, nil
	}
	return true, nil
}

func (m *MemoryStore) BlacklistToken(_ context.Context, jti string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blacklist[jti] = m.now().Add(ttl)
	return nil
}

// MemoryRateLimiter is the in-process LoginLimiter.
type MemoryRateLimiter struct {
	mu       sync.Mutex
	attempts map[string]attemptWindow
	now      func() time.Time
}

type attemptWindow struct {
	count   int64
	resetAt time.Time
}

func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{attempts: make(map[string]attemptWindow), now: time.Now}
}

func (r *MemoryRateLimiter) CheckLoginAttempt(_ context.Context, ip, username string) (bool, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := loginKey(ip, username)
	now := r.now()
	w := r.attempts[key]
	if !w.resetAt.After(now) {
		w = attemptWindow{resetAt: now.Add(loginAttemptWindow)}
	}
	w.count++
	r.attempts[key] = w

	remaining := int64(maxLoginAttempts) - w.count
	if remaining < 0 {
		remaining = 0
	}
	return w.count <= maxLoginAttempts, remaining, nil
}

func (r *MemoryRateLimiter) ResetLoginAttempts(_ context.Context, ip, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attempts, loginKey(ip, username))
	return nil
}
