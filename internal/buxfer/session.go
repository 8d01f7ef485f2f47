package buxfer

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// sessionTTL is how long a Buxfer token stays valid after issuance.
const sessionTTL = 30 * time.Minute

// session owns the authenticated token and its validity window. Callers
// never read the token directly; they go through token(), which renews an
// absent or stale token before returning it.
type session struct {
	issuedAt time.Time
	login    func(ctx context.Context) (string, error)
	logger   *slog.Logger
	token    string
	ttl      time.Duration
	mu       sync.Mutex
}

func newSession(login func(ctx context.Context) (string, error), logger *slog.Logger) *session {
	return &session{
		login:  login,
		logger: logger,
		ttl:    sessionTTL,
	}
}

// valid must be called with mu held.
func (s *session) valid(now time.Time) bool {
	return s.token != "" && now.Sub(s.issuedAt) < s.ttl
}

// Token returns a token that is valid at the time of the call, logging in
// first if the current one is absent or expired. The mutex is held across
// the login call: concurrent callers hitting an expired token block on the
// single in-flight login and share its result instead of racing to issue
// their own.
func (s *session) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if s.valid(now) {
		return s.token, nil
	}

	if s.token != "" {
		s.logger.Debug("Session expired, renewing",
			"issued_at", s.issuedAt.Format(time.RFC3339))
	}

	token, err := s.login(ctx)
	if err != nil {
		return "", err
	}

	s.token = token
	s.issuedAt = time.Now()
	s.logger.Debug("Session established")

	return s.token, nil
}

// Invalidate discards the current token so the next call logs in again.
func (s *session) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
}
