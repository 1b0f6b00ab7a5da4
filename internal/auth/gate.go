package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/shelf/internal/config"
)

// ErrRateLimited is returned while an IP+email pair is locked out.
var ErrRateLimited = errors.New("too many login attempts")

// RateLimitError carries how long the caller must wait.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s, retry after %s", ErrRateLimited, e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

// LoginRecorder is notified of every login and logout. *audit.Service implements it.
type LoginRecorder interface {
	LogAuth(action, email, ipAddr string, success bool)
}

// Gate performs login and logout against the visitor's session.
type Gate struct {
	authenticator Authenticator
	sessions      *SessionManager
	limiter       *RateLimiter
	recorder      LoginRecorder
	now           func() time.Time
}

func NewGate(authenticator Authenticator, sessions *SessionManager, cfg config.Auth, recorder LoginRecorder) *Gate {
	return &Gate{
		authenticator: authenticator,
		sessions:      sessions,
		limiter: NewRateLimiter(RateLimitConfig{
			MaxAttempts:     cfg.MaxLoginAttempts,
			WindowDuration:  cfg.RateLimitWindow,
			LockoutDuration: cfg.LockoutDuration,
		}),
		recorder: recorder,
		now:      time.Now,
	}
}

// Stop cleans up resources (rate limiter background goroutine).
func (g *Gate) Stop() {
	g.limiter.Stop()
}

// Login authenticates the pair and, on success, turns the visitor's session into an admin session.
func (g *Gate) Login(c *gin.Context, email, password string) (Session, error) {
	ctx := c.Request.Context()
	email = strings.TrimSpace(email)
	ip := c.ClientIP()

	if allowed, retryAfter := g.limiter.Allow(ip, email); !allowed {
		return Session{}, &RateLimitError{RetryAfter: retryAfter}
	}

	principal, err := g.authenticator.Authenticate(ctx, email, password)
	if err != nil {
		g.limiter.RecordFailure(ip, email)
		g.record("login", email, ip, false)
		return Session{}, err
	}
	g.limiter.RecordSuccess(ip, email)

	if err := g.sessions.CreateSession(ctx, principal, g.now().UTC()); err != nil {
		return Session{}, fmt.Errorf("failed to create session: %w", err)
	}
	g.record("login", principal.Email, ip, true)
	log.Printf("Admin %s signed in from %s", principal.Email, ip)

	return g.sessions.GetSession(ctx), nil
}

// Logout destroys the visitor's session.
func (g *Gate) Logout(c *gin.Context) error {
	ctx := c.Request.Context()
	email := g.sessions.GetSession(ctx).AdminEmail
	if err := g.sessions.DestroySession(ctx); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}
	if email != "" {
		g.record("logout", email, c.ClientIP(), true)
	}
	return nil
}

// Session returns the session of the current request.
func (g *Gate) Session(ctx context.Context) Session {
	return g.sessions.GetSession(ctx)
}

func (g *Gate) record(action, email, ip string, success bool) {
	if g.recorder != nil {
		g.recorder.LogAuth(action, email, ip, success)
	}
}

// IsLocalPath validates that a redirect path is local to prevent open redirect attacks.
func IsLocalPath(path string) bool {
	if path == "" || !strings.HasPrefix(path, "/") {
		return false
	}
	// Reject protocol-relative URLs (//evil.com), schemes and backslash bypasses
	if strings.HasPrefix(path, "//") || strings.Contains(path, "://") || strings.Contains(path, "\\") {
		return false
	}
	return true
}

// SanitizeRedirectPath returns a safe redirect path, defaulting to "/" if invalid.
func SanitizeRedirectPath(path string) string {
	if IsLocalPath(path) {
		return path
	}
	return "/"
}
