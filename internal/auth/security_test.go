package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeRedirectPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty path", "", "/"},
		{"root path", "/", "/"},
		{"local path", "/?modal=add-author", "/?modal=add-author"},
		{"protocol-relative URL", "//evil.com", "/"},
		{"full URL with scheme", "https://evil.com", "/"},
		{"URL with scheme in path", "/https://evil.com", "/"},
		{"backslash escape attempt", "/foo\\bar", "/"},
		{"javascript URL", "javascript:alert(1)", "/"},
		{"no leading slash", "evil.com", "/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeRedirectPath(tt.input))
		})
	}
}

func TestIsLocalPath(t *testing.T) {
	assert.True(t, IsLocalPath("/"))
	assert.True(t, IsLocalPath("/ui/books"))
	assert.False(t, IsLocalPath(""))
	assert.False(t, IsLocalPath("//evil.com"))
	assert.False(t, IsLocalPath("foo/bar"))
}

func newTestLimiter(t *testing.T) *RateLimiter {
	rl := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     3,
		WindowDuration:  time.Minute,
		LockoutDuration: time.Minute,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(rl.Stop)
	return rl
}

func TestRateLimiter_LocksAfterMaxAttempts(t *testing.T) {
	rl := newTestLimiter(t)

	for i := 0; i < 3; i++ {
		allowed, _ := rl.Allow("192.168.1.1", "admin@gmail.com")
		assert.True(t, allowed, "attempt %d", i+1)
		rl.RecordFailure("192.168.1.1", "admin@gmail.com")
	}

	allowed, retryAfter := rl.Allow("192.168.1.1", "ADMIN@gmail.com")
	assert.False(t, allowed)
	assert.Positive(t, retryAfter)
}

func TestRateLimiter_SuccessResetsCounter(t *testing.T) {
	rl := newTestLimiter(t)

	rl.RecordFailure("192.168.1.1", "admin@gmail.com")
	rl.RecordFailure("192.168.1.1", "admin@gmail.com")
	rl.RecordSuccess("192.168.1.1", "admin@gmail.com")
	rl.RecordFailure("192.168.1.1", "admin@gmail.com")

	allowed, _ := rl.Allow("192.168.1.1", "admin@gmail.com")
	assert.True(t, allowed)
}

func TestRateLimiter_LockoutExpires(t *testing.T) {
	rl := newTestLimiter(t)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		rl.RecordFailure("10.0.0.1", "admin@gmail.com")
	}
	allowed, _ := rl.Allow("10.0.0.1", "admin@gmail.com")
	assert.False(t, allowed)

	now = now.Add(2 * time.Minute)
	allowed, _ = rl.Allow("10.0.0.1", "admin@gmail.com")
	assert.True(t, allowed)

	now = now.Add(time.Hour)
	rl.cleanup()
	assert.Empty(t, rl.attempts)
}

func TestRateLimiter_PairsAreIndependent(t *testing.T) {
	rl := newTestLimiter(t)

	for i := 0; i < 3; i++ {
		rl.RecordFailure("192.168.1.1", "admin@gmail.com")
	}

	allowed, _ := rl.Allow("192.168.1.2", "admin@gmail.com")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("192.168.1.1", "other@gmail.com")
	assert.True(t, allowed)
}

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware())
	router.GET("/", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", rr.Header().Get("Referrer-Policy"))
	assert.NotEmpty(t, rr.Header().Get("Permissions-Policy"))

	csp := rr.Header().Get("Content-Security-Policy")
	assert.True(t, strings.HasPrefix(csp, "default-src 'self'"))
	assert.Contains(t, csp, "frame-ancestors 'none'")
}

func TestHSTSHeader(t *testing.T) {
	router := gin.New()
	router.Use(StrictTransportSecurityMiddleware())
	router.GET("/", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Empty(t, rr.Header().Get("Strict-Transport-Security"))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.NotEmpty(t, rr.Header().Get("Strict-Transport-Security"))
}

func TestUsernameValidation(t *testing.T) {
	tests := []struct {
		username string
		valid    bool
	}{
		{"ab", false},
		{"abc", true},
		{"user_name", true},
		{"user-name", true},
		{"user.name", false},
		{"user name", false},
		{strings.Repeat("a", 65), false},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			assert.Equal(t, tt.valid, usernamePattern.MatchString(tt.username))
		})
	}
}

func TestEmailValidation(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"user@example.com", true},
		{"user+tag@example.com", true},
		{"user@sub.example.com", true},
		{"invalid", false},
		{"@example.com", false},
		{"user@", false},
		{"user@example", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.valid, emailPattern.MatchString(tt.email))
		})
	}
}
