package auth

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newTestLimiter(t *testing.T, maxAttempts int) (*RateLimiter, *time.Time) {
	t.Helper()
	rl := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     maxAttempts,
		WindowDuration:  time.Minute,
		LockoutDuration: 10 * time.Minute,
		CleanupInterval: time.Hour, // keep cleanup out of the way
	})
	t.Cleanup(rl.Stop)

	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }
	return rl, &clock
}

func TestRateLimiter_LocksAfterMaxAttempts(t *testing.T) {
	rl, _ := newTestLimiter(t, 3)

	for i := 0; i < 3; i++ {
		allowed, _ := rl.Allow("192.168.1.1", "john@example.com")
		assert.True(t, allowed, "attempt %d", i+1)
		rl.RecordFailure("192.168.1.1", "john@example.com")
	}

	allowed, retryAfter := rl.Allow("192.168.1.1", "john@example.com")
	assert.False(t, allowed)
	assert.Equal(t, 10*time.Minute, retryAfter)

	allowed, _ = rl.Allow("192.168.1.1", "JOHN@example.com ")
	assert.False(t, allowed, "email key is normalized")
}

func TestRateLimiter_LockoutExpires(t *testing.T) {
	rl, clock := newTestLimiter(t, 2)

	rl.RecordFailure("10.0.0.1", "john@example.com")
	locked, _ := rl.RecordFailure("10.0.0.1", "john@example.com")
	assert.True(t, locked)

	*clock = clock.Add(5 * time.Minute)
	allowed, retryAfter := rl.Allow("10.0.0.1", "john@example.com")
	assert.False(t, allowed)
	assert.Equal(t, 5*time.Minute, retryAfter)

	*clock = clock.Add(6 * time.Minute)
	allowed, _ = rl.Allow("10.0.0.1", "john@example.com")
	assert.True(t, allowed)

	rl.cleanup()
	assert.Empty(t, rl.attempts)
}

func TestRateLimiter_WindowResetsCount(t *testing.T) {
	rl, clock := newTestLimiter(t, 2)

	rl.RecordFailure("10.0.0.1", "john@example.com")
	*clock = clock.Add(2 * time.Minute)

	locked, _ := rl.RecordFailure("10.0.0.1", "john@example.com")
	assert.False(t, locked, "the first failure fell out of the window")
}

func TestRateLimiter_SuccessResetsCounter(t *testing.T) {
	rl, _ := newTestLimiter(t, 3)

	rl.RecordFailure("192.168.1.1", "john@example.com")
	rl.RecordFailure("192.168.1.1", "john@example.com")
	rl.RecordSuccess("192.168.1.1", "john@example.com")

	allowed, _ := rl.Allow("192.168.1.1", "john@example.com")
	assert.True(t, allowed)
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	rl, _ := newTestLimiter(t, 2)

	rl.RecordFailure("192.168.1.1", "john@example.com")
	rl.RecordFailure("192.168.1.1", "john@example.com")

	allowed, _ := rl.Allow("192.168.1.1", "john@example.com")
	assert.False(t, allowed)

	allowed, _ = rl.Allow("192.168.1.1", "jane@example.com")
	assert.True(t, allowed, "other email from the same address")

	allowed, _ = rl.Allow("192.168.1.2", "john@example.com")
	assert.True(t, allowed, "same email from another address")

	rl.Stop()
	rl.Stop()
}

func TestSecurityHeaders(t *testing.T) {
	router := gin.New()
	router.Use(SecurityHeadersMiddleware())
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-referrer", rr.Header().Get("Referrer-Policy"))
	assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "default-src 'none'")
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}

func TestHSTSHeader(t *testing.T) {
	router := gin.New()
	router.Use(StrictTransportSecurityMiddleware(31536000))
	router.GET("/test", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name  string
		setup func(r *http.Request)
		want  string
	}{
		{"plain http", func(*http.Request) {}, ""},
		{"forwarded https", func(r *http.Request) { r.Header.Set("X-Forwarded-Proto", "https") }, "max-age=31536000; includeSubDomains"},
		{"direct tls", func(r *http.Request) { r.TLS = &tls.ConnectionState{} }, "max-age=31536000; includeSubDomains"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			tt.setup(req)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Header().Get("Strict-Transport-Security"))
		})
	}
}
