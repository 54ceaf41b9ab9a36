package demo

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Message is returned for every write blocked in demo mode.
const Message = "This action is disabled in demo mode"

// ContextKeyDemoMode stores the demo flag in the gin context.
const ContextKeyDemoMode = "demo_mode"

// Middleware blocks write operations in demo mode.
// Read-only operations (GET) are always allowed.
type Middleware struct {
	enabled      bool
	allowedPaths []string
}

// NewMiddleware creates a demo mode middleware. The login flow stays usable so
// visitors can sign in with the seeded accounts.
func NewMiddleware(enabled bool) *Middleware {
	return &Middleware{
		enabled:      enabled,
		allowedPaths: []string{"/auth/login", "/auth/logout"},
	}
}

// IsEnabled returns whether demo mode is active. Safe on a nil receiver.
func (m *Middleware) IsEnabled() bool {
	return m != nil && m.enabled
}

// AllowedWrites lists the unsafe paths that stay open in demo mode.
func (m *Middleware) AllowedWrites() []string {
	if !m.IsEnabled() {
		return nil
	}
	return append([]string(nil), m.allowedPaths...)
}

// Handler returns a Gin middleware that blocks write operations.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(ContextKeyDemoMode, m.enabled)

		if !m.enabled || isReadOnly(c.Request.Method) || m.isAllowedPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":    Message,
			"demoMode": true,
		})
	}
}

func isReadOnly(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

func (m *Middleware) isAllowedPath(path string) bool {
	path = strings.TrimSuffix(path, "/")
	for _, allowed := range m.allowedPaths {
		if path == allowed {
			return true
		}
	}
	return false
}

// IsDemoMode reports whether the request passed through an enabled demo
// middleware.
func IsDemoMode(c *gin.Context) bool {
	return c.GetBool(ContextKeyDemoMode)
}
