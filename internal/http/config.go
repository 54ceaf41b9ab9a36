package http

import (
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/demo"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Domain services
	Authors  AuthorService
	Books    BookService
	Loans    LoanService
	Accounts AccountService
	Audit    AuditReader

	// Health checks
	Database Pinger
	Version  string

	// Task queue (optional)
	Tasks TaskQueue

	// Authentication
	AuthConfig     config.Auth
	AuthMiddleware *auth.Middleware
	SessionManager *auth.SessionManager
	TokenValidator auth.TokenValidator
	RateLimiter    *auth.RateLimiter
	CSRFSecret     []byte

	// Demo mode (optional)
	DemoMiddleware *demo.Middleware

	Logger *zap.Logger
}
