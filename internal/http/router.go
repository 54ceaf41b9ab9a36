package http

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/logging"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("http")

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.RequestLogger(logger))

	// Apply security headers to all responses
	router.Use(auth.SecurityHeadersMiddleware())
	if cfg.AuthConfig.SecureCookies {
		router.Use(auth.StrictTransportSecurityMiddleware(31536000))
	}

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.AuthConfig.SecureCookies, cfg.TokenValidator))
	}

	// Session runs after CSRF so session context isn't overwritten by CSRF's request replacement
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.SessionLoadSave())
	}

	authMiddleware := cfg.AuthMiddleware
	if authMiddleware == nil {
		authMiddleware = auth.NewMiddleware(nil, nil, config.Auth{Mode: config.AuthModeNone})
	}
	router.Use(authMiddleware.Handler())

	if cfg.DemoMiddleware.IsEnabled() {
		router.Use(cfg.DemoMiddleware.Handler())
	}

	requireAuth := authMiddleware.RequireAuth()
	requireAdmin := authMiddleware.RequireRole(entities.UserRoleAdmin)

	// Health endpoints
	health := NewHealthController(cfg.Database, cfg.Version)
	router.GET("/health", health.Status)
	router.GET("/ping", health.Ping)

	demoController := NewDemoController(cfg.DemoMiddleware)
	router.GET("/demo/status", demoController.GetStatus)

	if cfg.Accounts != nil {
		authController := NewAuthController(cfg.Accounts, cfg.SessionManager, cfg.RateLimiter, logger)
		authGroup := router.Group("/auth")
		authGroup.POST("/register", authController.Register)
		authGroup.POST("/login", authController.Login)
		authGroup.POST("/logout", requireAuth, authController.Logout)
		authGroup.GET("/me", requireAuth, authController.Me)
		authGroup.GET("/csrf", authController.CSRFToken)

		users := NewUsersController(cfg.Accounts, logger)
		usersGroup := router.Group("/users", requireAdmin)
		usersGroup.GET("", users.List)
		usersGroup.POST("", users.Create)
		usersGroup.GET("/:id", users.Get)
		usersGroup.DELETE("/:id", users.Delete)
	}

	if cfg.Authors != nil {
		authors := NewAuthorsController(cfg.Authors, logger)
		router.GET("/authors", authors.List)
		router.GET("/authors/:id", authors.Get)
		router.POST("/authors", requireAdmin, authors.Create)
		router.PATCH("/authors/:id", requireAdmin, authors.Update)
		router.DELETE("/authors/:id", requireAdmin, authors.Delete)
	}

	if cfg.Books != nil {
		books := NewBooksController(cfg.Books, logger)
		router.GET("/books", books.List)
		router.GET("/books/:id", books.Get)
		router.POST("/books", requireAdmin, books.Create)
		router.PATCH("/books/:id", requireAdmin, books.Update)
		router.DELETE("/books/:id", requireAdmin, books.Delete)
	}

	if cfg.Loans != nil {
		loans := NewLoansController(cfg.Loans, logger)
		for _, prefix := range []string{"/loans", "/borrowed-books"} {
			group := router.Group(prefix, requireAuth)
			group.POST("/borrow", loans.Borrow)
			group.PATCH("/return/:id", loans.Return)
			group.GET("", requireAdmin, loans.ListAll)
			group.GET("/user/:userId", loans.ListForUser)
			group.GET("/:id", loans.Get)
		}
	}

	if cfg.Audit != nil {
		auditController := NewAuditController(cfg.Audit, logger)
		router.GET("/audit", requireAdmin, auditController.GetAuditEvents)
	}

	// Task management endpoints
	if cfg.Tasks != nil {
		tasksController := NewTasksController(cfg.Tasks, logger)
		tasksGroup := router.Group("/tasks", requireAdmin)
		tasksGroup.GET("/types", tasksController.ListTaskTypes)
		tasksGroup.GET("/:id", tasksController.GetTaskStatus)
		tasksGroup.POST("/:type/run", tasksController.RunTask)
	}

	return router
}
