package entrypoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	auditrepo "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/database/authors"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/loans"
	"github.com/mrlokans/library/internal/database/users"
	"github.com/mrlokans/library/internal/demo"
	http_controllers "github.com/mrlokans/library/internal/http"
	"github.com/mrlokans/library/internal/logging"
	"github.com/mrlokans/library/internal/scheduler"
	"github.com/mrlokans/library/internal/seed"
	"github.com/mrlokans/library/internal/services"
	"github.com/mrlokans/library/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts it down
// within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, logger *zap.Logger, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Listen failed", zap.Error(err))
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT; SIGKILL can't be caught
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server", zap.Duration("timeout", timeout))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	// Background work stops after the last request has been answered
	if onShutdown != nil {
		onShutdown(ctx)
	}

	logger.Info("Server exiting")
}

// Run wires every component from cfg and serves until interrupted.
func Run(cfg *config.Config, version string) error {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting library", zap.String("version", version))
	if cfg.EnvFile != "" {
		logger.Info("Loaded environment", zap.String("file", cfg.EnvFile))
	}

	var demoMiddleware *demo.Middleware
	if cfg.Demo.Enabled {
		logger.Warn("Demo mode enabled, write operations will be blocked")
		demoMiddleware = demo.NewMiddleware(true)
		cfg.Database = config.Database{Driver: config.DriverSQLite, Path: cfg.Demo.DBPath}
		if err := os.MkdirAll(filepath.Dir(cfg.Demo.DBPath), 0o755); err != nil {
			return fmt.Errorf("failed to create demo database directory: %w", err)
		}
	}

	db, err := database.NewDatabase(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Error closing database", zap.Error(err))
		}
	}()

	if cfg.Demo.Enabled && cfg.Demo.Seed {
		if _, err := seed.ForDatabase(db, cfg.Auth, logger).Seed(context.Background()); err != nil {
			return fmt.Errorf("failed to seed demo database: %w", err)
		}
	}

	usersRepo := users.NewRepository(db.DB)
	booksRepo := books.NewRepository(db.DB)
	loansRepo := loans.NewRepository(db.DB)

	auditService := audit.NewService(auditrepo.NewRepository(db.DB), logger)
	defer auditService.Wait()

	catalog := services.NewCatalogService(authors.NewRepository(db.DB), booksRepo, auditService, logger)
	loanService := services.NewLoanService(loansRepo, booksRepo, usersRepo, auditService, cfg.Loans, logger)
	authService := auth.NewService(usersRepo, loansRepo, auditService, cfg.Auth, logger)

	var sessionManager *auth.SessionManager
	var rateLimiter *auth.RateLimiter
	var csrfSecret []byte

	if cfg.Auth.Mode == config.AuthModeLocal {
		logger.Info("Authentication mode: local")

		if cfg.Auth.SessionsEnabled {
			sqlDB, err := db.SQLDB()
			if err != nil {
				return fmt.Errorf("failed to get SQL DB for sessions: %w", err)
			}
			sessionManager = auth.NewSessionManager(sqlDB, db.Driver(), cfg.Auth)

			csrfSecret, err = sessionSecret(cfg.Auth.SessionSecret, logger)
			if err != nil {
				return err
			}
		}

		rateLimiter = auth.NewRateLimiter(auth.RateLimitConfigFrom(cfg.Auth))
		defer rateLimiter.Stop()

		hasUsers, err := authService.HasUsers(context.Background())
		if err != nil {
			return fmt.Errorf("failed to count users: %w", err)
		}
		if !hasUsers {
			logger.Warn("No users found, the first account registered becomes an administrator")
		}
	} else {
		logger.Warn("Authentication mode: none, every caller acts as administrator")
	}
	authMiddleware := auth.NewMiddleware(authService, sessionManager, cfg.Auth)

	// Background tasks run on their own SQLite file next to the main database
	var taskClient *tasks.Client
	var taskCancel context.CancelFunc
	var maintenance *scheduler.MaintenanceScheduler
	if cfg.Tasks.Enabled {
		taskDBPath := cfg.Database.Path
		if cfg.Database.Driver == config.DriverPostgres || taskDBPath == "" {
			taskDBPath = config.DefaultDatabasePath
		}

		taskClient, err = tasks.NewClient(taskDBPath, tasks.ConfigFrom(cfg.Tasks), logger)
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.Error("Error closing task client", zap.Error(err))
			}
		}()

		taskClient.Register(
			tasks.NewCleanupAuditEventsQueue(auditService, logger),
			tasks.NewReconcileCopiesQueue(booksRepo, auditService, logger),
		)

		var taskCtx context.Context
		taskCtx, taskCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		maintenance = scheduler.NewMaintenanceScheduler(taskClient, scheduler.JobsFromConfig(cfg), logger)
		if err := maintenance.Start(taskCtx); err != nil {
			taskCancel()
			return fmt.Errorf("failed to start maintenance scheduler: %w", err)
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Authors:        catalog,
		Books:          catalog,
		Loans:          loanService,
		Accounts:       authService,
		Audit:          auditService,
		Database:       db,
		Version:        version,
		AuthConfig:     cfg.Auth,
		AuthMiddleware: authMiddleware,
		SessionManager: sessionManager,
		TokenValidator: authService,
		RateLimiter:    rateLimiter,
		CSRFSecret:     csrfSecret,
		DemoMiddleware: demoMiddleware,
		Logger:         logger,
	}
	// Assigned separately so a nil client doesn't become a non-nil interface
	if taskClient != nil {
		routerCfg.Tasks = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if maintenance != nil {
			maintenance.Stop()
		}
		if taskClient != nil {
			taskClient.Stop(ctx)
			taskCancel()
		}
	}

	Serve(router, cfg, logger, onShutdown)
	return nil
}

// sessionSecret returns the configured secret, hex-decoded when possible, or
// a freshly generated one.
func sessionSecret(configured string, logger *zap.Logger) ([]byte, error) {
	if configured != "" {
		if secret, err := hex.DecodeString(configured); err == nil {
			return secret, nil
		}
		return []byte(configured), nil
	}

	generated, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session secret: %w", err)
	}
	logger.Warn("Generated session secret, set AUTH_SESSION_SECRET to keep sessions across restarts")
	return hex.DecodeString(generated)
}
