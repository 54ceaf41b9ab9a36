package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // No authentication required, every caller acts as administrator
	AuthModeLocal AuthMode = "local" // Local user database with bearer tokens and sessions
)

type (
	Config struct {
		HTTP
		Global
		Database
		Log
		Auth
		Loans
		Tasks
		Audit
		Reconcile
		Demo

		EnvFile string // Set when an env file was loaded
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Driver string // "sqlite" or "postgres"
		Path   string // SQLite file path
		DSN    string // Postgres connection string
	}
	Log struct {
		Level  string // debug, info, warn, error
		Format string // json or console
	}
	Auth struct {
		Mode            AuthMode
		SessionSecret   string
		SessionsEnabled bool
		SessionLifetime time.Duration
		TokenExpiry     time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		// Rate limiting configuration
		MaxLoginAttempts int           // Max failed attempts before lockout (default: 5)
		RateLimitWindow  time.Duration // Time window for counting attempts (default: 15m)
		LockoutDuration  time.Duration // How long to lock out (default: 30m)
	}
	Loans struct {
		DefaultPeriod time.Duration // Used when a borrow request carries no due date
		MaxPeriod     time.Duration // Upper bound for dueDate - now; zero disables the check
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Audit struct {
		RetentionDays   int    // Days to keep audit events (default: 90)
		CleanupSchedule string // Cron format: "30 3 * * *" = daily at 03:30
	}
	Reconcile struct {
		Schedule string // Cron format: "0 * * * *" = hourly
		Repair   bool   // Rewrite drifted counters instead of only reporting them
	}
	Demo struct {
		Enabled bool   // Block write operations
		DBPath  string // Database used in demo mode
		Seed    bool   // Seed the demo database with sample catalog data
	}
)

func NewConfig() *Config {
	// Load .env file if it exists, logged by the caller once a logger is up
	var envFile string
	if err := godotenv.Load(envFileName); err == nil {
		envFile = envFileName
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 3000)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 5)

	v.SetDefault("database_driver", DriverSQLite)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_dsn", "")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")

	// Auth defaults
	v.SetDefault("auth_mode", "local")
	v.SetDefault("auth_session_secret", "")       // Auto-generated if empty
	v.SetDefault("auth_sessions_enabled", true)   // Cookie sessions next to bearer tokens
	v.SetDefault("auth_session_lifetime", "24h")  // 24 hours
	v.SetDefault("auth_token_expiry", "168h")     // 7 days
	v.SetDefault("auth_bcrypt_cost", 12)          // bcrypt cost factor
	v.SetDefault("auth_secure_cookies", true)     // HTTPS-only cookies
	v.SetDefault("auth_max_login_attempts", 5)    // Max failed attempts
	v.SetDefault("auth_rate_limit_window", "15m") // Window for counting attempts
	v.SetDefault("auth_lockout_duration", "30m")  // Lockout duration

	v.SetDefault("loan_default_period", "336h") // 14 days
	v.SetDefault("loan_max_period", "0")        // Unbounded unless set

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	v.SetDefault("audit_retention_days", 90)
	v.SetDefault("audit_cleanup_schedule", "30 3 * * *")
	v.SetDefault("reconcile_schedule", "0 * * * *")
	v.SetDefault("reconcile_repair", false)

	// Demo mode defaults
	v.SetDefault("demo_mode", false)
	v.SetDefault("demo_db_path", DefaultDemoDatabasePath)
	v.SetDefault("demo_seed", true)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Driver: v.GetString("DATABASE_DRIVER"),
			Path:   v.GetString("DATABASE_PATH"),
			DSN:    v.GetString("DATABASE_DSN"),
		},
		Log: Log{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Auth: Auth{
			Mode:             AuthMode(v.GetString("AUTH_MODE")),
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionsEnabled:  v.GetBool("AUTH_SESSIONS_ENABLED"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			TokenExpiry:      v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Loans: Loans{
			DefaultPeriod: v.GetDuration("LOAN_DEFAULT_PERIOD"),
			MaxPeriod:     v.GetDuration("LOAN_MAX_PERIOD"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Audit: Audit{
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Reconcile: Reconcile{
			Schedule: v.GetString("RECONCILE_SCHEDULE"),
			Repair:   v.GetBool("RECONCILE_REPAIR"),
		},
		Demo: Demo{
			Enabled: v.GetBool("DEMO_MODE"),
			DBPath:  v.GetString("DEMO_DB_PATH"),
			Seed:    v.GetBool("DEMO_SEED"),
		},
		EnvFile: envFile,
	}
}

// Target describes the database location for logs without exposing credentials.
func (d Database) Target() string {
	if d.Driver == DriverPostgres {
		return "postgres"
	}
	if d.Path == "" {
		return DefaultDatabasePath
	}
	return d.Path
}
