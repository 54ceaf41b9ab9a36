// Command generate_demo creates a fresh demo database with the sample library.
// Usage: go run cmd/generate_demo/main.go [-db path/to/demo.db]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/seed"
)

func main() {
	dbPath := flag.String("db", config.DefaultDemoDatabasePath, "path to the demo database file")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(*dbPath, logger); err != nil {
		logger.Error("Demo database generation failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func run(dbPath string, logger *zap.Logger) error {
	logger.Info("Generating demo database", zap.String("path", dbPath))

	// Start from an empty file, including SQLite's WAL side files
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := os.Remove(dbPath + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove existing demo database: %w", err)
		}
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return fmt.Errorf("failed to create demo directory: %w", err)
	}

	db, err := database.NewDatabase(config.Database{Driver: config.DriverSQLite, Path: dbPath}, logger)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Error closing database", zap.Error(err))
		}
	}()

	result, err := seed.ForDatabase(db, config.Auth{BcryptCost: 10}, logger).Seed(context.Background())
	if err != nil {
		return fmt.Errorf("failed to seed demo database: %w", err)
	}

	logger.Info("Demo database ready",
		zap.Int("users", result.Users),
		zap.Int("authors", result.Authors),
		zap.Int("books", result.Books),
	)
	logger.Info("Sign in with a seeded account",
		zap.String("email", "admin@library.com"),
		zap.String("password", seed.DefaultPassword),
	)
	return nil
}
