package database

import (
	"context"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/config"
)

// gooseLogger routes goose output through zap.
type gooseLogger struct {
	s *zap.SugaredLogger
}

func (l gooseLogger) Printf(format string, v ...interface{}) {
	l.s.Infof(format, v...)
}

func (l gooseLogger) Fatalf(format string, v ...interface{}) {
	l.s.Fatalf(format, v...)
}

func (d *Database) migrationsDir() string {
	if d.driver == config.DriverPostgres {
		return "migrations/postgres"
	}
	return "migrations/sqlite"
}

func (d *Database) gooseDialect() string {
	if d.driver == config.DriverPostgres {
		return "postgres"
	}
	return "sqlite3"
}

// withGoose configures goose for this database and runs fn while holding the
// package lock.
func (d *Database) withGoose(fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{s: d.logger.Named("goose").Sugar()})
	if err := goose.SetDialect(d.gooseDialect()); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return fn()
}

// MigrateUp applies all pending migrations.
func (d *Database) MigrateUp(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return d.withGoose(func() error {
		return goose.UpContext(ctx, sqlDB, d.migrationsDir())
	})
}

// MigrateDown rolls back the most recent migration.
func (d *Database) MigrateDown(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return d.withGoose(func() error {
		return goose.DownContext(ctx, sqlDB, d.migrationsDir())
	})
}

// MigrationStatus logs the applied state of every migration.
func (d *Database) MigrationStatus(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return d.withGoose(func() error {
		return goose.StatusContext(ctx, sqlDB, d.migrationsDir())
	})
}

// MigrationVersion returns the current schema version.
func (d *Database) MigrationVersion(ctx context.Context) (int64, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return 0, err
	}
	var version int64
	err = d.withGoose(func() error {
		v, err := goose.GetDBVersionContext(ctx, sqlDB)
		version = v
		return err
	})
	return version, err
}
