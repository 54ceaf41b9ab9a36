package cli

import (
	"flag"

	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/logging"
)

// databaseFlags registers the connection flags shared by every command that
// opens the database. Defaults come from the environment.
func databaseFlags(fs *flag.FlagSet, db *config.Database, defaults config.Database) {
	fs.StringVar(&db.Driver, "driver", defaults.Driver, "Database driver: sqlite or postgres")
	fs.StringVar(&db.Path, "db", defaults.Path, "Path to the SQLite database file")
	fs.StringVar(&db.DSN, "dsn", defaults.DSN, "Postgres connection string")
}

func newLogger(verbose bool) *zap.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(config.Log{Level: level, Format: "console"})
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
