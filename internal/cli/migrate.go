package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
)

var migrateActions = map[string]bool{"up": true, "down": true, "status": true, "version": true}

// MigrateCommand applies or inspects the goose schema migrations.
type MigrateCommand struct {
	Action   string
	Database config.Database
	Verbose  bool
}

func NewMigrateCommand(defaults config.Database) *MigrateCommand {
	return &MigrateCommand{Database: defaults}
}

func (cmd *MigrateCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	databaseFlags(fs, &cmd.Database, cmd.Database)
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s migrate [options] [up|down|status|version]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Manage the database schema. The default action is up.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cmd.Action = fs.Arg(0)
	if cmd.Action == "" {
		cmd.Action = "up"
	}
	if !migrateActions[cmd.Action] {
		return fmt.Errorf("unknown migrate action %q", cmd.Action)
	}
	return nil
}

func (cmd *MigrateCommand) Run() error {
	ctx := context.Background()

	db, err := database.Open(cmd.Database, newLogger(cmd.Verbose))
	if err != nil {
		return err
	}
	defer db.Close()

	switch cmd.Action {
	case "up":
		if err := db.MigrateUp(ctx); err != nil {
			return err
		}
	case "down":
		if err := db.MigrateDown(ctx); err != nil {
			return err
		}
	case "status":
		return db.MigrationStatus(ctx)
	}

	version, err := db.MigrationVersion(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Schema version: %d\n", version)
	return nil
}
