package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/seed"
)

// SeedCommand loads the sample users, authors and books.
type SeedCommand struct {
	Database   config.Database
	BcryptCost int
	Verbose    bool
}

func NewSeedCommand(cfg *config.Config) *SeedCommand {
	return &SeedCommand{Database: cfg.Database, BcryptCost: cfg.Auth.BcryptCost}
}

func (cmd *SeedCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	databaseFlags(fs, &cmd.Database, cmd.Database)
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s seed [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Load sample users, authors and books. Records that already exist are kept.\n")
		fmt.Fprintf(os.Stderr, "Every sample account uses the password %q.\n\n", seed.DefaultPassword)
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *SeedCommand) Run() error {
	logger := newLogger(cmd.Verbose)

	db, err := database.NewDatabase(cmd.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := seed.ForDatabase(db, config.Auth{BcryptCost: cmd.BcryptCost}, logger).Seed(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("Created %d users, %d authors, %d books\n", result.Users, result.Authors, result.Books)
	return nil
}
