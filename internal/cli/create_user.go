package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/database/loans"
	"github.com/mrlokans/library/internal/database/users"
	"github.com/mrlokans/library/internal/entities"
)

// CreateUserCommand creates an account directly in the database, bypassing
// the registration rules. Used to bootstrap administrators.
type CreateUserCommand struct {
	Email      string
	Name       string
	Password   string
	Admin      bool
	Database   config.Database
	BcryptCost int
	Verbose    bool
}

func NewCreateUserCommand(cfg *config.Config) *CreateUserCommand {
	return &CreateUserCommand{Database: cfg.Database, BcryptCost: cfg.Auth.BcryptCost}
}

func (cmd *CreateUserCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	fs.StringVar(&cmd.Email, "email", "", "Email address (required)")
	fs.StringVar(&cmd.Name, "name", "", "Display name (required)")
	fs.StringVar(&cmd.Password, "password", "", "Password, at least 8 characters (required)")
	fs.BoolVar(&cmd.Admin, "admin", false, "Grant the ADMIN role")
	databaseFlags(fs, &cmd.Database, cmd.Database)
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-user -email <email> -name <name> -password <password> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample:\n")
		fmt.Fprintf(os.Stderr, "  %s create-user -email admin@library.com -name \"Admin User\" -password secret123 -admin\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case cmd.Email == "":
		return fmt.Errorf("required flag -email not provided")
	case cmd.Name == "":
		return fmt.Errorf("required flag -name not provided")
	case cmd.Password == "":
		return fmt.Errorf("required flag -password not provided")
	}
	return nil
}

func (cmd *CreateUserCommand) Run() error {
	logger := newLogger(cmd.Verbose)

	db, err := database.NewDatabase(cmd.Database, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	role := entities.UserRoleUser
	if cmd.Admin {
		role = entities.UserRoleAdmin
	}

	service := auth.NewService(users.NewRepository(db.DB), loans.NewRepository(db.DB), nil, config.Auth{BcryptCost: cmd.BcryptCost}, logger)
	user, err := service.CreateUser(context.Background(), cmd.Email, cmd.Name, cmd.Password, role)
	if err != nil {
		return err
	}

	fmt.Printf("Created %s user %s (%s)\n", user.Role, user.Email, user.ID)
	return nil
}
