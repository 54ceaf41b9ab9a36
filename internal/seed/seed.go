// Package seed loads the sample library used by the seed command and demo mode.
package seed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/database/authors"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/loans"
	"github.com/mrlokans/library/internal/database/users"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/services"
)

// DefaultPassword is shared by every seeded account.
const DefaultPassword = "password123"

type userSeed struct {
	Email string
	Name  string
	Role  entities.UserRole
}

type authorSeed struct {
	Name    string
	Bio     string
	Country string
	Books   []bookSeed
}

type bookSeed struct {
	Title         string
	ISBN          string
	PublishedYear int
	Description   string
	TotalCopies   int
}

var sampleUsers = []userSeed{
	{Email: "admin@library.com", Name: "Admin User", Role: entities.UserRoleAdmin},
	{Email: "john.doe@example.com", Name: "John Doe", Role: entities.UserRoleUser},
	{Email: "jane.smith@example.com", Name: "Jane Smith", Role: entities.UserRoleUser},
}

var sampleAuthors = []authorSeed{
	{
		Name:    "J.K. Rowling",
		Bio:     "British author best known for the Harry Potter series",
		Country: "United Kingdom",
		Books: []bookSeed{
			{"Harry Potter and the Sorcerer's Stone", "978-0439708180", 1997, "The first book in the Harry Potter series", 5},
		},
	},
	{
		Name:    "George Orwell",
		Bio:     "English novelist and essayist known for 1984 and Animal Farm",
		Country: "United Kingdom",
		Books: []bookSeed{
			{"1984", "978-0451524935", 1949, "Dystopian social science fiction novel", 3},
			{"Animal Farm", "978-0140278736", 1945, "Allegorical novella about Soviet Russia", 4},
		},
	},
	{
		Name:    "Agatha Christie",
		Bio:     "English writer known for mystery novels",
		Country: "United Kingdom",
		Books: []bookSeed{
			{"Murder on the Orient Express", "978-0062073488", 1934, "Detective novel featuring Hercule Poirot", 4},
		},
	},
	{
		Name:    "Stephen King",
		Bio:     "American author of horror, supernatural fiction, and fantasy",
		Country: "United States",
		Books: []bookSeed{
			{"The Shining", "978-0385121675", 1977, "Horror novel about the Overlook Hotel", 3},
		},
	},
}

// Accounts creates users.
type Accounts interface {
	CreateUser(ctx context.Context, email, name, password string, role entities.UserRole) (*entities.User, error)
}

// Catalog creates authors and books.
type Catalog interface {
	CreateAuthor(ctx context.Context, in services.AuthorInput) (*entities.Author, error)
	ListAuthors(ctx context.Context, search string) ([]entities.Author, error)
	CreateBook(ctx context.Context, in services.BookInput) (*entities.Book, error)
}

// Result counts the records a run created. Records that already existed are
// not counted.
type Result struct {
	Users   int
	Authors int
	Books   int
}

// Seeder loads the sample data through the service layer so every record
// passes the same validation as API input.
type Seeder struct {
	accounts Accounts
	catalog  Catalog
	logger   *zap.Logger
}

func New(accounts Accounts, catalog Catalog, logger *zap.Logger) *Seeder {
	return &Seeder{accounts: accounts, catalog: catalog, logger: logger.Named("seed")}
}

// ForDatabase wires a Seeder over an open database.
func ForDatabase(db *database.Database, cfg config.Auth, logger *zap.Logger) *Seeder {
	usersRepo := users.NewRepository(db.DB)
	accounts := auth.NewService(usersRepo, loans.NewRepository(db.DB), nil, cfg, logger)
	catalog := services.NewCatalogService(authors.NewRepository(db.DB), books.NewRepository(db.DB), nil, logger)
	return New(accounts, catalog, logger)
}

// Seed creates whatever part of the sample library is missing. Running it
// twice leaves the database unchanged.
func (s *Seeder) Seed(ctx context.Context) (*Result, error) {
	result := &Result{}

	for _, u := range sampleUsers {
		_, err := s.accounts.CreateUser(ctx, u.Email, u.Name, DefaultPassword, u.Role)
		switch {
		case err == nil:
			result.Users++
		case errors.Is(err, auth.ErrUserExists):
			s.logger.Debug("User already present", zap.String("email", u.Email))
		default:
			return result, fmt.Errorf("failed to seed user %s: %w", u.Email, err)
		}
	}

	for _, a := range sampleAuthors {
		author, created, err := s.ensureAuthor(ctx, a)
		if err != nil {
			return result, err
		}
		if created {
			result.Authors++
		}

		for _, b := range a.Books {
			_, err := s.catalog.CreateBook(ctx, services.BookInput{
				Title:         b.Title,
				ISBN:          b.ISBN,
				PublishedYear: b.PublishedYear,
				Description:   b.Description,
				TotalCopies:   b.TotalCopies,
				AuthorID:      author.ID,
			})
			switch {
			case err == nil:
				result.Books++
			case errors.Is(err, services.ErrDuplicateISBN):
				s.logger.Debug("Book already present", zap.String("isbn", b.ISBN))
			default:
				return result, fmt.Errorf("failed to seed book %q: %w", b.Title, err)
			}
		}
	}

	s.logger.Info("Sample data loaded",
		zap.Int("users", result.Users),
		zap.Int("authors", result.Authors),
		zap.Int("books", result.Books),
	)
	return result, nil
}

func (s *Seeder) ensureAuthor(ctx context.Context, a authorSeed) (*entities.Author, bool, error) {
	existing, err := s.catalog.ListAuthors(ctx, a.Name)
	if err != nil {
		return nil, false, fmt.Errorf("failed to look up author %s: %w", a.Name, err)
	}
	for i := range existing {
		if existing[i].Name == a.Name {
			return &existing[i], false, nil
		}
	}

	author, err := s.catalog.CreateAuthor(ctx, services.AuthorInput{Name: a.Name, Bio: a.Bio, Country: a.Country})
	if err != nil {
		return nil, false, fmt.Errorf("failed to seed author %s: %w", a.Name, err)
	}
	return author, true, nil
}
