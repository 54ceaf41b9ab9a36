package services

import (
	"context"
	"time"

	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/loans"
	"github.com/mrlokans/library/internal/entities"
)

// AuthorStore is the persistence the catalog needs for authors.
type AuthorStore interface {
	Create(ctx context.Context, author *entities.Author) error
	List(ctx context.Context, search string) ([]entities.Author, error)
	GetByID(ctx context.Context, id string) (*entities.Author, error)
	Exists(ctx context.Context, id string) (bool, error)
	Update(ctx context.Context, id string, updates map[string]any) (bool, error)
	Delete(ctx context.Context, id string) (bool, error)
	CountBooks(ctx context.Context, id string) (int64, error)
}

// BookStore is the persistence the catalog and loans need for books.
type BookStore interface {
	Create(ctx context.Context, book *entities.Book) error
	List(ctx context.Context, f books.ListFilter) ([]entities.Book, int64, error)
	GetByID(ctx context.Context, id string) (*entities.Book, error)
	Find(ctx context.Context, id string) (*entities.Book, error)
	ISBNTaken(ctx context.Context, isbn, exceptID string) (bool, error)
	Update(ctx context.Context, id string, updates map[string]any, totalCopies *int) error
	Delete(ctx context.Context, id string) (bool, error)
	CountLoans(ctx context.Context, id string) (int64, error)
}

// LoanStore is the persistence of loan records.
type LoanStore interface {
	Borrow(ctx context.Context, loan *entities.Loan) error
	Return(ctx context.Context, loan *entities.Loan, returnedAt time.Time) error
	GetByID(ctx context.Context, id string) (*entities.Loan, error)
	List(ctx context.Context, f loans.Filter) ([]entities.Loan, error)
	HasActive(ctx context.Context, userID, bookID string) (bool, error)
}

// UserFinder resolves borrowers.
type UserFinder interface {
	GetUserByID(ctx context.Context, id string) (*entities.User, error)
}

// AuditRecorder receives catalog and loan events. The caller identity is read
// from ctx by the implementation.
type AuditRecorder interface {
	LogCatalog(ctx context.Context, action, entityType, entityID, description string)
	LogLoan(ctx context.Context, action, loanID, description string, metadata map[string]any)
}

type noopRecorder struct{}

func (noopRecorder) LogCatalog(context.Context, string, string, string, string)      {}
func (noopRecorder) LogLoan(context.Context, string, string, string, map[string]any) {}
