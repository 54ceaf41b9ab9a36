package http

import (
	"context"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/library/internal/auth"
	auditrepo "github.com/mrlokans/library/internal/database/audit"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/services"
)

// Each controller depends on the narrow interface below instead of the
// concrete service, so tests can substitute fakes where a database is overkill.

// AuthorService is the author half of the catalog (authors.go).
type AuthorService interface {
	CreateAuthor(ctx context.Context, in services.AuthorInput) (*entities.Author, error)
	ListAuthors(ctx context.Context, search string) ([]entities.Author, error)
	GetAuthor(ctx context.Context, id string) (*entities.Author, error)
	UpdateAuthor(ctx context.Context, id string, patch services.AuthorPatch) (*entities.Author, error)
	DeleteAuthor(ctx context.Context, id string) error
}

// BookService is the book half of the catalog (books.go).
type BookService interface {
	CreateBook(ctx context.Context, in services.BookInput) (*entities.Book, error)
	ListBooks(ctx context.Context, q services.BookQuery) (*services.Page[entities.Book], error)
	GetBook(ctx context.Context, id string) (*entities.Book, error)
	UpdateBook(ctx context.Context, id string, patch services.BookPatch) (*entities.Book, error)
	DeleteBook(ctx context.Context, id string) error
}

// LoanService runs the borrow/return workflow (loans.go).
type LoanService interface {
	Borrow(ctx context.Context, userID, bookID string, dueDate time.Time) (*entities.Loan, error)
	Return(ctx context.Context, loanID string) (*entities.Loan, error)
	Get(ctx context.Context, id string) (*entities.Loan, error)
	ListForUser(ctx context.Context, userID, status string) ([]entities.Loan, error)
	ListAll(ctx context.Context, status string) ([]entities.Loan, error)
}

// AccountService manages users and credentials (auth.go, users.go).
type AccountService interface {
	Register(ctx context.Context, in auth.RegisterInput, caller *entities.User) (*entities.User, error)
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	Logout(ctx context.Context, userID string) error
	CreateUser(ctx context.Context, email, name, password string, role entities.UserRole) (*entities.User, error)
	GetUserByID(ctx context.Context, id string) (*entities.User, error)
	ListUsers(ctx context.Context) ([]entities.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// AuditReader reads the audit trail (audit.go).
type AuditReader interface {
	GetEvents(ctx context.Context, f auditrepo.Filter) ([]entities.AuditEvent, int64, error)
}

// TaskQueue enqueues and inspects background tasks (tasks.go).
type TaskQueue interface {
	Enqueue(ctx context.Context, task backlite.Task) (string, error)
	Status(ctx context.Context, taskID string) (backlite.TaskStatus, error)
}

// Pinger checks database connectivity (health.go).
type Pinger interface {
	Ping(ctx context.Context) error
}
