package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/database/authors"
	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/database/dbtest"
	"github.com/mrlokans/library/internal/database/loans"
	"github.com/mrlokans/library/internal/database/users"
	"github.com/mrlokans/library/internal/entities"
)

type testEnv struct {
	db      *database.Database
	users   *users.Repository
	catalog *CatalogService
	loans   *LoanService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.Open(t)
	usersRepo := users.NewRepository(db.DB)
	booksRepo := books.NewRepository(db.DB)
	logger := zap.NewNop()

	return &testEnv{
		db:      db,
		users:   usersRepo,
		catalog: NewCatalogService(authors.NewRepository(db.DB), booksRepo, nil, logger),
		loans: NewLoanService(loans.NewRepository(db.DB), booksRepo, usersRepo, nil, config.Loans{
			DefaultPeriod: 14 * 24 * time.Hour,
			MaxPeriod:     90 * 24 * time.Hour,
		}, logger),
	}
}

func (e *testEnv) createUser(t *testing.T, email string) *entities.User {
	t.Helper()
	user := &entities.User{Email: email, Name: email, Role: entities.UserRoleUser}
	require.NoError(t, e.users.CreateUser(context.Background(), user))
	return user
}

func (e *testEnv) createAuthor(t *testing.T, name string) *entities.Author {
	t.Helper()
	author, err := e.catalog.CreateAuthor(context.Background(), AuthorInput{Name: name})
	require.NoError(t, err)
	return author
}

func (e *testEnv) createBook(t *testing.T, authorID, title, isbn string, year, copies int) *entities.Book {
	t.Helper()
	book, err := e.catalog.CreateBook(context.Background(), BookInput{
		Title:         title,
		ISBN:          isbn,
		PublishedYear: year,
		TotalCopies:   copies,
		AuthorID:      authorID,
	})
	require.NoError(t, err)
	return book
}

func (e *testEnv) book(t *testing.T, id string) *entities.Book {
	t.Helper()
	var book entities.Book
	require.NoError(t, e.db.DB.Where("id = ?", id).First(&book).Error)
	return &book
}

func (e *testEnv) loanCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.DB.Model(&entities.Loan{}).Count(&count).Error)
	return count
}

// assertCopiesConsistent checks 0 <= available <= total and that the copies on
// loan match the active loan records.
func (e *testEnv) assertCopiesConsistent(t *testing.T, bookID string) {
	t.Helper()
	book := e.book(t, bookID)
	assert.GreaterOrEqual(t, book.AvailableCopies, 0)
	assert.LessOrEqual(t, book.AvailableCopies, book.TotalCopies)

	var active int64
	require.NoError(t, e.db.DB.Model(&entities.Loan{}).
		Where("book_id = ? AND status = ?", bookID, entities.LoanStatusBorrowed).
		Count(&active).Error)
	assert.Equal(t, int64(book.TotalCopies-book.AvailableCopies), active)
}

func ptr[T any](v T) *T { return &v }
