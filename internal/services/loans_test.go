package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/library/internal/entities"
)

func TestLoans_Scenario(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.createAuthor(t, "George Orwell")
	book := env.createBook(t, author.ID, "1984", "978-0451524935", 1949, 1)
	a := env.createUser(t, "a@example.com")
	b := env.createUser(t, "b@example.com")
	due := time.Now().Add(7 * 24 * time.Hour)

	loanA, err := env.loans.Borrow(ctx, a.ID, book.ID, due)
	require.NoError(t, err)
	assert.Equal(t, entities.LoanStatusBorrowed, loanA.Status)
	assert.Equal(t, 0, env.book(t, book.ID).AvailableCopies)
	env.assertCopiesConsistent(t, book.ID)

	_, err = env.loans.Borrow(ctx, b.ID, book.ID, due)
	assert.ErrorIs(t, err, ErrNoCopiesAvailable)
	assert.ErrorIs(t, err, ErrValidation)

	returned, err := env.loans.Return(ctx, loanA.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.LoanStatusReturned, returned.Status)
	require.NotNil(t, returned.ReturnedAt)
	assert.Equal(t, 1, env.book(t, book.ID).AvailableCopies)
	env.assertCopiesConsistent(t, book.ID)

	loanB, err := env.loans.Borrow(ctx, b.ID, book.ID, due)
	require.NoError(t, err)
	assert.Equal(t, b.ID, loanB.UserID)
	env.assertCopiesConsistent(t, book.ID)
}

func TestLoans_Borrow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.createAuthor(t, "Agatha Christie")
	book := env.createBook(t, author.ID, "Murder on the Orient Express", "978-0062073488", 1934, 4)
	user := env.createUser(t, "john.doe@example.com")

	loan, err := env.loans.Borrow(ctx, user.ID, book.ID, time.Now().Add(24*time.Hour))
	require.NoError(t, err)

	t.Run("result is joined", func(t *testing.T) {
		require.NotNil(t, loan.User)
		assert.Equal(t, "john.doe@example.com", loan.User.Email)
		require.NotNil(t, loan.Book)
		require.NotNil(t, loan.Book.Author)
		assert.Equal(t, "Agatha Christie", loan.Book.Author.Name)
		assert.Equal(t, 3, loan.Book.AvailableCopies)
	})

	t.Run("second active loan conflicts without state change", func(t *testing.T) {
		_, err := env.loans.Borrow(ctx, user.ID, book.ID, time.Now().Add(24*time.Hour))
		assert.ErrorIs(t, err, ErrAlreadyBorrowed)
		assert.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, 3, env.book(t, book.ID).AvailableCopies)
		assert.Equal(t, int64(1), env.loanCount(t))
	})

	t.Run("past due date is rejected before the duplicate check", func(t *testing.T) {
		_, err := env.loans.Borrow(ctx, user.ID, book.ID, time.Now().Add(-24*time.Hour))
		assert.ErrorIs(t, err, ErrDueDateInPast)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, int64(1), env.loanCount(t))
	})

	t.Run("past due date for an unknown user", func(t *testing.T) {
		_, err := env.loans.Borrow(ctx, "missing", book.ID, time.Now().Add(-time.Hour))
		assert.ErrorIs(t, err, ErrDueDateInPast)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := env.loans.Borrow(ctx, "missing", book.ID, time.Time{})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("unknown book", func(t *testing.T) {
		_, err := env.loans.Borrow(ctx, user.ID, "missing", time.Time{})
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	other := env.createUser(t, "jane.smith@example.com")

	t.Run("due date in the past", func(t *testing.T) {
		_, err := env.loans.Borrow(ctx, other.ID, book.ID, time.Now().Add(-time.Hour))
		assert.ErrorIs(t, err, ErrDueDateInPast)
		assert.Equal(t, 3, env.book(t, book.ID).AvailableCopies)
	})

	t.Run("due date beyond max period", func(t *testing.T) {
		_, err := env.loans.Borrow(ctx, other.ID, book.ID, time.Now().Add(365*24*time.Hour))
		assert.ErrorIs(t, err, ErrDueDateTooFar)
	})

	t.Run("default due date", func(t *testing.T) {
		loan, err := env.loans.Borrow(ctx, other.ID, book.ID, time.Time{})
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().Add(14*24*time.Hour), loan.DueDate, time.Minute)
	})

	env.assertCopiesConsistent(t, book.ID)
}

func TestLoans_NoCopiesCausesNoStateChange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.createAuthor(t, "Stephen King")
	book := env.createBook(t, author.ID, "The Shining", "978-0385121675", 1977, 1)
	a := env.createUser(t, "a@example.com")
	b := env.createUser(t, "b@example.com")

	_, err := env.loans.Borrow(ctx, a.ID, book.ID, time.Time{})
	require.NoError(t, err)
	before := env.loanCount(t)

	_, err = env.loans.Borrow(ctx, b.ID, book.ID, time.Time{})
	assert.ErrorIs(t, err, ErrNoCopiesAvailable)
	assert.Equal(t, before, env.loanCount(t))
	assert.Equal(t, 0, env.book(t, book.ID).AvailableCopies)
}

func TestLoans_Return(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.createAuthor(t, "Stephen King")
	book := env.createBook(t, author.ID, "The Shining", "978-0385121675", 1977, 3)
	user := env.createUser(t, "reader@example.com")

	loan, err := env.loans.Borrow(ctx, user.ID, book.ID, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, env.book(t, book.ID).AvailableCopies)

	_, err = env.loans.Return(ctx, loan.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, env.book(t, book.ID).AvailableCopies)

	t.Run("double return conflicts without state change", func(t *testing.T) {
		_, err := env.loans.Return(ctx, loan.ID)
		assert.ErrorIs(t, err, ErrAlreadyReturned)
		assert.ErrorIs(t, err, ErrConflict)
		assert.Equal(t, 3, env.book(t, book.ID).AvailableCopies)
	})

	t.Run("unknown loan", func(t *testing.T) {
		_, err := env.loans.Return(ctx, "missing")
		assert.ErrorIs(t, err, ErrLoanNotFound)
	})

	t.Run("re-borrow creates a fresh record", func(t *testing.T) {
		again, err := env.loans.Borrow(ctx, user.ID, book.ID, time.Time{})
		require.NoError(t, err)
		assert.NotEqual(t, loan.ID, again.ID)
		assert.Equal(t, int64(2), env.loanCount(t))
	})

	env.assertCopiesConsistent(t, book.ID)
}

func TestLoans_OverdueDerivation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.createAuthor(t, "George Orwell")
	book := env.createBook(t, author.ID, "Animal Farm", "978-0140278736", 1945, 4)
	late := env.createUser(t, "late@example.com")
	punctual := env.createUser(t, "punctual@example.com")
	done := env.createUser(t, "done@example.com")

	lateLoan, err := env.loans.Borrow(ctx, late.ID, book.ID, time.Now().Add(24*time.Hour))
	require.NoError(t, err)
	_, err = env.loans.Borrow(ctx, punctual.ID, book.ID, time.Now().Add(10*24*time.Hour))
	require.NoError(t, err)
	doneLoan, err := env.loans.Borrow(ctx, done.ID, book.ID, time.Now().Add(24*time.Hour))
	require.NoError(t, err)
	_, err = env.loans.Return(ctx, doneLoan.ID)
	require.NoError(t, err)

	// Three days later the first loan is overdue.
	env.loans.now = func() time.Time { return time.Now().Add(3 * 24 * time.Hour) }

	got, err := env.loans.Get(ctx, lateLoan.ID)
	require.NoError(t, err)
	assert.Equal(t, entities.LoanStatusOverdue, got.Status)

	tests := []struct {
		status string
		want   int
	}{
		{"", 3},
		{"OVERDUE", 1},
		{"BORROWED", 1},
		{"RETURNED", 1},
	}
	for _, tt := range tests {
		t.Run("status "+tt.status, func(t *testing.T) {
			list, err := env.loans.ListAll(ctx, tt.status)
			require.NoError(t, err)
			assert.Len(t, list, tt.want)
			if tt.status != "" {
				for _, l := range list {
					assert.Equal(t, entities.LoanStatus(tt.status), l.Status)
				}
			}
		})
	}

	t.Run("user filter", func(t *testing.T) {
		list, err := env.loans.ListForUser(ctx, late.ID, "OVERDUE")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, lateLoan.ID, list[0].ID)

		list, err = env.loans.ListForUser(ctx, punctual.ID, "OVERDUE")
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("stored status is never overdue", func(t *testing.T) {
		var stored entities.Loan
		require.NoError(t, env.db.DB.Where("id = ?", lateLoan.ID).First(&stored).Error)
		assert.Equal(t, entities.LoanStatusBorrowed, stored.Status)
	})

	t.Run("overdue loans can be returned", func(t *testing.T) {
		returned, err := env.loans.Return(ctx, lateLoan.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.LoanStatusReturned, returned.Status)
	})
}

func TestLoans_InvalidStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.loans.ListAll(ctx, "LOST")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = env.loans.ListForUser(ctx, "someone", "borrowed")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLoans_ConcurrentBorrowOfLastCopy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.createAuthor(t, "J.K. Rowling")
	book := env.createBook(t, author.ID, "Harry Potter and the Sorcerer's Stone", "978-0439708180", 1997, 1)

	const borrowers = 8
	userIDs := make([]string, borrowers)
	for i := range userIDs {
		userIDs[i] = env.createUser(t, fmt.Sprintf("user%d@example.com", i)).ID
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	start := make(chan struct{})
	for _, id := range userIDs {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			<-start
			_, err := env.loans.Borrow(ctx, userID, book.ID, time.Time{})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			failures = append(failures, err)
		}(id)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	for _, err := range failures {
		assert.ErrorIs(t, err, ErrNoCopiesAvailable)
	}
	assert.Equal(t, 0, env.book(t, book.ID).AvailableCopies)
	assert.Equal(t, int64(1), env.loanCount(t))
	env.assertCopiesConsistent(t, book.ID)
}
