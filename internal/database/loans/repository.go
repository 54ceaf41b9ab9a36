// Package loans provides database operations for loan records, including the
// transactional borrow and return writes that keep a book's available copy
// counter in step with its active loans.
package loans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/entities"
)

var (
	// ErrNoCopies means the conditional decrement matched no row.
	ErrNoCopies = errors.New("no copies available")
	// ErrActiveLoanExists means the insert hit the one-active-loan index.
	ErrActiveLoanExists = errors.New("active loan already exists")
	// ErrNotBorrowed means the loan was no longer active when returned.
	ErrNotBorrowed = errors.New("loan is not borrowed")
	// ErrCopyOverflow means a return would push available copies past the total.
	ErrCopyOverflow = errors.New("available copies already at total")
)

// Filter narrows List. A zero Filter lists every loan.
type Filter struct {
	UserID string
	Status entities.LoanStatus
	// Now splits active loans into BORROWED and OVERDUE.
	Now time.Time
}

// Repository handles all loan database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new loans repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Borrow takes one copy of the loan's book and inserts the loan in a single
// transaction. Either both writes commit or neither does.
func (r *Repository) Borrow(ctx context.Context, loan *entities.Loan) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entities.Book{}).
			Where("id = ? AND available_copies > 0", loan.BookID).
			Updates(map[string]any{"available_copies": gorm.Expr("available_copies - 1")})
		if result.Error != nil {
			return fmt.Errorf("failed to take copy: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNoCopies
		}

		if err := tx.Omit("User", "Book").Create(loan).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrActiveLoanExists
			}
			return fmt.Errorf("failed to create loan: %w", err)
		}
		return nil
	})
}

// Return marks an active loan RETURNED and gives the copy back in a single
// transaction.
func (r *Repository) Return(ctx context.Context, loan *entities.Loan, returnedAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entities.Loan{}).
			Where("id = ? AND status = ?", loan.ID, entities.LoanStatusBorrowed).
			Updates(map[string]any{
				"status":      entities.LoanStatusReturned,
				"returned_at": returnedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to close loan: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrNotBorrowed
		}

		result = tx.Model(&entities.Book{}).
			Where("id = ? AND available_copies < total_copies", loan.BookID).
			Updates(map[string]any{"available_copies": gorm.Expr("available_copies + 1")})
		if result.Error != nil {
			return fmt.Errorf("failed to restore copy: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return ErrCopyOverflow
		}
		return nil
	})
}

// GetByID returns the loan joined with its borrower and book+author, or
// gorm.ErrRecordNotFound.
func (r *Repository) GetByID(ctx context.Context, id string) (*entities.Loan, error) {
	var loan entities.Loan
	err := r.joined(ctx).Where("id = ?", id).First(&loan).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// List returns loans ordered by borrowed_at, newest first.
func (r *Repository) List(ctx context.Context, f Filter) ([]entities.Loan, error) {
	query := r.joined(ctx)
	if f.UserID != "" {
		query = query.Where("user_id = ?", f.UserID)
	}

	now := f.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	switch f.Status {
	case entities.LoanStatusBorrowed:
		query = query.Where("status = ? AND due_date >= ?", entities.LoanStatusBorrowed, now)
	case entities.LoanStatusOverdue:
		query = query.Where("status = ? AND due_date < ?", entities.LoanStatusBorrowed, now)
	case entities.LoanStatusReturned:
		query = query.Where("status = ?", entities.LoanStatusReturned)
	}

	var list []entities.Loan
	if err := query.Order("borrowed_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// HasActive reports whether the user currently holds the book.
func (r *Repository) HasActive(ctx context.Context, userID, bookID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Loan{}).
		Where("user_id = ? AND book_id = ? AND status = ?", userID, bookID, entities.LoanStatusBorrowed).
		Count(&count).Error
	return count > 0, err
}

// CountActiveForBook returns the number of BORROWED records for the book.
func (r *Repository) CountActiveForBook(ctx context.Context, bookID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Loan{}).
		Where("book_id = ? AND status = ?", bookID, entities.LoanStatusBorrowed).
		Count(&count).Error
	return count, err
}

// CountForUser returns the number of loan records, active or not, of a user.
func (r *Repository) CountForUser(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Loan{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *Repository) joined(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("User").Preload("Book.Author")
}
