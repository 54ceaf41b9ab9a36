package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database/loans"
	"github.com/mrlokans/library/internal/entities"
)

const defaultLoanPeriod = 14 * 24 * time.Hour

// LoanService runs the borrow/return workflow.
//
// Availability is guarded twice: the up-front checks give precise errors, and
// the store repeats them atomically (conditional decrement plus a partial
// unique index) so concurrent borrows of the last copy cannot both succeed.
type LoanService struct {
	loans  LoanStore
	books  BookStore
	users  UserFinder
	audit  AuditRecorder
	cfg    config.Loans
	logger *zap.Logger
	now    func() time.Time
}

func NewLoanService(loanStore LoanStore, bookStore BookStore, users UserFinder, recorder AuditRecorder, cfg config.Loans, logger *zap.Logger) *LoanService {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &LoanService{
		loans:  loanStore,
		books:  bookStore,
		users:  users,
		audit:  recorder,
		cfg:    cfg,
		logger: logger.Named("loans"),
		now:    time.Now,
	}
}

// ParseStatus validates an optional status filter. The empty string means no
// filter.
func ParseStatus(raw string) (entities.LoanStatus, error) {
	if raw == "" {
		return "", nil
	}
	status := entities.LoanStatus(raw)
	if !status.Valid() {
		return "", ErrInvalidStatus
	}
	return status, nil
}

// Borrow lends one copy of a book to a user until dueDate. A zero dueDate
// selects the configured default loan period.
func (s *LoanService) Borrow(ctx context.Context, userID, bookID string, dueDate time.Time) (*entities.Loan, error) {
	now := s.now().UTC()
	dueDate, err := s.resolveDueDate(now, dueDate)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	book, err := s.books.Find(ctx, bookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	if book.AvailableCopies <= 0 {
		return nil, ErrNoCopiesAvailable
	}

	active, err := s.loans.HasActive(ctx, userID, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to check active loans: %w", err)
	}
	if active {
		return nil, ErrAlreadyBorrowed
	}

	loan := &entities.Loan{
		UserID:     userID,
		BookID:     bookID,
		BorrowedAt: now,
		DueDate:    dueDate,
		Status:     entities.LoanStatusBorrowed,
	}
	if err := s.loans.Borrow(ctx, loan); err != nil {
		switch {
		case errors.Is(err, loans.ErrNoCopies):
			return nil, ErrNoCopiesAvailable
		case errors.Is(err, loans.ErrActiveLoanExists):
			return nil, ErrAlreadyBorrowed
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to borrow book: %w", err)
	}

	s.logger.Info("Book borrowed",
		zap.String("loan_id", loan.ID),
		zap.String("user_id", userID),
		zap.String("book_id", bookID),
		zap.Time("due_date", dueDate),
	)
	s.audit.LogLoan(ctx, "loan_borrow", loan.ID, "Borrowed "+book.Title, map[string]any{
		"book_id":  bookID,
		"user_id":  userID,
		"due_date": dueDate.Format(time.RFC3339),
	})
	return s.Get(ctx, loan.ID)
}

func (s *LoanService) resolveDueDate(now, dueDate time.Time) (time.Time, error) {
	if dueDate.IsZero() {
		period := s.cfg.DefaultPeriod
		if period <= 0 {
			period = defaultLoanPeriod
		}
		return now.Add(period), nil
	}

	dueDate = dueDate.UTC()
	if !dueDate.After(now) {
		return time.Time{}, ErrDueDateInPast
	}
	if s.cfg.MaxPeriod > 0 && dueDate.Sub(now) > s.cfg.MaxPeriod {
		return time.Time{}, ErrDueDateTooFar
	}
	return dueDate, nil
}

// Return closes an active loan and gives its copy back.
func (s *LoanService) Return(ctx context.Context, loanID string) (*entities.Loan, error) {
	loan, err := s.find(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if loan.Status == entities.LoanStatusReturned {
		return nil, ErrAlreadyReturned
	}

	if err := s.loans.Return(ctx, loan, s.now().UTC()); err != nil {
		switch {
		case errors.Is(err, loans.ErrNotBorrowed):
			return nil, ErrAlreadyReturned
		case errors.Is(err, loans.ErrCopyOverflow):
			s.logger.Error("Copy counter out of sync on return",
				zap.String("loan_id", loanID),
				zap.String("book_id", loan.BookID),
			)
			return nil, fmt.Errorf("failed to return loan %s: %w", loanID, err)
		}
		return nil, fmt.Errorf("failed to return loan: %w", err)
	}

	s.logger.Info("Book returned",
		zap.String("loan_id", loanID),
		zap.String("user_id", loan.UserID),
		zap.String("book_id", loan.BookID),
	)
	s.audit.LogLoan(ctx, "loan_return", loanID, "Returned loan", map[string]any{
		"book_id": loan.BookID,
		"user_id": loan.UserID,
	})
	return s.Get(ctx, loanID)
}

// Get returns one loan with its status as seen now.
func (s *LoanService) Get(ctx context.Context, id string) (*entities.Loan, error) {
	loan, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	derived := loan.WithDerivedStatus(s.now())
	return &derived, nil
}

// ListForUser returns the loans of one user, newest first.
func (s *LoanService) ListForUser(ctx context.Context, userID, status string) ([]entities.Loan, error) {
	return s.list(ctx, userID, status)
}

// ListAll returns every loan, newest first.
func (s *LoanService) ListAll(ctx context.Context, status string) ([]entities.Loan, error) {
	return s.list(ctx, "", status)
}

func (s *LoanService) list(ctx context.Context, userID, rawStatus string) ([]entities.Loan, error) {
	status, err := ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	list, err := s.loans.List(ctx, loans.Filter{UserID: userID, Status: status, Now: now})
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}

	out := make([]entities.Loan, len(list))
	for i := range list {
		out[i] = list[i].WithDerivedStatus(now)
	}
	return out, nil
}

func (s *LoanService) find(ctx context.Context, id string) (*entities.Loan, error) {
	loan, err := s.loans.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, fmt.Errorf("failed to get loan: %w", err)
	}
	return loan, nil
}
