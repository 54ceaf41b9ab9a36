package services

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the services that is caused by the
// caller wraps exactly one of these, so callers can branch with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
)

// Error is a caller-facing failure with a human-readable message.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Unwrap() error { return e.kind }

func newError(kind error, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// NewError builds a caller-facing error of the given kind for packages that
// share this taxonomy.
func NewError(kind error, msg string) error {
	return newError(kind, msg)
}

// Validationf builds a validation error with a formatted message.
func Validationf(format string, args ...any) error {
	return newError(ErrValidation, fmt.Sprintf(format, args...))
}

var (
	ErrAuthorNotFound = newError(ErrNotFound, "author not found")
	ErrBookNotFound   = newError(ErrNotFound, "book not found")
	ErrUserNotFound   = newError(ErrNotFound, "user not found")
	ErrLoanNotFound   = newError(ErrNotFound, "borrowed book record not found")

	ErrAuthorMissing     = newError(ErrValidation, "author does not exist")
	ErrNoCopiesAvailable = newError(ErrValidation, "no copies available")
	ErrInvalidStatus     = newError(ErrValidation, "status must be one of BORROWED, RETURNED, OVERDUE")
	ErrTotalBelowOnLoan  = newError(ErrValidation, "total copies cannot be less than the copies currently on loan")
	ErrAvailableReadOnly = newError(ErrValidation, "available copies are derived from loans and cannot be set")
	ErrDueDateInPast     = newError(ErrValidation, "due date must be in the future")
	ErrDueDateTooFar     = newError(ErrValidation, "due date exceeds the maximum loan period")

	ErrDuplicateISBN   = newError(ErrConflict, "a book with this ISBN already exists")
	ErrAlreadyBorrowed = newError(ErrConflict, "user has already borrowed this book")
	ErrAlreadyReturned = newError(ErrConflict, "book already returned")
	ErrAuthorHasBooks  = newError(ErrConflict, "author still has books")
	ErrBookHasLoans    = newError(ErrConflict, "book has loan records")
)
