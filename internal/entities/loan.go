package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type LoanStatus string

const (
	LoanStatusBorrowed LoanStatus = "BORROWED"
	LoanStatusReturned LoanStatus = "RETURNED"
	// LoanStatusOverdue is never stored. It is derived for BORROWED loans whose
	// due date has passed.
	LoanStatusOverdue LoanStatus = "OVERDUE"
)

// Valid reports whether s is one of the known statuses.
func (s LoanStatus) Valid() bool {
	switch s {
	case LoanStatusBorrowed, LoanStatusReturned, LoanStatusOverdue:
		return true
	}
	return false
}

// Loan records one user borrowing one copy of a book.
type Loan struct {
	ID         string       `gorm:"primaryKey;size:36" json:"id"`
	UserID     string       `gorm:"size:36;index" json:"userId"`
	BookID     string       `gorm:"size:36;index" json:"bookId"`
	BorrowedAt time.Time    `json:"borrowedAt"`
	DueDate    time.Time    `json:"dueDate"`
	ReturnedAt *time.Time   `json:"returnedAt,omitempty"`
	Status     LoanStatus   `gorm:"size:10;default:'BORROWED'" json:"status"`
	User       *UserSummary `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Book       *Book        `gorm:"foreignKey:BookID" json:"book,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

func (l *Loan) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// IsOverdue reports whether the loan is still active past its due date.
func (l *Loan) IsOverdue(now time.Time) bool {
	return l.Status == LoanStatusBorrowed && l.DueDate.Before(now)
}

// WithDerivedStatus returns a copy of the loan whose Status reads OVERDUE when
// the loan is overdue at now.
func (l Loan) WithDerivedStatus(now time.Time) Loan {
	if l.IsOverdue(now) {
		l.Status = LoanStatusOverdue
	}
	return l
}
