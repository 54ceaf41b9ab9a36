package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Author struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Bio       string    `gorm:"type:text" json:"bio,omitempty"`
	Country   string    `gorm:"size:100" json:"country,omitempty"`
	Books     []Book    `gorm:"foreignKey:AuthorID" json:"books,omitempty"`
	BookCount *int64    `gorm:"-" json:"bookCount,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (a *Author) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// Book is a catalog title with a fixed number of physical copies.
// AvailableCopies always stays within [0, TotalCopies]; the difference is the
// number of active loans.
type Book struct {
	ID              string    `gorm:"primaryKey;size:36" json:"id"`
	Title           string    `gorm:"size:512;not null" json:"title"`
	ISBN            string    `gorm:"uniqueIndex;size:32;not null" json:"isbn"`
	PublishedYear   int       `json:"publishedYear"`
	Description     string    `gorm:"type:text" json:"description,omitempty"`
	TotalCopies     int       `json:"totalCopies"`
	AvailableCopies int       `json:"availableCopies"`
	AuthorID        string    `gorm:"size:36;index" json:"authorId"`
	Author          *Author   `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	ActiveLoans     []Loan    `gorm:"foreignKey:BookID" json:"activeLoans,omitempty"`
	LoanCount       *int64    `gorm:"-" json:"loanCount,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (b *Book) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// OnLoan returns the number of copies currently lent out.
func (b *Book) OnLoan() int {
	return b.TotalCopies - b.AvailableCopies
}
