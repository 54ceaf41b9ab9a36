// Package books provides database operations for catalog books and their
// copy counters.
//
// The available_copies column is only ever changed by single conditional
// UPDATE statements so that concurrent writers cannot drive it out of
// [0, total_copies].
package books

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/entities"
)

// ErrTotalBelowOnLoan is returned by SetTotalCopies when the new total would
// not cover the copies currently lent out.
var ErrTotalBelowOnLoan = errors.New("total copies below copies on loan")

// ListFilter narrows ListBooks. Nil pointers disable the corresponding filter.
type ListFilter struct {
	Search    string
	AuthorID  string
	Available *bool
	YearFrom  *int
	YearTo    *int
	Page      int
	Limit     int
}

// CopyState is a book's counters next to the number of active loans.
type CopyState struct {
	ID              string
	Title           string
	TotalCopies     int
	AvailableCopies int
	ActiveLoans     int64
}

// Drift returns how far the stored counter is from what the loans imply.
func (s CopyState) Drift() int64 {
	return int64(s.TotalCopies-s.AvailableCopies) - s.ActiveLoans
}

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, book *entities.Book) error {
	return r.db.WithContext(ctx).Omit("Author", "ActiveLoans").Create(book).Error
}

// List returns one page of books ordered by title together with the total
// number of matches. Every book carries its author and loan record count.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]entities.Book, int64, error) {
	db := r.db.WithContext(ctx)
	query := db.Model(&entities.Book{})

	if f.Search != "" {
		query = query.Where(
			"("+database.ContainsExpr(db, "title")+" OR "+
				database.ContainsExpr(db, "isbn")+" OR "+
				database.ContainsExpr(db, "description")+")",
			f.Search, f.Search, f.Search,
		)
	}
	if f.AuthorID != "" {
		query = query.Where("author_id = ?", f.AuthorID)
	}
	if f.Available != nil {
		if *f.Available {
			query = query.Where("available_copies > 0")
		} else {
			query = query.Where("available_copies = 0")
		}
	}
	if f.YearFrom != nil {
		query = query.Where("published_year >= ?", *f.YearFrom)
	}
	if f.YearTo != nil {
		query = query.Where("published_year <= ?", *f.YearTo)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var list []entities.Book
	err := query.Preload("Author").
		Order("title ASC").
		Scopes(database.Page(f.Page, f.Limit)).
		Find(&list).Error
	if err != nil {
		return nil, 0, err
	}

	if err := r.attachLoanCounts(ctx, list); err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *Repository) attachLoanCounts(ctx context.Context, list []entities.Book) error {
	if len(list) == 0 {
		return nil
	}
	ids := make([]string, len(list))
	for i := range list {
		ids[i] = list[i].ID
	}

	var rows []struct {
		BookID string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&entities.Loan{}).
		Select("book_id, COUNT(*) AS count").
		Where("book_id IN ?", ids).
		Group("book_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.BookID] = row.Count
	}
	for i := range list {
		n := counts[list[i].ID]
		list[i].LoanCount = &n
	}
	return nil
}

// GetByID returns the book with its author and active loans, each loan
// carrying the borrower. Missing books yield gorm.ErrRecordNotFound.
func (r *Repository) GetByID(ctx context.Context, id string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("ActiveLoans", func(db *gorm.DB) *gorm.DB {
			return db.Where("status = ?", entities.LoanStatusBorrowed).Order("borrowed_at DESC")
		}).
		Preload("ActiveLoans.User").
		Where("id = ?", id).
		First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// Find returns the bare book row.
func (r *Repository) Find(ctx context.Context, id string) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&book).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// ISBNTaken reports whether another book already uses isbn. exceptID may be
// empty.
func (r *Repository) ISBNTaken(ctx context.Context, isbn, exceptID string) (bool, error) {
	query := r.db.WithContext(ctx).Model(&entities.Book{}).Where("isbn = ?", isbn)
	if exceptID != "" {
		query = query.Where("id <> ?", exceptID)
	}
	var count int64
	err := query.Count(&count).Error
	return count > 0, err
}

// Update applies column updates and, when totalCopies is set, moves the copy
// counters, all in one transaction. available_copies is never taken from
// updates.
func (r *Repository) Update(ctx context.Context, id string, updates map[string]any, totalCopies *int) error {
	delete(updates, "available_copies")
	delete(updates, "total_copies")
	if len(updates) == 0 && totalCopies == nil {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if totalCopies != nil {
			if err := setTotalCopies(tx, id, *totalCopies); err != nil {
				return err
			}
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&entities.Book{}).Where("id = ?", id).Updates(updates).Error
	})
}

// SetTotalCopies changes total_copies and shifts available_copies by the same
// delta in one statement. It fails with ErrTotalBelowOnLoan when fewer than
// total copies would remain for the loans outstanding.
func (r *Repository) SetTotalCopies(ctx context.Context, id string, total int) error {
	return setTotalCopies(r.db.WithContext(ctx), id, total)
}

func setTotalCopies(db *gorm.DB, id string, total int) error {
	result := db.Model(&entities.Book{}).
		Where("id = ? AND total_copies - available_copies <= ?", id, total).
		Updates(map[string]any{
			"available_copies": gorm.Expr("available_copies + (? - total_copies)", total),
			"total_copies":     total,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrTotalBelowOnLoan
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Book{})
	return result.RowsAffected > 0, result.Error
}

// CountLoans returns the number of loan records, active or not, for the book.
func (r *Repository) CountLoans(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Loan{}).Where("book_id = ?", id).Count(&count).Error
	return count, err
}

// CopyStates returns the counters of every book next to its active loan count.
func (r *Repository) CopyStates(ctx context.Context) ([]CopyState, error) {
	var states []CopyState
	err := r.db.WithContext(ctx).
		Table("books").
		Select("books.id, books.title, books.total_copies, books.available_copies, COUNT(loans.id) AS active_loans").
		Joins("LEFT JOIN loans ON loans.book_id = books.id AND loans.status = ?", entities.LoanStatusBorrowed).
		Group("books.id, books.title, books.total_copies, books.available_copies").
		Order("books.title ASC").
		Scan(&states).Error
	return states, err
}

// RecomputeAvailable rewrites available_copies from the active loans of the
// book, clamped to [0, total_copies].
func (r *Repository) RecomputeAvailable(ctx context.Context, id string) error {
	const active = "(SELECT COUNT(*) FROM loans WHERE loans.book_id = books.id AND loans.status = ?)"
	return r.db.WithContext(ctx).Model(&entities.Book{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"available_copies": gorm.Expr(
				"CASE WHEN "+active+" > total_copies THEN 0 ELSE total_copies - "+active+" END",
				entities.LoanStatusBorrowed, entities.LoanStatusBorrowed,
			),
		}).Error
}
