package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/database/books"
	"github.com/mrlokans/library/internal/entities"
)

const (
	DefaultPageSize  = 20
	MaxPageSize      = 100
	MinPublishedYear = 1000
)

type AuthorInput struct {
	Name    string
	Bio     string
	Country string
}

// AuthorPatch carries a partial author update. Nil fields are left alone.
type AuthorPatch struct {
	Name    *string
	Bio     *string
	Country *string
}

type BookInput struct {
	Title         string
	ISBN          string
	PublishedYear int
	Description   string
	TotalCopies   int
	AuthorID      string
}

// BookPatch carries a partial book update. Nil fields are left alone.
// AvailableCopies exists only so that attempts to set it can be rejected.
type BookPatch struct {
	Title           *string
	ISBN            *string
	PublishedYear   *int
	Description     *string
	TotalCopies     *int
	AuthorID        *string
	AvailableCopies *int
}

// BookQuery describes a book listing. Zero Page and Limit select the defaults.
type BookQuery struct {
	Search    string
	AuthorID  string
	Available *bool
	YearFrom  *int
	YearTo    *int
	Page      int
	Limit     int
}

type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

// Page is one page of a listing in the API envelope.
type Page[T any] struct {
	Data []T      `json:"data"`
	Meta PageMeta `json:"meta"`
}

// NewPage builds the envelope; totalPages is ceil(total/limit).
func NewPage[T any](data []T, total int64, page, limit int) *Page[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	return &Page[T]{
		Data: data,
		Meta: PageMeta{Total: total, Page: page, Limit: limit, TotalPages: totalPages},
	}
}

// CatalogService manages authors and books.
type CatalogService struct {
	authors AuthorStore
	books   BookStore
	audit   AuditRecorder
	logger  *zap.Logger
}

func NewCatalogService(authors AuthorStore, books BookStore, recorder AuditRecorder, logger *zap.Logger) *CatalogService {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &CatalogService{
		authors: authors,
		books:   books,
		audit:   recorder,
		logger:  logger.Named("catalog"),
	}
}

func (s *CatalogService) CreateAuthor(ctx context.Context, in AuthorInput) (*entities.Author, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, Validationf("name is required")
	}

	author := &entities.Author{
		Name:    name,
		Bio:     strings.TrimSpace(in.Bio),
		Country: strings.TrimSpace(in.Country),
	}
	if err := s.authors.Create(ctx, author); err != nil {
		return nil, fmt.Errorf("failed to create author: %w", err)
	}

	s.audit.LogCatalog(ctx, "author_create", "author", author.ID, "Created author "+author.Name)
	return author, nil
}

// ListAuthors returns authors whose name or country contains search.
func (s *CatalogService) ListAuthors(ctx context.Context, search string) ([]entities.Author, error) {
	list, err := s.authors.List(ctx, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list authors: %w", err)
	}
	if list == nil {
		list = []entities.Author{}
	}
	return list, nil
}

func (s *CatalogService) GetAuthor(ctx context.Context, id string) (*entities.Author, error) {
	author, err := s.authors.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuthorNotFound
		}
		return nil, fmt.Errorf("failed to get author: %w", err)
	}
	return author, nil
}

func (s *CatalogService) UpdateAuthor(ctx context.Context, id string, patch AuthorPatch) (*entities.Author, error) {
	updates := map[string]any{}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, Validationf("name must not be empty")
		}
		updates["name"] = name
	}
	if patch.Bio != nil {
		updates["bio"] = strings.TrimSpace(*patch.Bio)
	}
	if patch.Country != nil {
		updates["country"] = strings.TrimSpace(*patch.Country)
	}

	found, err := s.authors.Update(ctx, id, updates)
	if err != nil {
		return nil, fmt.Errorf("failed to update author: %w", err)
	}
	if !found {
		return nil, ErrAuthorNotFound
	}

	s.audit.LogCatalog(ctx, "author_update", "author", id, "Updated author")
	return s.GetAuthor(ctx, id)
}

// DeleteAuthor removes an author that has no books.
func (s *CatalogService) DeleteAuthor(ctx context.Context, id string) error {
	exists, err := s.authors.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check author: %w", err)
	}
	if !exists {
		return ErrAuthorNotFound
	}

	count, err := s.authors.CountBooks(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count author books: %w", err)
	}
	if count > 0 {
		return ErrAuthorHasBooks
	}

	deleted, err := s.authors.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return ErrAuthorHasBooks
		}
		return fmt.Errorf("failed to delete author: %w", err)
	}
	if !deleted {
		return ErrAuthorNotFound
	}

	s.audit.LogCatalog(ctx, "author_delete", "author", id, "Deleted author")
	return nil
}

func validateBookInput(in BookInput) error {
	switch {
	case strings.TrimSpace(in.Title) == "":
		return Validationf("title is required")
	case strings.TrimSpace(in.ISBN) == "":
		return Validationf("isbn is required")
	case in.PublishedYear < MinPublishedYear:
		return Validationf("publishedYear must be at least %d", MinPublishedYear)
	case in.TotalCopies < 1:
		return Validationf("totalCopies must be at least 1")
	case strings.TrimSpace(in.AuthorID) == "":
		return Validationf("authorId is required")
	}
	return nil
}

// CreateBook adds a book with every copy available.
func (s *CatalogService) CreateBook(ctx context.Context, in BookInput) (*entities.Book, error) {
	if err := validateBookInput(in); err != nil {
		return nil, err
	}
	isbn := strings.TrimSpace(in.ISBN)

	if err := s.requireAuthor(ctx, in.AuthorID); err != nil {
		return nil, err
	}
	taken, err := s.books.ISBNTaken(ctx, isbn, "")
	if err != nil {
		return nil, fmt.Errorf("failed to check isbn: %w", err)
	}
	if taken {
		return nil, ErrDuplicateISBN
	}

	book := &entities.Book{
		Title:           strings.TrimSpace(in.Title),
		ISBN:            isbn,
		PublishedYear:   in.PublishedYear,
		Description:     strings.TrimSpace(in.Description),
		TotalCopies:     in.TotalCopies,
		AvailableCopies: in.TotalCopies,
		AuthorID:        in.AuthorID,
	}
	if err := s.books.Create(ctx, book); err != nil {
		switch {
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, ErrDuplicateISBN
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			return nil, ErrAuthorMissing
		}
		return nil, fmt.Errorf("failed to create book: %w", err)
	}

	s.audit.LogCatalog(ctx, "book_create", "book", book.ID, "Created book "+book.Title)
	return s.GetBook(ctx, book.ID)
}

// ListBooks returns one page of books matching q, ordered by title.
func (s *CatalogService) ListBooks(ctx context.Context, q BookQuery) (*Page[entities.Book], error) {
	page, limit := q.Page, q.Limit
	if page == 0 {
		page = 1
	}
	if limit == 0 {
		limit = DefaultPageSize
	}
	if page < 1 {
		return nil, Validationf("page must be at least 1")
	}
	if limit < 1 {
		return nil, Validationf("limit must be at least 1")
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if q.YearFrom != nil && *q.YearFrom < MinPublishedYear {
		return nil, Validationf("publishedYearFrom must be at least %d", MinPublishedYear)
	}
	if q.YearTo != nil && *q.YearTo < MinPublishedYear {
		return nil, Validationf("publishedYearTo must be at least %d", MinPublishedYear)
	}

	list, total, err := s.books.List(ctx, books.ListFilter{
		Search:    q.Search,
		AuthorID:  q.AuthorID,
		Available: q.Available,
		YearFrom:  q.YearFrom,
		YearTo:    q.YearTo,
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	return NewPage(list, total, page, limit), nil
}

// GetBook returns the book with its author and current borrowers.
func (s *CatalogService) GetBook(ctx context.Context, id string) (*entities.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return book, nil
}

// UpdateBook applies a partial update. A new total shifts the available
// copies by the same delta and may not drop below the copies on loan.
func (s *CatalogService) UpdateBook(ctx context.Context, id string, patch BookPatch) (*entities.Book, error) {
	if _, err := s.findBook(ctx, id); err != nil {
		return nil, err
	}
	if patch.AvailableCopies != nil {
		return nil, ErrAvailableReadOnly
	}

	updates := map[string]any{}
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, Validationf("title must not be empty")
		}
		updates["title"] = title
	}
	if patch.Description != nil {
		updates["description"] = strings.TrimSpace(*patch.Description)
	}
	if patch.PublishedYear != nil {
		if *patch.PublishedYear < MinPublishedYear {
			return nil, Validationf("publishedYear must be at least %d", MinPublishedYear)
		}
		updates["published_year"] = *patch.PublishedYear
	}
	if patch.TotalCopies != nil && *patch.TotalCopies < 1 {
		return nil, Validationf("totalCopies must be at least 1")
	}
	if patch.AuthorID != nil {
		if err := s.requireAuthor(ctx, *patch.AuthorID); err != nil {
			return nil, err
		}
		updates["author_id"] = *patch.AuthorID
	}
	if patch.ISBN != nil {
		isbn := strings.TrimSpace(*patch.ISBN)
		if isbn == "" {
			return nil, Validationf("isbn must not be empty")
		}
		taken, err := s.books.ISBNTaken(ctx, isbn, id)
		if err != nil {
			return nil, fmt.Errorf("failed to check isbn: %w", err)
		}
		if taken {
			return nil, ErrDuplicateISBN
		}
		updates["isbn"] = isbn
	}

	if err := s.books.Update(ctx, id, updates, patch.TotalCopies); err != nil {
		switch {
		case errors.Is(err, books.ErrTotalBelowOnLoan):
			return nil, ErrTotalBelowOnLoan
		case errors.Is(err, gorm.ErrDuplicatedKey):
			return nil, ErrDuplicateISBN
		case errors.Is(err, gorm.ErrForeignKeyViolated):
			return nil, ErrAuthorMissing
		}
		return nil, fmt.Errorf("failed to update book: %w", err)
	}

	s.audit.LogCatalog(ctx, "book_update", "book", id, "Updated book")
	return s.GetBook(ctx, id)
}

// DeleteBook removes a book that has never been lent out.
func (s *CatalogService) DeleteBook(ctx context.Context, id string) error {
	book, err := s.findBook(ctx, id)
	if err != nil {
		return err
	}

	count, err := s.books.CountLoans(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count book loans: %w", err)
	}
	if count > 0 {
		return ErrBookHasLoans
	}

	deleted, err := s.books.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return ErrBookHasLoans
		}
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if !deleted {
		return ErrBookNotFound
	}

	s.audit.LogCatalog(ctx, "book_delete", "book", id, "Deleted book "+book.Title)
	return nil
}

func (s *CatalogService) findBook(ctx context.Context, id string) (*entities.Book, error) {
	book, err := s.books.Find(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book: %w", err)
	}
	return book, nil
}

func (s *CatalogService) requireAuthor(ctx context.Context, id string) error {
	exists, err := s.authors.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check author: %w", err)
	}
	if !exists {
		return ErrAuthorMissing
	}
	return nil
}
