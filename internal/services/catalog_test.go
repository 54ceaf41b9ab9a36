package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		kind error
	}{
		{ErrBookNotFound, ErrNotFound},
		{ErrLoanNotFound, ErrNotFound},
		{ErrAuthorMissing, ErrValidation},
		{ErrNoCopiesAvailable, ErrValidation},
		{ErrInvalidStatus, ErrValidation},
		{ErrDuplicateISBN, ErrConflict},
		{ErrAlreadyBorrowed, ErrConflict},
		{ErrAlreadyReturned, ErrConflict},
		{Validationf("x %d", 1), ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.kind)
			wrapped := errors.Join(errors.New("context"), tt.err)
			assert.ErrorIs(t, wrapped, tt.kind)
		})
	}
	assert.NotErrorIs(t, ErrBookNotFound, ErrConflict)
}

func TestNewPage(t *testing.T) {
	tests := []struct {
		total      int64
		limit      int
		totalPages int
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{5, 2, 3},
	}
	for _, tt := range tests {
		page := NewPage[int](nil, tt.total, 1, tt.limit)
		assert.Equal(t, tt.totalPages, page.Meta.TotalPages, "total=%d limit=%d", tt.total, tt.limit)
		assert.NotNil(t, page.Data)
	}
}

func TestCatalog_Authors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("name is required", func(t *testing.T) {
		_, err := env.catalog.CreateAuthor(ctx, AuthorInput{Name: "   "})
		assert.ErrorIs(t, err, ErrValidation)
	})

	orwell, err := env.catalog.CreateAuthor(ctx, AuthorInput{Name: "George Orwell", Country: "UK"})
	require.NoError(t, err)
	assert.NotEmpty(t, orwell.ID)

	t.Run("names are not unique", func(t *testing.T) {
		_, err := env.catalog.CreateAuthor(ctx, AuthorInput{Name: "George Orwell"})
		assert.NoError(t, err)
	})

	t.Run("update", func(t *testing.T) {
		updated, err := env.catalog.UpdateAuthor(ctx, orwell.ID, AuthorPatch{Bio: ptr("English novelist")})
		require.NoError(t, err)
		assert.Equal(t, "English novelist", updated.Bio)
		assert.Equal(t, "George Orwell", updated.Name)

		_, err = env.catalog.UpdateAuthor(ctx, orwell.ID, AuthorPatch{Name: ptr("")})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = env.catalog.UpdateAuthor(ctx, "missing", AuthorPatch{Name: ptr("X")})
		assert.ErrorIs(t, err, ErrAuthorNotFound)
	})

	t.Run("get", func(t *testing.T) {
		_, err := env.catalog.GetAuthor(ctx, "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete with books conflicts", func(t *testing.T) {
		env.createBook(t, orwell.ID, "1984", "978-0451524935", 1949, 3)

		err := env.catalog.DeleteAuthor(ctx, orwell.ID)
		assert.ErrorIs(t, err, ErrAuthorHasBooks)
		assert.ErrorIs(t, err, ErrConflict)

		author, err := env.catalog.GetAuthor(ctx, orwell.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), *author.BookCount)
	})

	t.Run("delete", func(t *testing.T) {
		lonely := env.createAuthor(t, "Nobody")
		require.NoError(t, env.catalog.DeleteAuthor(ctx, lonely.ID))
		assert.ErrorIs(t, env.catalog.DeleteAuthor(ctx, lonely.ID), ErrAuthorNotFound)
	})

	t.Run("list", func(t *testing.T) {
		list, err := env.catalog.ListAuthors(ctx, "Orwell")
		require.NoError(t, err)
		assert.Len(t, list, 2)

		list, err = env.catalog.ListAuthors(ctx, "nobody-matches")
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)
	})
}

func TestCatalog_CreateBook(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.createAuthor(t, "J.K. Rowling")

	book, err := env.catalog.CreateBook(ctx, BookInput{
		Title:         "Harry Potter and the Sorcerer's Stone",
		ISBN:          "978-0439708180",
		PublishedYear: 1997,
		TotalCopies:   5,
		AuthorID:      author.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, book.AvailableCopies)
	require.NotNil(t, book.Author)
	assert.Equal(t, "J.K. Rowling", book.Author.Name)

	tests := []struct {
		name  string
		input BookInput
		want  error
	}{
		{"duplicate isbn", BookInput{Title: "Copy", ISBN: "978-0439708180", PublishedYear: 1997, TotalCopies: 1, AuthorID: author.ID}, ErrDuplicateISBN},
		{"unknown author", BookInput{Title: "Ghost", ISBN: "1", PublishedYear: 1997, TotalCopies: 1, AuthorID: "missing"}, ErrAuthorMissing},
		{"year before 1000", BookInput{Title: "Old", ISBN: "2", PublishedYear: 999, TotalCopies: 1, AuthorID: author.ID}, ErrValidation},
		{"no copies", BookInput{Title: "None", ISBN: "3", PublishedYear: 1997, TotalCopies: 0, AuthorID: author.ID}, ErrValidation},
		{"missing title", BookInput{ISBN: "4", PublishedYear: 1997, TotalCopies: 1, AuthorID: author.ID}, ErrValidation},
		{"missing isbn", BookInput{Title: "No ISBN", PublishedYear: 1997, TotalCopies: 1, AuthorID: author.ID}, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.catalog.CreateBook(ctx, tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	assert.ErrorIs(t, ErrDuplicateISBN, ErrConflict)
	assert.ErrorIs(t, ErrAuthorMissing, ErrValidation)
}

func TestCatalog_ListBooks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	orwell := env.createAuthor(t, "George Orwell")
	king := env.createAuthor(t, "Stephen King")

	env.createBook(t, orwell.ID, "1984", "978-0451524935", 1949, 3)
	env.createBook(t, orwell.ID, "Animal Farm", "978-0140278736", 1945, 4)
	shining := env.createBook(t, king.ID, "The Shining", "978-0385121675", 1977, 1)

	user := env.createUser(t, "reader@example.com")
	_, err := env.loans.Borrow(ctx, user.ID, shining.ID, time.Time{})
	require.NoError(t, err)

	t.Run("defaults", func(t *testing.T) {
		page, err := env.catalog.ListBooks(ctx, BookQuery{})
		require.NoError(t, err)
		assert.Equal(t, PageMeta{Total: 3, Page: 1, Limit: 20, TotalPages: 1}, page.Meta)
		assert.Equal(t, "1984", page.Data[0].Title)
	})

	t.Run("available excludes books without copies", func(t *testing.T) {
		page, err := env.catalog.ListBooks(ctx, BookQuery{Available: ptr(true)})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Meta.Total)
		for _, b := range page.Data {
			assert.Positive(t, b.AvailableCopies)
		}

		page, err = env.catalog.ListBooks(ctx, BookQuery{Available: ptr(false)})
		require.NoError(t, err)
		require.Len(t, page.Data, 1)
		assert.Equal(t, shining.ID, page.Data[0].ID)
		assert.Equal(t, int64(1), *page.Data[0].LoanCount)
	})

	t.Run("year range excludes 1977", func(t *testing.T) {
		page, err := env.catalog.ListBooks(ctx, BookQuery{YearFrom: ptr(1900), YearTo: ptr(1950)})
		require.NoError(t, err)
		assert.Equal(t, int64(2), page.Meta.Total)
		for _, b := range page.Data {
			assert.NotEqual(t, 1977, b.PublishedYear)
		}
	})

	t.Run("author filter", func(t *testing.T) {
		page, err := env.catalog.ListBooks(ctx, BookQuery{AuthorID: king.ID})
		require.NoError(t, err)
		assert.Equal(t, int64(1), page.Meta.Total)
	})

	t.Run("pagination", func(t *testing.T) {
		page, err := env.catalog.ListBooks(ctx, BookQuery{Page: 2, Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, PageMeta{Total: 3, Page: 2, Limit: 2, TotalPages: 2}, page.Meta)
		require.Len(t, page.Data, 1)
		assert.Equal(t, "The Shining", page.Data[0].Title)
	})

	t.Run("limit is capped", func(t *testing.T) {
		page, err := env.catalog.ListBooks(ctx, BookQuery{Limit: 1000})
		require.NoError(t, err)
		assert.Equal(t, MaxPageSize, page.Meta.Limit)
	})

	t.Run("invalid paging", func(t *testing.T) {
		_, err := env.catalog.ListBooks(ctx, BookQuery{Page: -1})
		assert.ErrorIs(t, err, ErrValidation)
		_, err = env.catalog.ListBooks(ctx, BookQuery{Limit: -5})
		assert.ErrorIs(t, err, ErrValidation)
		_, err = env.catalog.ListBooks(ctx, BookQuery{YearFrom: ptr(999)})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestCatalog_GetBook_IncludesBorrowers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.createAuthor(t, "Agatha Christie")
	book := env.createBook(t, author.ID, "Murder on the Orient Express", "978-0062073488", 1934, 4)
	user := env.createUser(t, "jane.smith@example.com")

	_, err := env.loans.Borrow(ctx, user.ID, book.ID, time.Time{})
	require.NoError(t, err)

	got, err := env.catalog.GetBook(ctx, book.ID)
	require.NoError(t, err)
	require.Len(t, got.ActiveLoans, 1)
	require.NotNil(t, got.ActiveLoans[0].User)
	assert.Equal(t, "jane.smith@example.com", got.ActiveLoans[0].User.Email)

	_, err = env.catalog.GetBook(ctx, "missing")
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestCatalog_UpdateBook(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	orwell := env.createAuthor(t, "George Orwell")
	king := env.createAuthor(t, "Stephen King")
	book := env.createBook(t, orwell.ID, "1984", "978-0451524935", 1949, 3)
	env.createBook(t, orwell.ID, "Animal Farm", "978-0140278736", 1945, 4)

	u1 := env.createUser(t, "a@example.com")
	u2 := env.createUser(t, "b@example.com")
	for _, u := range []string{u1.ID, u2.ID} {
		_, err := env.loans.Borrow(ctx, u, book.ID, time.Time{})
		require.NoError(t, err)
	}

	t.Run("unknown id", func(t *testing.T) {
		_, err := env.catalog.UpdateBook(ctx, "missing", BookPatch{Title: ptr("X")})
		assert.ErrorIs(t, err, ErrBookNotFound)
	})

	t.Run("unknown author", func(t *testing.T) {
		_, err := env.catalog.UpdateBook(ctx, book.ID, BookPatch{AuthorID: ptr("missing")})
		assert.ErrorIs(t, err, ErrAuthorMissing)
	})

	t.Run("duplicate isbn", func(t *testing.T) {
		_, err := env.catalog.UpdateBook(ctx, book.ID, BookPatch{ISBN: ptr("978-0140278736")})
		assert.ErrorIs(t, err, ErrDuplicateISBN)
	})

	t.Run("keeping own isbn is fine", func(t *testing.T) {
		_, err := env.catalog.UpdateBook(ctx, book.ID, BookPatch{ISBN: ptr("978-0451524935")})
		assert.NoError(t, err)
	})

	t.Run("available copies are read only", func(t *testing.T) {
		_, err := env.catalog.UpdateBook(ctx, book.ID, BookPatch{AvailableCopies: ptr(3)})
		assert.ErrorIs(t, err, ErrAvailableReadOnly)
	})

	t.Run("raising total shifts available", func(t *testing.T) {
		updated, err := env.catalog.UpdateBook(ctx, book.ID, BookPatch{TotalCopies: ptr(6)})
		require.NoError(t, err)
		assert.Equal(t, 6, updated.TotalCopies)
		assert.Equal(t, 4, updated.AvailableCopies)
		env.assertCopiesConsistent(t, book.ID)
	})

	t.Run("total below copies on loan", func(t *testing.T) {
		_, err := env.catalog.UpdateBook(ctx, book.ID, BookPatch{TotalCopies: ptr(1), Title: ptr("Renamed")})
		assert.ErrorIs(t, err, ErrTotalBelowOnLoan)
		assert.Equal(t, "1984", env.book(t, book.ID).Title)
		env.assertCopiesConsistent(t, book.ID)
	})

	t.Run("lowering total to copies on loan", func(t *testing.T) {
		updated, err := env.catalog.UpdateBook(ctx, book.ID, BookPatch{TotalCopies: ptr(2), AuthorID: ptr(king.ID)})
		require.NoError(t, err)
		assert.Equal(t, 0, updated.AvailableCopies)
		assert.Equal(t, "Stephen King", updated.Author.Name)
		env.assertCopiesConsistent(t, book.ID)
	})
}

func TestCatalog_DeleteBook(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := env.createAuthor(t, "Stephen King")
	lent := env.createBook(t, author.ID, "The Shining", "978-0385121675", 1977, 3)
	unused := env.createBook(t, author.ID, "It", "978-0670813025", 1986, 1)

	user := env.createUser(t, "reader@example.com")
	loan, err := env.loans.Borrow(ctx, user.ID, lent.ID, time.Time{})
	require.NoError(t, err)
	_, err = env.loans.Return(ctx, loan.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, env.catalog.DeleteBook(ctx, lent.ID), ErrBookHasLoans)
	assert.ErrorIs(t, env.catalog.DeleteBook(ctx, "missing"), ErrBookNotFound)

	require.NoError(t, env.catalog.DeleteBook(ctx, unused.ID))
	_, err = env.catalog.GetBook(ctx, unused.ID)
	assert.ErrorIs(t, err, ErrBookNotFound)
}
