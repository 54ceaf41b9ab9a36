package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/services"
)

// BooksController serves /books.
type BooksController struct {
	service BookService
	logger  *zap.Logger
}

func NewBooksController(service BookService, logger *zap.Logger) *BooksController {
	return &BooksController{service: service, logger: logger}
}

type createBookRequest struct {
	Title         string `json:"title" binding:"required"`
	ISBN          string `json:"isbn" binding:"required"`
	PublishedYear *int   `json:"publishedYear" binding:"required"`
	Description   string `json:"description"`
	TotalCopies   *int   `json:"totalCopies" binding:"required"`
	AuthorID      string `json:"authorId" binding:"required"`
}

// updateBookRequest accepts availableCopies only to reject it with a clear
// message.
type updateBookRequest struct {
	Title           *string `json:"title"`
	ISBN            *string `json:"isbn"`
	PublishedYear   *int    `json:"publishedYear"`
	Description     *string `json:"description"`
	TotalCopies     *int    `json:"totalCopies"`
	AuthorID        *string `json:"authorId"`
	AvailableCopies *int    `json:"availableCopies"`
}

// Create handles POST /books
func (bc *BooksController) Create(c *gin.Context) {
	var req createBookRequest
	if !bindJSON(c, &req) {
		return
	}

	book, err := bc.service.CreateBook(c.Request.Context(), services.BookInput{
		Title:         req.Title,
		ISBN:          req.ISBN,
		PublishedYear: *req.PublishedYear,
		Description:   req.Description,
		TotalCopies:   *req.TotalCopies,
		AuthorID:      req.AuthorID,
	})
	if err != nil {
		respondServiceError(c, bc.logger, err, "create book")
		return
	}
	c.JSON(http.StatusCreated, book)
}

// List handles GET /books with search, filter and pagination parameters.
func (bc *BooksController) List(c *gin.Context) {
	q := services.BookQuery{
		Search:   c.Query("search"),
		AuthorID: c.Query("authorId"),
	}

	var ok bool
	if q.Available, ok = parseBoolQuery(c, "available"); !ok {
		return
	}
	if q.YearFrom, ok = parseIntQuery(c, "publishedYearFrom"); !ok {
		return
	}
	if q.YearTo, ok = parseIntQuery(c, "publishedYearTo"); !ok {
		return
	}

	page, ok := parseIntQuery(c, "page")
	if !ok {
		return
	}
	limit, ok := parseIntQuery(c, "limit")
	if !ok {
		return
	}
	// Zero means "default" to the service, so explicit values are checked here.
	if page != nil {
		if *page < 1 {
			respondBadRequest(c, "page must be at least 1")
			return
		}
		q.Page = *page
	}
	if limit != nil {
		if *limit < 1 {
			respondBadRequest(c, "limit must be at least 1")
			return
		}
		q.Limit = *limit
	}

	result, err := bc.service.ListBooks(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, bc.logger, err, "list books")
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get handles GET /books/:id
func (bc *BooksController) Get(c *gin.Context) {
	book, err := bc.service.GetBook(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, bc.logger, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// Update handles PATCH /books/:id
func (bc *BooksController) Update(c *gin.Context) {
	var req updateBookRequest
	if !bindJSON(c, &req) {
		return
	}

	book, err := bc.service.UpdateBook(c.Request.Context(), c.Param("id"), services.BookPatch{
		Title:           req.Title,
		ISBN:            req.ISBN,
		PublishedYear:   req.PublishedYear,
		Description:     req.Description,
		TotalCopies:     req.TotalCopies,
		AuthorID:        req.AuthorID,
		AvailableCopies: req.AvailableCopies,
	})
	if err != nil {
		respondServiceError(c, bc.logger, err, "update book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// Delete handles DELETE /books/:id
func (bc *BooksController) Delete(c *gin.Context) {
	if err := bc.service.DeleteBook(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, bc.logger, err, "delete book")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "book deleted"})
}
