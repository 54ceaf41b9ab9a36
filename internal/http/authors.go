package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/services"
)

// AuthorsController serves /authors.
type AuthorsController struct {
	service AuthorService
	logger  *zap.Logger
}

func NewAuthorsController(service AuthorService, logger *zap.Logger) *AuthorsController {
	return &AuthorsController{service: service, logger: logger}
}

type createAuthorRequest struct {
	Name    string `json:"name" binding:"required"`
	Bio     string `json:"bio"`
	Country string `json:"country"`
}

type updateAuthorRequest struct {
	Name    *string `json:"name"`
	Bio     *string `json:"bio"`
	Country *string `json:"country"`
}

// Create handles POST /authors
func (ac *AuthorsController) Create(c *gin.Context) {
	var req createAuthorRequest
	if !bindJSON(c, &req) {
		return
	}

	author, err := ac.service.CreateAuthor(c.Request.Context(), services.AuthorInput{
		Name:    req.Name,
		Bio:     req.Bio,
		Country: req.Country,
	})
	if err != nil {
		respondServiceError(c, ac.logger, err, "create author")
		return
	}
	c.JSON(http.StatusCreated, author)
}

// List handles GET /authors?search=
func (ac *AuthorsController) List(c *gin.Context) {
	authors, err := ac.service.ListAuthors(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondServiceError(c, ac.logger, err, "list authors")
		return
	}
	c.JSON(http.StatusOK, authors)
}

// Get handles GET /authors/:id
func (ac *AuthorsController) Get(c *gin.Context) {
	author, err := ac.service.GetAuthor(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, ac.logger, err, "get author")
		return
	}
	c.JSON(http.StatusOK, author)
}

// Update handles PATCH /authors/:id
func (ac *AuthorsController) Update(c *gin.Context) {
	var req updateAuthorRequest
	if !bindJSON(c, &req) {
		return
	}

	author, err := ac.service.UpdateAuthor(c.Request.Context(), c.Param("id"), services.AuthorPatch{
		Name:    req.Name,
		Bio:     req.Bio,
		Country: req.Country,
	})
	if err != nil {
		respondServiceError(c, ac.logger, err, "update author")
		return
	}
	c.JSON(http.StatusOK, author)
}

// Delete handles DELETE /authors/:id
func (ac *AuthorsController) Delete(c *gin.Context) {
	if err := ac.service.DeleteAuthor(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, ac.logger, err, "delete author")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "author deleted"})
}
