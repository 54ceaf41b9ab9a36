package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/auth"
)

// LoansController serves the borrow/return workflow under /loans and its
// /borrowed-books alias.
type LoansController struct {
	service LoanService
	logger  *zap.Logger
}

func NewLoansController(service LoanService, logger *zap.Logger) *LoansController {
	return &LoansController{service: service, logger: logger}
}

// borrowRequest: userId defaults to the caller, dueDate to the configured
// loan period.
type borrowRequest struct {
	UserID  string `json:"userId"`
	BookID  string `json:"bookId" binding:"required"`
	DueDate string `json:"dueDate"`
}

// Borrow handles POST /loans/borrow
func (lc *LoansController) Borrow(c *gin.Context) {
	var req borrowRequest
	if !bindJSON(c, &req) {
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = auth.GetUserID(c)
	}
	if userID == "" {
		respondBadRequest(c, "userId is required")
		return
	}
	if !auth.CanActFor(c, userID) {
		respondForbidden(c)
		return
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		respondServiceError(c, lc.logger, err, "borrow")
		return
	}

	loan, err := lc.service.Borrow(c.Request.Context(), userID, req.BookID, dueDate)
	if err != nil {
		respondServiceError(c, lc.logger, err, "borrow")
		return
	}
	c.JSON(http.StatusCreated, loan)
}

// Return handles PATCH /loans/return/:id
func (lc *LoansController) Return(c *gin.Context) {
	ctx := c.Request.Context()
	loan, err := lc.service.Get(ctx, c.Param("id"))
	if err != nil {
		respondServiceError(c, lc.logger, err, "return")
		return
	}
	if !auth.CanActFor(c, loan.UserID) {
		respondForbidden(c)
		return
	}

	loan, err = lc.service.Return(ctx, loan.ID)
	if err != nil {
		respondServiceError(c, lc.logger, err, "return")
		return
	}
	c.JSON(http.StatusOK, loan)
}

// ListAll handles GET /loans?status=
func (lc *LoansController) ListAll(c *gin.Context) {
	loans, err := lc.service.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondServiceError(c, lc.logger, err, "list loans")
		return
	}
	c.JSON(http.StatusOK, loans)
}

// ListForUser handles GET /loans/user/:userId?status=
func (lc *LoansController) ListForUser(c *gin.Context) {
	userID := c.Param("userId")
	if !auth.CanActFor(c, userID) {
		respondForbidden(c)
		return
	}

	loans, err := lc.service.ListForUser(c.Request.Context(), userID, c.Query("status"))
	if err != nil {
		respondServiceError(c, lc.logger, err, "list user loans")
		return
	}
	c.JSON(http.StatusOK, loans)
}

// Get handles GET /loans/:id
func (lc *LoansController) Get(c *gin.Context) {
	loan, err := lc.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, lc.logger, err, "get loan")
		return
	}
	if !auth.CanActFor(c, loan.UserID) {
		respondForbidden(c)
		return
	}
	c.JSON(http.StatusOK, loan)
}
