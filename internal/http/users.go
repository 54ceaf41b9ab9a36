package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/entities"
)

// UsersController serves the admin-only /users endpoints.
type UsersController struct {
	accounts AccountService
	logger   *zap.Logger
}

func NewUsersController(accounts AccountService, logger *zap.Logger) *UsersController {
	return &UsersController{accounts: accounts, logger: logger}
}

type createUserRequest struct {
	Email    string            `json:"email" binding:"required"`
	Name     string            `json:"name" binding:"required"`
	Password string            `json:"password" binding:"required"`
	Role     entities.UserRole `json:"role"`
}

// List handles GET /users
func (uc *UsersController) List(c *gin.Context) {
	users, err := uc.accounts.ListUsers(c.Request.Context())
	if err != nil {
		respondServiceError(c, uc.logger, err, "list users")
		return
	}
	c.JSON(http.StatusOK, users)
}

// Get handles GET /users/:id
func (uc *UsersController) Get(c *gin.Context) {
	user, err := uc.accounts.GetUserByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, uc.logger, err, "get user")
		return
	}
	c.JSON(http.StatusOK, user)
}

// Create handles POST /users. Unlike registration the role is taken as given.
func (uc *UsersController) Create(c *gin.Context) {
	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Role == "" {
		req.Role = entities.UserRoleUser
	}

	user, err := uc.accounts.CreateUser(c.Request.Context(), req.Email, req.Name, req.Password, req.Role)
	if err != nil {
		respondServiceError(c, uc.logger, err, "create user")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Delete handles DELETE /users/:id
func (uc *UsersController) Delete(c *gin.Context) {
	if err := uc.accounts.DeleteUser(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, uc.logger, err, "delete user")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "user deleted"})
}
