package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/entities"
)

// AuthController serves /auth: registration, login and the caller's identity.
type AuthController struct {
	accounts AccountService
	sessions *auth.SessionManager
	limiter  *auth.RateLimiter
	logger   *zap.Logger
}

// NewAuthController creates the controller. sessions and limiter may be nil.
func NewAuthController(accounts AccountService, sessions *auth.SessionManager, limiter *auth.RateLimiter, logger *zap.Logger) *AuthController {
	return &AuthController{
		accounts: accounts,
		sessions: sessions,
		limiter:  limiter,
		logger:   logger,
	}
}

type registerRequest struct {
	Email    string            `json:"email" binding:"required"`
	Name     string            `json:"name" binding:"required"`
	Password string            `json:"password" binding:"required"`
	Role     entities.UserRole `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register handles POST /auth/register
func (ac *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := ac.accounts.Register(c.Request.Context(), auth.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Role:     req.Role,
	}, auth.CurrentUser(c))
	if err != nil {
		respondServiceError(c, ac.logger, err, "register")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Login handles POST /auth/login
func (ac *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	ip := c.ClientIP()
	if ac.limiter != nil {
		if allowed, retryAfter := ac.limiter.Allow(ip, req.Email); !allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			respondError(c, http.StatusTooManyRequests, "too many login attempts, try again later")
			return
		}
	}

	result, err := ac.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if ac.limiter != nil && errors.Is(err, auth.ErrInvalidCredentials) {
			ac.limiter.RecordFailure(ip, req.Email)
		}
		respondServiceError(c, ac.logger, err, "login")
		return
	}
	if ac.limiter != nil {
		ac.limiter.RecordSuccess(ip, req.Email)
	}

	if ac.sessions != nil {
		if err := ac.sessions.CreateSession(c.Request, result.User); err != nil {
			respondInternalError(c, ac.logger, err, "create session")
			return
		}
	}
	c.JSON(http.StatusOK, result)
}

// Logout handles POST /auth/logout
func (ac *AuthController) Logout(c *gin.Context) {
	ctx := c.Request.Context()
	if userID := auth.GetUserID(c); userID != "" {
		if err := ac.accounts.Logout(ctx, userID); err != nil {
			respondServiceError(c, ac.logger, err, "logout")
			return
		}
	}
	if ac.sessions != nil {
		if err := ac.sessions.DestroySession(c.Request); err != nil {
			ac.logger.Warn("Failed to destroy session", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

// Me handles GET /auth/me
func (ac *AuthController) Me(c *gin.Context) {
	c.JSON(http.StatusOK, auth.CurrentUser(c))
}

// CSRFToken handles GET /auth/csrf
func (ac *AuthController) CSRFToken(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"csrfToken": auth.GetCSRFToken(c)})
}
