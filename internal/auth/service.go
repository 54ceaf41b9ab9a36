package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/entities"
	"github.com/mrlokans/library/internal/services"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var (
	ErrUserNotFound = services.ErrUserNotFound

	ErrEmailRequired    = services.NewError(services.ErrValidation, "email is required")
	ErrEmailInvalid     = services.NewError(services.ErrValidation, "invalid email format")
	ErrNameRequired     = services.NewError(services.ErrValidation, "name is required")
	ErrPasswordRequired = services.NewError(services.ErrValidation, "password is required")
	ErrInvalidRole      = services.NewError(services.ErrValidation, "role must be USER or ADMIN")

	ErrUserExists   = services.NewError(services.ErrConflict, "a user with this email already exists")
	ErrUserHasLoans = services.NewError(services.ErrConflict, "user has loan records")

	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is locked due to too many failed login attempts")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

// UserStore is the user persistence the service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *entities.User) error
	GetUserByID(ctx context.Context, id string) (*entities.User, error)
	GetUserByEmail(ctx context.Context, email string) (*entities.User, error)
	GetUserByTokenHash(ctx context.Context, hash string) (*entities.User, error)
	ListUsers(ctx context.Context) ([]entities.User, error)
	UpdateUser(ctx context.Context, id string, updates map[string]any) (bool, error)
	DeleteUser(ctx context.Context, id string) (bool, error)
	CountUsers(ctx context.Context) (int64, error)
}

// LoanCounter reports how many loan records reference a user.
type LoanCounter interface {
	CountForUser(ctx context.Context, userID string) (int64, error)
}

// EventRecorder receives authentication and user administration events.
type EventRecorder interface {
	LogAuth(ctx context.Context, userID, action string, success bool)
	LogUsers(ctx context.Context, action, targetID, description string)
}

type noopRecorder struct{}

func (noopRecorder) LogAuth(context.Context, string, string, bool)     {}
func (noopRecorder) LogUsers(context.Context, string, string, string) {}

// RegisterInput carries a self-service or administrative signup.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Role     entities.UserRole
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken string         `json:"accessToken"`
	User        *entities.User `json:"user"`
}

// Service handles authentication and user management.
type Service struct {
	users  UserStore
	loans  LoanCounter
	audit  EventRecorder
	config config.Auth
	logger *zap.Logger

	// registerMu serializes registrations so two concurrent first signups
	// cannot both become administrators.
	registerMu sync.Mutex
}

// NewService creates a new authentication service. loans and recorder may be nil.
func NewService(users UserStore, loans LoanCounter, recorder EventRecorder, cfg config.Auth, logger *zap.Logger) *Service {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Service{
		users:  users,
		loans:  loans,
		audit:  recorder,
		config: cfg,
		logger: logger.Named("auth"),
	}
}

// Register creates an account. The very first account becomes an
// administrator; after that ADMIN is granted only when caller is an admin.
func (s *Service) Register(ctx context.Context, in RegisterInput, caller *entities.User) (*entities.User, error) {
	if in.Role != "" && !in.Role.Valid() {
		return nil, ErrInvalidRole
	}

	s.registerMu.Lock()
	defer s.registerMu.Unlock()

	count, err := s.users.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	role := entities.UserRoleUser
	switch {
	case count == 0:
		role = entities.UserRoleAdmin
	case in.Role == entities.UserRoleAdmin && caller != nil && caller.IsAdmin():
		role = entities.UserRoleAdmin
	}

	user, err := s.CreateUser(ctx, in.Email, in.Name, in.Password, role)
	if err != nil {
		return nil, err
	}
	s.audit.LogAuth(ctx, user.ID, "register", true)
	return user, nil
}

// CreateUser creates a user with the given role without applying the
// registration rules. Used by administrators and the CLI.
func (s *Service) CreateUser(ctx context.Context, email, name, password string, role entities.UserRole) (*entities.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	switch {
	case email == "":
		return nil, ErrEmailRequired
	case len(email) > 254 || !emailPattern.MatchString(email):
		return nil, ErrEmailInvalid
	case name == "":
		return nil, ErrNameRequired
	case password == "":
		return nil, ErrPasswordRequired
	case !role.Valid():
		return nil, ErrInvalidRole
	}

	_, err := s.users.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, err
	}

	user := &entities.User{
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Authenticate validates credentials and returns the user.
// The account is locked after too many consecutive failures.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*entities.User, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	now := time.Now().UTC()
	if user.LockedUntil != nil && now.Before(*user.LockedUntil) {
		return nil, ErrAccountLocked
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if !errors.Is(err, ErrInvalidPassword) {
			return nil, err
		}
		s.recordFailedLogin(ctx, user, now)
		return nil, ErrInvalidCredentials
	}

	updates := map[string]any{
		"last_login_at":      now,
		"failed_login_count": 0,
		"locked_until":       nil,
	}
	if _, err := s.users.UpdateUser(ctx, user.ID, updates); err != nil {
		s.logger.Warn("Failed to record login", zap.String("user_id", user.ID), zap.Error(err))
	}
	user.LastLoginAt = &now
	user.FailedLoginCount = 0
	user.LockedUntil = nil

	return user, nil
}

// recordFailedLogin increments the failure counter and locks the account
// once the threshold is reached.
func (s *Service) recordFailedLogin(ctx context.Context, user *entities.User, now time.Time) {
	user.FailedLoginCount++
	updates := map[string]any{"failed_login_count": user.FailedLoginCount}

	maxAttempts := s.config.MaxLoginAttempts
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if user.FailedLoginCount >= maxAttempts {
		lockout := s.config.LockoutDuration
		if lockout == 0 {
			lockout = 30 * time.Minute
		}
		updates["locked_until"] = now.Add(lockout)
	}

	if _, err := s.users.UpdateUser(ctx, user.ID, updates); err != nil {
		s.logger.Warn("Failed to record failed login", zap.String("user_id", user.ID), zap.Error(err))
	}
}

// Login authenticates and issues a fresh access token, replacing any
// previous one.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.Authenticate(ctx, email, password)
	if err != nil {
		s.audit.LogAuth(ctx, "", "login", false)
		return nil, err
	}

	token, err := s.GenerateToken(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	s.audit.LogAuth(ctx, user.ID, "login", true)
	return &LoginResult{AccessToken: token, User: user}, nil
}

// Logout revokes the user's access token.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if err := s.RevokeToken(ctx, userID); err != nil {
		return err
	}
	s.audit.LogAuth(ctx, userID, "logout", true)
	return nil
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(ctx context.Context, id string) (*entities.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ValidateToken checks a plaintext token and returns the associated user.
func (s *Service) ValidateToken(ctx context.Context, token string) (*entities.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	user, err := s.users.GetUserByTokenHash(ctx, HashToken(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if s.config.TokenExpiry > 0 && user.TokenCreatedAt != nil {
		if time.Since(*user.TokenCreatedAt) > s.config.TokenExpiry {
			return nil, ErrTokenExpired
		}
	}
	return user, nil
}

// GenerateToken creates a new API token for a user and returns the plaintext.
func (s *Service) GenerateToken(ctx context.Context, userID string) (string, error) {
	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	found, err := s.users.UpdateUser(ctx, userID, map[string]any{
		"token_hash":       hash,
		"token_created_at": time.Now().UTC(),
	})
	if err != nil {
		return "", fmt.Errorf("failed to save token: %w", err)
	}
	if !found {
		return "", ErrUserNotFound
	}
	return plaintext, nil
}

// RevokeToken removes a user's API token.
func (s *Service) RevokeToken(ctx context.Context, userID string) error {
	_, err := s.users.UpdateUser(ctx, userID, map[string]any{
		"token_hash":       "",
		"token_created_at": nil,
	})
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// ListUsers returns all users ordered by name.
func (s *Service) ListUsers(ctx context.Context) ([]entities.User, error) {
	list, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return list, nil
}

// DeleteUser removes a user that has never borrowed anything.
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if _, err := s.GetUserByID(ctx, id); err != nil {
		return err
	}

	if s.loans != nil {
		count, err := s.loans.CountForUser(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to count loans: %w", err)
		}
		if count > 0 {
			return ErrUserHasLoans
		}
	}

	found, err := s.users.DeleteUser(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return ErrUserHasLoans
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if !found {
		return ErrUserNotFound
	}

	s.audit.LogUsers(ctx, "delete", id, "user deleted")
	return nil
}

// HasUsers returns true if any users exist in the database.
func (s *Service) HasUsers(ctx context.Context) (bool, error) {
	count, err := s.users.CountUsers(ctx)
	return count > 0, err
}

// IsAuthEnabled returns true if authentication is required.
func (s *Service) IsAuthEnabled() bool {
	return s.config.Mode == config.AuthModeLocal
}

// GetAuthMode returns the current authentication mode.
func (s *Service) GetAuthMode() config.AuthMode {
	return s.config.Mode
}
