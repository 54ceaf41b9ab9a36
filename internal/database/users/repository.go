// Package users provides database operations for user management.
//
// # Usage
//
//	repo := users.NewRepository(db)
//	user, err := repo.GetUserByTokenHash(auth.HashToken(token))
package users

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/entities"
)

// Repository handles all user database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new users repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts a user. Duplicate emails surface as gorm.ErrDuplicatedKey.
func (r *Repository) CreateUser(ctx context.Context, user *entities.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetUserByID retrieves a user by ID.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*entities.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetUserByEmail retrieves a user by email address.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.first(ctx, "email = ?", email)
}

// GetUserByTokenHash retrieves a user by the SHA-256 hash of their API token.
func (r *Repository) GetUserByTokenHash(ctx context.Context, hash string) (*entities.User, error) {
	if hash == "" {
		return nil, gorm.ErrRecordNotFound
	}
	return r.first(ctx, "token_hash = ?", hash)
}

// ListUsers returns every user ordered by name.
func (r *Repository) ListUsers(ctx context.Context) ([]entities.User, error) {
	var list []entities.User
	err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error
	return list, err
}

// UpdateUser applies column updates and reports whether the user exists.
func (r *Repository) UpdateUser(ctx context.Context, id string, updates map[string]any) (bool, error) {
	result := r.db.WithContext(ctx).Model(&entities.User{}).Where("id = ?", id).Updates(updates)
	return result.RowsAffected > 0, result.Error
}

func (r *Repository) DeleteUser(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.User{})
	return result.RowsAffected > 0, result.Error
}

// CountUsers returns the number of registered users.
func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.User{}).Count(&count).Error
	return count, err
}

func (r *Repository) first(ctx context.Context, query string, arg any) (*entities.User, error) {
	var user entities.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
