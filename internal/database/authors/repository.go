// Package authors provides database operations for catalog authors.
//
// # Usage
//
//	repo := authors.NewRepository(db)
//	list, err := repo.List(ctx, "UK")
package authors

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/database"
	"github.com/mrlokans/library/internal/entities"
)

// Repository handles all author database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new authors repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, author *entities.Author) error {
	return r.db.WithContext(ctx).Omit("Books").Create(author).Error
}

// List returns authors whose name or country contains search, ordered by name.
// Each author carries its books and book count.
func (r *Repository) List(ctx context.Context, search string) ([]entities.Author, error) {
	db := r.db.WithContext(ctx)
	query := db.Preload("Books", orderBooks).Order("name ASC")
	if search != "" {
		query = query.Where(
			"("+database.ContainsExpr(db, "name")+" OR "+database.ContainsExpr(db, "country")+")",
			search, search,
		)
	}

	var list []entities.Author
	if err := query.Find(&list).Error; err != nil {
		return nil, err
	}
	for i := range list {
		annotate(&list[i])
	}
	return list, nil
}

// GetByID returns the author with its books, or gorm.ErrRecordNotFound.
func (r *Repository) GetByID(ctx context.Context, id string) (*entities.Author, error) {
	var author entities.Author
	err := r.db.WithContext(ctx).Preload("Books", orderBooks).Where("id = ?", id).First(&author).Error
	if err != nil {
		return nil, err
	}
	annotate(&author)
	return &author, nil
}

func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Author{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Update applies column updates and reports whether a row matched.
func (r *Repository) Update(ctx context.Context, id string, updates map[string]any) (bool, error) {
	if len(updates) == 0 {
		return r.Exists(ctx, id)
	}
	result := r.db.WithContext(ctx).Model(&entities.Author{}).Where("id = ?", id).Updates(updates)
	return result.RowsAffected > 0, result.Error
}

func (r *Repository) Delete(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&entities.Author{})
	return result.RowsAffected > 0, result.Error
}

// CountBooks returns how many books reference the author.
func (r *Repository) CountBooks(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Book{}).Where("author_id = ?", id).Count(&count).Error
	return count, err
}

func orderBooks(db *gorm.DB) *gorm.DB {
	return db.Order("title ASC")
}

func annotate(author *entities.Author) {
	count := int64(len(author.Books))
	author.BookCount = &count
}
