package repo

import (
	"context"

	"storefront/pkg/models"

	"gorm.io/gorm"
)

// CategoryRepository reads category slugs off the products table
type CategoryRepository struct {
	db *gorm.DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListCategories returns distinct slugs of publicly visible products with counts
func (r *CategoryRepository) ListCategories(ctx context.Context) ([]models.CategoryCount, error) {
	categories := []models.CategoryCount{}
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Select("LOWER(TRIM(category)) AS category, COUNT(*) AS count").
		Where("is_confirmed = ? AND NULLIF(TRIM(category), '') IS NOT NULL", true).
		Where(hasImageSQL).
		Group("LOWER(TRIM(category))").
		Order("category ASC").
		Scan(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}
