package repo

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"time"

	"storefront/internal/catalog"
	"storefront/pkg/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// hasImageSQL matches rows with a non-empty image or a non-empty images entry.
// A nil images slice is stored as JSON null rather than an array.
const hasImageSQL = `(NULLIF(TRIM(image), '') IS NOT NULL OR EXISTS (
	SELECT 1 FROM jsonb_array_elements_text(
		CASE WHEN jsonb_typeof(images) = 'array' THEN images ELSE '[]'::jsonb END
	) AS img WHERE TRIM(img) <> ''))`

// normalizedTitleSQL mirrors catalog.NormalizeTitle.
const normalizedTitleSQL = `LOWER(REGEXP_REPLACE(TRIM(title), '\s+', ' ', 'g'))`

// ProductRepository handles product data access
type ProductRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ErrProductNotFound
	}
	return err
}

// Create inserts a product and fills its id
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// GetByID gets a product by ID
func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, notFound(err)
	}
	return &product, nil
}

// Update writes every column of an existing product
func (r *ProductRepository) Update(ctx context.Context, product *models.Product) error {
	result := r.db.WithContext(ctx).Model(product).Select("*").Omit("id", "created_at").Updates(product)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrProductNotFound
	}
	return nil
}

// Delete removes a product and returns the deleted row
func (r *ProductRepository) Delete(ctx context.Context, id int64) (*models.Product, error) {
	var deleted models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&deleted).Error; err != nil {
			return notFound(err)
		}
		return tx.Delete(&models.Product{}, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}

func applyFilter(query *gorm.DB, filter models.ProductFilter) *gorm.DB {
	if filter.Confirmed != nil {
		query = query.Where("is_confirmed = ?", *filter.Confirmed)
	}
	if category := catalog.CategoryKey(filter.Category); category != "" {
		query = query.Where("LOWER(TRIM(category)) = ?", category)
	}
	if search := catalog.SearchKey(filter.Search); search != "" {
		pattern := "%" + search + "%"
		query = query.Where(
			"(REGEXP_REPLACE(LOWER(title), '\\s', '', 'g') LIKE ? OR REGEXP_REPLACE(LOWER(COALESCE(comment, '')), '\\s', '', 'g') LIKE ?)",
			pattern, pattern,
		)
	}
	return query
}

// List lists products with pagination, newest first
func (r *ProductRepository) List(ctx context.Context, filter models.ProductFilter) (*models.PaginationResult[models.Product], error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = 20
	}

	var total int64
	if err := applyFilter(r.db.WithContext(ctx).Model(&models.Product{}), filter).Count(&total).Error; err != nil {
		return nil, err
	}

	products := []models.Product{}
	offset := (filter.Page - 1) * filter.PerPage
	err := applyFilter(r.db.WithContext(ctx), filter).
		Order("id DESC").
		Limit(filter.PerPage).
		Offset(offset).
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	return &models.PaginationResult[models.Product]{
		Data:       products,
		Total:      total,
		Page:       filter.Page,
		PerPage:    filter.PerPage,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.PerPage))),
	}, nil
}

// FindConfirmed returns every confirmed product matching the filter, by id
func (r *ProductRepository) FindConfirmed(ctx context.Context, filter models.ProductFilter) ([]models.Product, error) {
	confirmed := true
	filter.Confirmed = &confirmed

	var products []models.Product
	if err := applyFilter(r.db.WithContext(ctx), filter).Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindByIDs returns the products that exist among ids, by id
func (r *ProductRepository) FindByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	var products []models.Product
	if len(ids) == 0 {
		return products, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// FindMatch finds a product by barcode, then by normalized title and price
func (r *ProductRepository) FindMatch(ctx context.Context, barcode, title string, price decimal.Decimal) (*models.Product, error) {
	var product models.Product

	if barcode = strings.TrimSpace(barcode); barcode != "" {
		err := r.db.WithContext(ctx).Where("TRIM(barcode) = ?", barcode).Order("id ASC").First(&product).Error
		if err == nil {
			return &product, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if title = catalog.NormalizeTitle(title); title != "" {
		err := r.db.WithContext(ctx).
			Where(normalizedTitleSQL+" = ? AND price = ?", title, price).
			Order("id ASC").
			First(&product).Error
		if err == nil {
			return &product, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return nil, models.ErrProductNotFound
}

// ListAll returns every product, by id
func (r *ProductRepository) ListAll(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.WithContext(ctx).Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// SetConfirmed flips the confirmation flag and returns the ids that exist
func (r *ProductRepository) SetConfirmed(ctx context.Context, ids []int64, confirmed bool) ([]int64, error) {
	return r.updateExisting(ctx, ids, map[string]interface{}{"is_confirmed": confirmed})
}

// MoveCategory reassigns the category and returns the ids that exist
func (r *ProductRepository) MoveCategory(ctx context.Context, ids []int64, category string) ([]int64, error) {
	return r.updateExisting(ctx, ids, map[string]interface{}{"category": models.OptionalString(category)})
}

func (r *ProductRepository) updateExisting(ctx context.Context, ids []int64, changes map[string]interface{}) ([]int64, error) {
	updated := []int64{}
	if len(ids) == 0 {
		return updated, nil
	}
	changes["updated_at"] = time.Now()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Product{}).Where("id IN ?", ids).Order("id ASC").Pluck("id", &updated).Error; err != nil {
			return err
		}
		if len(updated) == 0 {
			return nil
		}
		return tx.Model(&models.Product{}).Where("id IN ?", updated).Updates(changes).Error
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteByIDs deletes the products that exist among ids and returns them
func (r *ProductRepository) DeleteByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	deleted := []models.Product{}
	if len(ids) == 0 {
		return deleted, nil
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id IN ?", ids).Order("id ASC").Find(&deleted).Error; err != nil {
			return err
		}
		if len(deleted) == 0 {
			return nil
		}
		found := make([]int64, 0, len(deleted))
		for _, p := range deleted {
			found = append(found, p.ID)
		}
		return tx.Where("id IN ?", found).Delete(&models.Product{}).Error
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

// CountImageReferences counts products using path as image or inside images
func (r *ProductRepository) CountImageReferences(ctx context.Context, path string) (int64, error) {
	contains, err := json.Marshal([]string{path})
	if err != nil {
		return 0, err
	}

	var count int64
	err = r.db.WithContext(ctx).Model(&models.Product{}).
		Where("(TRIM(image) = ? OR images @> ?::jsonb)", path, string(contains)).
		Count(&count).Error
	return count, err
}
