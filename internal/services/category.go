package services

import (
	"context"
	"sort"

	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/pkg/models"
)

// CategoryLister reads category counts from the relational store.
type CategoryLister interface {
	ListCategories(ctx context.Context) ([]models.CategoryCount, error)
}

type CategoryService struct {
	source string
	lister CategoryLister
	file   ProductLoader
}

func NewCategoryService(source string, lister CategoryLister, file ProductLoader) *CategoryService {
	return &CategoryService{
		source: source,
		lister: lister,
		file:   file,
	}
}

// ListCategories lists category slugs of publicly visible products
func (s *CategoryService) ListCategories(ctx context.Context) ([]models.CategoryCount, error) {
	if s.source != config.SourceFile {
		return s.lister.ListCategories(ctx)
	}

	products, err := s.file.Load(ctx)
	if err != nil {
		return nil, err
	}
	return CountCategories(products), nil
}

// CountCategories counts visible products per category slug, sorted by slug.
func CountCategories(products []models.Product) []models.CategoryCount {
	counts := make(map[string]int64)
	for i := range products {
		if !products[i].Visible() {
			continue
		}
		if slug := catalog.CategoryKey(models.StringValue(products[i].Category)); slug != "" {
			counts[slug]++
		}
	}

	categories := make([]models.CategoryCount, 0, len(counts))
	for slug, count := range counts {
		categories = append(categories, models.CategoryCount{Category: slug, Count: count})
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Category < categories[j].Category })
	return categories
}
