package services

import (
	"context"
	"fmt"

	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/pkg/models"
)

// ProductLoader yields normalized products from the bulk file.
type ProductLoader interface {
	Load(ctx context.Context) ([]models.Product, error)
}

// CatalogService answers public catalog reads from the configured source.
type CatalogService struct {
	source string
	store  ProductStore
	file   ProductLoader
}

func NewCatalogService(source string, store ProductStore, file ProductLoader) (*CatalogService, error) {
	switch source {
	case config.SourceDatabase, config.SourceFile:
	default:
		return nil, fmt.Errorf("unknown catalog source %q", source)
	}
	return &CatalogService{source: source, store: store, file: file}, nil
}

func (s *CatalogService) Source() string {
	return s.source
}

// products returns the raw collection; visibility is applied by the query engine.
func (s *CatalogService) products(ctx context.Context) ([]models.Product, error) {
	if s.source == config.SourceFile {
		return s.file.Load(ctx)
	}
	return s.store.FindConfirmed(ctx, models.ProductFilter{})
}

// Query runs the catalog pipeline over the source collection.
func (s *CatalogService) Query(ctx context.Context, params catalog.Params) (catalog.Page, error) {
	products, err := s.products(ctx)
	if err != nil {
		return catalog.Page{}, err
	}
	return catalog.Query(products, params), nil
}

// Product returns one publicly visible product.
func (s *CatalogService) Product(ctx context.Context, id int64) (*models.Product, error) {
	if s.source == config.SourceFile {
		products, err := s.file.Load(ctx)
		if err != nil {
			return nil, err
		}
		for i := range products {
			if products[i].ID == id && products[i].Visible() {
				return &products[i], nil
			}
		}
		return nil, models.ErrProductNotFound
	}

	product, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.Visible() {
		return nil, models.ErrProductNotFound
	}
	return product, nil
}
