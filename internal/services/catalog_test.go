package services

import (
	"context"
	"testing"

	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/pkg/models"

	"github.com/stretchr/testify/require"
)

func pageIDs(page catalog.Page) []int64 {
	ids := make([]int64, 0, len(page.Items))
	for _, p := range page.Items {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestCatalogServiceFromDatabase(t *testing.T) {
	visible := asConfirmed(withImage(newProduct(1, "Ваза", 500), "/img/1.jpg"))
	visible.Category = str("Vases")
	store := newMockStore(
		visible,
		asConfirmed(newProduct(2, "No photo", 100)),
		withImage(newProduct(3, "Pending", 100), "/img/3.jpg"),
	)

	service, err := NewCatalogService(config.SourceDatabase, store, nil)
	require.NoError(t, err)
	require.Equal(t, config.SourceDatabase, service.Source())

	page, err := service.Query(context.Background(), catalog.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, []int64{1}, pageIDs(page))
	require.Equal(t, 1, page.Total)

	product, err := service.Product(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "Ваза", product.Title)

	for _, id := range []int64{2, 3, 404} {
		_, err = service.Product(context.Background(), id)
		require.ErrorIs(t, err, models.ErrProductNotFound)
	}
}

func TestCatalogServiceFromFile(t *testing.T) {
	file := writeBulkFile(t, `{"products": [
		{"id": 1, "title": "Ваза", "price": 500, "isConfirmed": true, "image": "/img/1.jpg", "category": "vases"},
		{"id": 2, "title": "Bowl", "price": 100, "isConfirmed": true},
		{"id": 3, "title": "Lamp", "price": 900, "isConfirmed": false, "image": "/img/3.jpg"},
		{"id": 4, "title": "Cup", "price": 50, "isConfirmed": true, "images": ["/img/4.jpg"], "category": "Cups "}
	]}`)

	service, err := NewCatalogService(config.SourceFile, newMockStore(), file)
	require.NoError(t, err)

	page, err := service.Query(context.Background(), catalog.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{1, 4}, pageIDs(page))

	_, err = service.Product(context.Background(), 3)
	require.ErrorIs(t, err, models.ErrProductNotFound)

	categories, err := NewCategoryService(config.SourceFile, nil, file).ListCategories(context.Background())
	require.NoError(t, err)
	require.Equal(t, []models.CategoryCount{{Category: "cups", Count: 1}, {Category: "vases", Count: 1}}, categories)
}

func TestNewCatalogServiceRejectsUnknownSource(t *testing.T) {
	_, err := NewCatalogService("redis", newMockStore(), nil)
	require.Error(t, err)
}

func TestCountCategoriesSkipsHiddenProducts(t *testing.T) {
	a := asConfirmed(withImage(newProduct(1, "a", 1), "/img/a.jpg"))
	a.Category = str("Vases")
	b := asConfirmed(withImage(newProduct(2, "b", 1), "/img/b.jpg"))
	b.Category = str(" vases")
	hidden := withImage(newProduct(3, "c", 1), "/img/c.jpg")
	hidden.Category = str("lamps")
	uncategorized := asConfirmed(withImage(newProduct(4, "d", 1), "/img/d.jpg"))

	require.Equal(t,
		[]models.CategoryCount{{Category: "vases", Count: 2}},
		CountCategories([]models.Product{a, b, hidden, uncategorized}),
	)
}
