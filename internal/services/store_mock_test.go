package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"storefront/internal/catalog"
	"storefront/pkg/models"

	"github.com/shopspring/decimal"
)

var errStoreDown = errors.New("store unavailable")

// mockStore is an in-memory ProductStore with the relational store's semantics.
type mockStore struct {
	mu       sync.Mutex
	products map[int64]models.Product
	nextID   int64
	// failUpdates makes Update fail for these ids.
	failUpdates map[int64]bool
	down        bool
}

func newMockStore(products ...models.Product) *mockStore {
	s := &mockStore{products: make(map[int64]models.Product), failUpdates: make(map[int64]bool)}
	for _, p := range products {
		s.products[p.ID] = clone(p)
		if p.ID > s.nextID {
			s.nextID = p.ID
		}
	}
	return s
}

func clone(p models.Product) models.Product {
	if p.Images != nil {
		p.Images = append([]string(nil), p.Images...)
	}
	return p
}

func (s *mockStore) sorted() []models.Product {
	out := make([]models.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *mockStore) Create(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return errStoreDown
	}
	s.nextID++
	product.ID = s.nextID
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt
	s.products[product.ID] = clone(*product)
	return nil
}

func (s *mockStore) GetByID(_ context.Context, id int64) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, errStoreDown
	}
	p, ok := s.products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	p = clone(p)
	return &p, nil
}

func (s *mockStore) Update(_ context.Context, product *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return errStoreDown
	}
	if s.failUpdates[product.ID] {
		return fmt.Errorf("update %d: %w", product.ID, errStoreDown)
	}
	if _, ok := s.products[product.ID]; !ok {
		return models.ErrProductNotFound
	}
	product.UpdatedAt = time.Now()
	s.products[product.ID] = clone(*product)
	return nil
}

func (s *mockStore) Delete(_ context.Context, id int64) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, errStoreDown
	}
	p, ok := s.products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	delete(s.products, id)
	return &p, nil
}

func matches(p *models.Product, filter models.ProductFilter) bool {
	if filter.Confirmed != nil && p.IsConfirmed != *filter.Confirmed {
		return false
	}
	if category := catalog.CategoryKey(filter.Category); category != "" &&
		catalog.CategoryKey(models.StringValue(p.Category)) != category {
		return false
	}
	if search := catalog.SearchKey(filter.Search); search != "" &&
		!strings.Contains(catalog.SearchKey(p.Title), search) &&
		!strings.Contains(catalog.SearchKey(models.StringValue(p.Comment)), search) {
		return false
	}
	return true
}

func (s *mockStore) List(_ context.Context, filter models.ProductFilter) (*models.PaginationResult[models.Product], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, errStoreDown
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = 20
	}

	var all []models.Product
	for _, p := range s.sorted() {
		if matches(&p, filter) {
			all = append(all, p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })

	start := (filter.Page - 1) * filter.PerPage
	if start > len(all) {
		start = len(all)
	}
	end := start + filter.PerPage
	if end > len(all) {
		end = len(all)
	}
	return &models.PaginationResult[models.Product]{
		Data:       append([]models.Product{}, all[start:end]...),
		Total:      int64(len(all)),
		Page:       filter.Page,
		PerPage:    filter.PerPage,
		TotalPages: (len(all) + filter.PerPage - 1) / filter.PerPage,
	}, nil
}

func (s *mockStore) FindConfirmed(_ context.Context, filter models.ProductFilter) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, errStoreDown
	}
	confirmed := true
	filter.Confirmed = &confirmed
	var out []models.Product
	for _, p := range s.sorted() {
		if matches(&p, filter) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *mockStore) FindByIDs(_ context.Context, ids []int64) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, errStoreDown
	}
	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []models.Product
	for _, p := range s.sorted() {
		if wanted[p.ID] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *mockStore) FindMatch(_ context.Context, barcode, title string, price decimal.Decimal) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, errStoreDown
	}
	all := s.sorted()
	if barcode = strings.TrimSpace(barcode); barcode != "" {
		for i := range all {
			if strings.TrimSpace(models.StringValue(all[i].Barcode)) == barcode {
				return &all[i], nil
			}
		}
	}
	if title = catalog.NormalizeTitle(title); title != "" {
		for i := range all {
			if catalog.NormalizeTitle(all[i].Title) == title && all[i].Price.Equal(price) {
				return &all[i], nil
			}
		}
	}
	return nil, models.ErrProductNotFound
}

func (s *mockStore) ListAll(_ context.Context) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, errStoreDown
	}
	return s.sorted(), nil
}

func (s *mockStore) touch(ids []int64, fn func(p *models.Product)) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, errStoreDown
	}
	updated := []int64{}
	for _, id := range ids {
		p, ok := s.products[id]
		if !ok {
			continue
		}
		fn(&p)
		s.products[id] = p
		updated = append(updated, id)
	}
	sort.Slice(updated, func(i, j int) bool { return updated[i] < updated[j] })
	return updated, nil
}

func (s *mockStore) SetConfirmed(_ context.Context, ids []int64, confirmed bool) ([]int64, error) {
	return s.touch(ids, func(p *models.Product) { p.IsConfirmed = confirmed })
}

func (s *mockStore) MoveCategory(_ context.Context, ids []int64, category string) ([]int64, error) {
	return s.touch(ids, func(p *models.Product) { p.Category = models.OptionalString(category) })
}

func (s *mockStore) DeleteByIDs(_ context.Context, ids []int64) ([]models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return nil, errStoreDown
	}
	deleted := []models.Product{}
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			deleted = append(deleted, p)
			delete(s.products, id)
		}
	}
	sort.Slice(deleted, func(i, j int) bool { return deleted[i].ID < deleted[j].ID })
	return deleted, nil
}

func (s *mockStore) CountImageReferences(_ context.Context, path string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.down {
		return 0, errStoreDown
	}
	var count int64
	for _, p := range s.products {
		for _, ref := range p.ImageRefs() {
			if ref == path {
				count++
				break
			}
		}
	}
	return count, nil
}

func (s *mockStore) get(id int64) (models.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[id]
	return p, ok
}

// recordingProjector captures projection calls instead of writing files.
type recordingProjector struct {
	mu             sync.Mutex
	changed        []int64
	deleted        []int64
	catalogChanges int
}

func (r *recordingProjector) ProductChanged(_ context.Context, p models.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changed = append(r.changed, p.ID)
}

func (r *recordingProjector) ProductsChanged(_ context.Context, ps []models.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range ps {
		r.changed = append(r.changed, p.ID)
	}
}

func (r *recordingProjector) ProductsDeleted(_ context.Context, ps []models.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range ps {
		r.deleted = append(r.deleted, p.ID)
	}
}

func (r *recordingProjector) CatalogChanged(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.catalogChanges++
}

// fakeImages records deleted image references.
type fakeImages struct {
	mu      sync.Mutex
	deleted []string
	fail    bool
}

func (f *fakeImages) Delete(_ context.Context, ref string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("storage offline")
	}
	f.deleted = append(f.deleted, ref)
	return nil
}

func str(s string) *string { return &s }

func newProduct(id int64, title string, price int64) models.Product {
	return models.Product{
		ID:    id,
		Title: title,
		Price: decimal.NewFromInt(price),
	}
}

func withImage(p models.Product, ref string) models.Product {
	p.Image = str(ref)
	p.Images = []string{ref}
	return p
}

func asConfirmed(p models.Product) models.Product {
	p.IsConfirmed = true
	return p
}

func withBarcode(p models.Product, barcode string) models.Product {
	p.Barcode = str(barcode)
	return p
}
