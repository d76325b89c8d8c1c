package services

import (
	"context"
	"sort"
	"strings"

	"storefront/internal/catalog"
	"storefront/pkg/models"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// ProductStore is the authoritative relational product store.
type ProductStore interface {
	Create(ctx context.Context, product *models.Product) error
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context, filter models.ProductFilter) (*models.PaginationResult[models.Product], error)
	FindConfirmed(ctx context.Context, filter models.ProductFilter) ([]models.Product, error)
	FindByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	FindMatch(ctx context.Context, barcode, title string, price decimal.Decimal) (*models.Product, error)
	ListAll(ctx context.Context) ([]models.Product, error)
	SetConfirmed(ctx context.Context, ids []int64, confirmed bool) ([]int64, error)
	DeleteByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
	MoveCategory(ctx context.Context, ids []int64, category string) ([]int64, error)
	CountImageReferences(ctx context.Context, path string) (int64, error)
}

// Projector is told about every relational mutation. Implementations must
// return immediately; projection failures are theirs to log.
type Projector interface {
	ProductChanged(ctx context.Context, product models.Product)
	ProductsChanged(ctx context.Context, products []models.Product)
	ProductsDeleted(ctx context.Context, products []models.Product)
	CatalogChanged(ctx context.Context)
}

// ProductService implements admin product management on top of ProductStore.
type ProductService struct {
	store  ProductStore
	sync   Projector
	images ImageStorage
}

func NewProductService(store ProductStore, sync Projector, images ImageStorage) *ProductService {
	return &ProductService{
		store:  store,
		sync:   sync,
		images: images,
	}
}

// Create stores a new pending product.
func (s *ProductService) Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, models.NewValidationError("title", "is required")
	}
	if req.Price == nil {
		return nil, models.NewValidationError("price", "is required")
	}

	image, images := catalog.ResolveImages(req.Image, req.Images)
	product := &models.Product{
		Title:       title,
		Price:       decimal.NewFromFloat(*req.Price),
		Discount:    req.Discount,
		Category:    models.OptionalString(req.Category),
		Subcategory: models.OptionalString(req.Subcategory),
		Image:       image,
		Images:      images,
		Barcode:     models.OptionalString(req.Barcode),
		Comment:     models.OptionalString(req.Comment),
		Size:        models.OptionalString(req.Size),
		Quantity:    req.Quantity,
		Reserved:    req.Reserved,
		IsConfirmed: false,
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.store.Create(ctx, product); err != nil {
		return nil, err
	}

	log.Info().Int64("product_id", product.ID).Str("title", product.Title).Msg("Product created")
	s.sync.ProductChanged(ctx, *product)
	return product, nil
}

// Get returns one product regardless of its moderation state.
func (s *ProductService) Get(ctx context.Context, id int64) (*models.Product, error) {
	return s.store.GetByID(ctx, id)
}

// List lists products for the admin table.
func (s *ProductService) List(ctx context.Context, filter models.ProductFilter) (*models.PaginationResult[models.Product], error) {
	return s.store.List(ctx, filter)
}

// ListAll returns every product, by id.
func (s *ProductService) ListAll(ctx context.Context) ([]models.Product, error) {
	return s.store.ListAll(ctx)
}

// Update applies the provided fields only.
func (s *ProductService) Update(ctx context.Context, id int64, req *models.UpdateProductRequest) (*models.Product, error) {
	product, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := applyUpdate(product, req); err != nil {
		return nil, err
	}
	if err := validateProduct(product); err != nil {
		return nil, err
	}

	if err := s.store.Update(ctx, product); err != nil {
		return nil, err
	}

	log.Info().Int64("product_id", product.ID).Msg("Product updated")
	s.sync.ProductChanged(ctx, *product)
	return product, nil
}

func applyUpdate(p *models.Product, req *models.UpdateProductRequest) error {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return models.NewValidationError("title", "cannot be empty")
		}
		p.Title = title
	}
	if req.Price != nil {
		p.Price = decimal.NewFromFloat(*req.Price)
	}
	if req.Discount != nil {
		p.Discount = *req.Discount
	}
	if req.Category != nil {
		p.Category = models.OptionalString(*req.Category)
	}
	if req.Subcategory != nil {
		p.Subcategory = models.OptionalString(*req.Subcategory)
	}
	if req.Barcode != nil {
		p.Barcode = models.OptionalString(*req.Barcode)
	}
	if req.Comment != nil {
		p.Comment = models.OptionalString(*req.Comment)
	}
	if req.Size != nil {
		p.Size = models.OptionalString(*req.Size)
	}
	if req.Quantity != nil {
		p.Quantity = *req.Quantity
	}
	if req.Reserved != nil {
		p.Reserved = *req.Reserved
	}

	if req.Image != nil || req.Images != nil {
		image := models.StringValue(p.Image)
		if req.Image != nil {
			image = *req.Image
		}
		images := []string(p.Images)
		if req.Images != nil {
			images = *req.Images
		}
		// an explicitly cleared gallery must not resurrect the old canonical image
		if req.Images != nil && req.Image == nil && len(images) == 0 {
			image = ""
		}
		p.Image, p.Images = catalog.ResolveImages(image, images)
	}
	return nil
}

func validateProduct(p *models.Product) error {
	if p.Price.IsNegative() {
		return models.NewValidationError("price", "must not be negative")
	}
	if p.Discount < 0 || p.Discount > 100 {
		return models.NewValidationError("discount", "must be between 0 and 100")
	}
	if p.Quantity < 0 {
		return models.NewValidationError("quantity", "must not be negative")
	}
	if p.Reserved < 0 {
		return models.NewValidationError("reserved", "must not be negative")
	}
	if p.Reserved > p.Quantity {
		return models.NewValidationError("reserved", "cannot exceed quantity")
	}
	return nil
}

// Delete removes a product from the store, releases its unshared images and
// drops it from the bulk file.
func (s *ProductService) Delete(ctx context.Context, id int64) (*models.Product, error) {
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return nil, err
	}

	log.Info().Int64("product_id", id).Msg("Product deleted")
	s.afterDelete(ctx, []models.Product{*deleted})
	return deleted, nil
}

func (s *ProductService) afterDelete(ctx context.Context, deleted []models.Product) {
	s.releaseImages(ctx, deleted)
	s.sync.ProductsDeleted(ctx, deleted)
}

// releaseImages deletes image files no remaining product references.
// Storage failures are logged only; the rows are already gone.
func (s *ProductService) releaseImages(ctx context.Context, deleted []models.Product) {
	if s.images == nil {
		return
	}

	seen := make(map[string]struct{})
	for i := range deleted {
		for _, ref := range deleted[i].ImageRefs() {
			if _, ok := seen[ref]; ok {
				continue
			}
			seen[ref] = struct{}{}

			count, err := s.store.CountImageReferences(ctx, ref)
			if err != nil {
				log.Warn().Err(err).Str("path", ref).Msg("Failed to count image references, keeping file")
				continue
			}
			if count > 0 {
				log.Debug().Str("path", ref).Int64("references", count).Msg("Image still in use")
				continue
			}
			if err := s.images.Delete(ctx, ref); err != nil {
				log.Warn().Err(err).Str("path", ref).Msg("Failed to delete orphaned image")
			}
		}
	}
}

// uniqueIDs drops duplicates and non-positive ids, keeping the first occurrence.
func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id <= 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// report fills result from the ids a store call actually touched.
func report(result *models.BulkResult, requested, touched []int64) {
	hit := make(map[int64]struct{}, len(touched))
	for _, id := range touched {
		hit[id] = struct{}{}
	}
	for _, id := range requested {
		if _, ok := hit[id]; ok {
			result.Ok(id)
			continue
		}
		result.Fail(id, models.ErrProductNotFound)
	}
}

func failAll(result *models.BulkResult, ids []int64, err error) *models.BulkResult {
	for _, id := range ids {
		result.Fail(id, err)
	}
	return result
}

// BulkUnconfirm sends every existing id back to pending.
func (s *ProductService) BulkUnconfirm(ctx context.Context, ids []int64) *models.BulkResult {
	result := models.NewBulkResult()
	ids = uniqueIDs(ids)

	updated, err := s.store.SetConfirmed(ctx, ids, false)
	if err != nil {
		log.Error().Err(err).Ints64("ids", ids).Msg("Bulk unconfirm failed")
		return failAll(result, ids, err)
	}
	report(result, ids, updated)
	s.projectIDs(ctx, updated)
	return result
}

// projectIDs reloads touched rows and hands them to the projector.
func (s *ProductService) projectIDs(ctx context.Context, ids []int64) {
	if len(ids) == 0 {
		return
	}
	products, err := s.store.FindByIDs(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Ints64("ids", ids).Msg("Failed to reload products for projection")
		s.sync.CatalogChanged(ctx)
		return
	}
	s.sync.ProductsChanged(ctx, products)
}

// BulkConfirm confirms every existing id. Pending products go through the
// approve transition, so one without a photo fails with no_image; unknown ids
// are reported as not found.
func (s *ProductService) BulkConfirm(ctx context.Context, ids []int64) *models.BulkResult {
	result := models.NewBulkResult()
	ids = uniqueIDs(ids)

	products, err := s.store.FindByIDs(ctx, ids)
	if err != nil {
		log.Error().Err(err).Ints64("ids", ids).Msg("Failed to load products for bulk confirmation")
		return failAll(result, ids, err)
	}

	rejected := make(map[int64]error)
	eligible := make([]int64, 0, len(products))
	for i := range products {
		p := &products[i]
		if !p.IsConfirmed {
			if _, err := models.Transition(p, models.EventApprove); err != nil {
				rejected[p.ID] = err
				continue
			}
		}
		eligible = append(eligible, p.ID)
	}

	var updated []int64
	if len(eligible) > 0 {
		updated, err = s.store.SetConfirmed(ctx, eligible, true)
		if err != nil {
			log.Error().Err(err).Ints64("ids", eligible).Msg("Bulk confirmation update failed")
			for _, id := range eligible {
				rejected[id] = err
			}
			updated = nil
		}
	}

	hit := make(map[int64]struct{}, len(updated))
	for _, id := range updated {
		hit[id] = struct{}{}
	}
	for _, id := range ids {
		if err, ok := rejected[id]; ok {
			result.Fail(id, err)
			continue
		}
		if _, ok := hit[id]; ok {
			result.Ok(id)
			continue
		}
		result.Fail(id, models.ErrProductNotFound)
	}

	s.projectIDs(ctx, updated)
	return result
}

// BulkDelete deletes every existing id and releases images nobody else uses.
func (s *ProductService) BulkDelete(ctx context.Context, ids []int64) *models.BulkResult {
	result := models.NewBulkResult()
	ids = uniqueIDs(ids)

	deleted, err := s.store.DeleteByIDs(ctx, ids)
	if err != nil {
		log.Error().Err(err).Ints64("ids", ids).Msg("Bulk delete failed")
		return failAll(result, ids, err)
	}

	touched := make([]int64, 0, len(deleted))
	for _, p := range deleted {
		touched = append(touched, p.ID)
	}
	report(result, ids, touched)

	log.Info().Ints64("ids", touched).Msg("Products deleted")
	s.afterDelete(ctx, deleted)
	return result
}

// MoveCategory reassigns the category of every existing id, confirmed or not.
func (s *ProductService) MoveCategory(ctx context.Context, ids []int64, category string) (*models.BulkResult, error) {
	slug := strings.TrimSpace(category)
	if slug == "" {
		return nil, models.NewValidationError("category", "is required")
	}

	result := models.NewBulkResult()
	ids = uniqueIDs(ids)

	updated, err := s.store.MoveCategory(ctx, ids, slug)
	if err != nil {
		log.Error().Err(err).Ints64("ids", ids).Str("category", slug).Msg("Bulk category move failed")
		return failAll(result, ids, err), nil
	}
	report(result, ids, updated)
	s.projectIDs(ctx, updated)
	return result, nil
}

// MoveAndConfirm moves pending products into category and confirms them,
// unless the moved product would duplicate a confirmed one. Skipped products
// stay pending with their category unchanged. Within one call products are
// handled by ascending id, so of two pending duplicates the lower id wins.
func (s *ProductService) MoveAndConfirm(ctx context.Context, ids []int64, category string) (*models.BulkResult, error) {
	slug := strings.TrimSpace(category)
	if slug == "" {
		return nil, models.NewValidationError("category", "is required")
	}

	result := models.NewBulkResult()
	ids = uniqueIDs(ids)

	confirmed, err := s.store.FindConfirmed(ctx, models.ProductFilter{})
	if err != nil {
		return nil, err
	}
	index := NewDuplicateIndex(confirmed)

	candidates, err := s.store.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ID < candidates[j].ID })

	found := make(map[int64]struct{}, len(candidates))
	var changed []models.Product
	for i := range candidates {
		product := candidates[i]
		found[product.ID] = struct{}{}

		moved := product
		moved.Category = models.OptionalString(slug)

		if !product.IsConfirmed {
			if _, err := models.Transition(&moved, models.EventApprove); err != nil {
				result.Skip(product.ID, models.CodeFor(err), 0)
				continue
			}
			if match, ok := index.Lookup(&moved); ok {
				log.Info().
					Int64("product_id", product.ID).
					Int64("duplicate_of", match.ID).
					Str("by", match.By).
					Msg("Skipping duplicate in move and confirm")
				result.Skip(product.ID, models.CodeDuplicate, match.ID)
				continue
			}
			moved.IsConfirmed = true
		}

		if err := s.store.Update(ctx, &moved); err != nil {
			result.Fail(product.ID, err)
			continue
		}
		index.Add(&moved)
		changed = append(changed, moved)
		result.Ok(product.ID)
	}

	for _, id := range ids {
		if _, ok := found[id]; !ok {
			result.Fail(id, models.ErrProductNotFound)
		}
	}

	if len(changed) > 0 {
		s.sync.ProductsChanged(ctx, changed)
	}
	return result, nil
}

// DeleteDuplicates keeps one product per duplicate group, preferring confirmed
// products and then the lowest id, and deletes the rest.
func (s *ProductService) DeleteDuplicates(ctx context.Context) (*models.DuplicateCleanupResult, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	groups := GroupDuplicates(all)
	result := &models.DuplicateCleanupResult{
		Groups:  len(groups),
		Kept:    []int64{},
		Deleted: []int64{},
	}
	if len(groups) == 0 {
		return result, nil
	}

	var doomed []int64
	for _, group := range groups {
		result.Kept = append(result.Kept, group[0].ID)
		for _, p := range group[1:] {
			doomed = append(doomed, p.ID)
		}
	}

	deleted, err := s.store.DeleteByIDs(ctx, doomed)
	if err != nil {
		return nil, err
	}
	for _, p := range deleted {
		result.Deleted = append(result.Deleted, p.ID)
	}

	log.Info().Int("groups", result.Groups).Ints64("ids", result.Deleted).Msg("Duplicate products deleted")
	s.afterDelete(ctx, deleted)
	return result, nil
}
