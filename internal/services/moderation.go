package services

import (
	"context"
	"errors"
	"strings"

	"storefront/pkg/models"

	"github.com/rs/zerolog/log"
)

// ModerationService moves products through the moderation states. Every
// change goes through models.Transition.
type ModerationService struct {
	store    ProductStore
	products *ProductService
	sync     Projector
}

func NewModerationService(store ProductStore, products *ProductService, sync Projector) *ModerationService {
	return &ModerationService{
		store:    store,
		products: products,
		sync:     sync,
	}
}

// Queue lists pending products with an advisory duplicate flag. The index is
// built from the confirmed set on every call.
func (s *ModerationService) Queue(ctx context.Context, filter models.ProductFilter) (*models.PaginationResult[models.ModerationItem], error) {
	pending := false
	filter.Confirmed = &pending

	page, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	confirmed, err := s.store.FindConfirmed(ctx, models.ProductFilter{})
	if err != nil {
		return nil, err
	}
	index := NewDuplicateIndex(confirmed)

	items := make([]models.ModerationItem, 0, len(page.Data))
	for i := range page.Data {
		product := page.Data[i]
		item := models.ModerationItem{
			Product:  product,
			State:    models.StateOf(&product),
			HasPhoto: product.HasImage(),
		}
		if match, ok := index.Lookup(&product); ok {
			id := match.ID
			item.DuplicateOf = &id
			item.DuplicateBy = match.By
		}
		items = append(items, item)
	}

	return &models.PaginationResult[models.ModerationItem]{
		Data:       items,
		Total:      page.Total,
		Page:       page.Page,
		PerPage:    page.PerPage,
		TotalPages: page.TotalPages,
	}, nil
}

// Categorize sets the category of a pending product.
func (s *ModerationService) Categorize(ctx context.Context, id int64, category, subcategory string) (*models.Product, error) {
	slug := strings.TrimSpace(category)
	if slug == "" {
		return nil, models.NewValidationError("category", "is required")
	}

	product, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := models.Transition(product, models.EventCategorize); err != nil {
		return nil, err
	}

	product.Category = models.OptionalString(slug)
	product.Subcategory = models.OptionalString(subcategory)
	if err := s.store.Update(ctx, product); err != nil {
		return nil, err
	}

	log.Info().Int64("product_id", id).Str("category", slug).Msg("Product categorized")
	s.sync.ProductChanged(ctx, *product)
	return product, nil
}

// Approve confirms a pending product that has a photo.
func (s *ModerationService) Approve(ctx context.Context, id int64) (*models.Product, error) {
	return s.confirm(ctx, id, models.EventApprove)
}

// ApproveWithoutPhoto confirms a pending product without the photo check.
func (s *ModerationService) ApproveWithoutPhoto(ctx context.Context, id int64) (*models.Product, error) {
	return s.confirm(ctx, id, models.EventApproveWithoutPhoto)
}

func (s *ModerationService) confirm(ctx context.Context, id int64, event models.ModerationEvent) (*models.Product, error) {
	product, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, product, event)
}

// apply runs a transition on a loaded product and persists the outcome.
func (s *ModerationService) apply(ctx context.Context, product *models.Product, event models.ModerationEvent) (*models.Product, error) {
	next, err := models.Transition(product, event)
	if err != nil {
		return nil, err
	}

	switch next {
	case models.StateDeleted:
		if _, err := s.products.Delete(ctx, product.ID); err != nil {
			return nil, err
		}
		log.Info().Int64("product_id", product.ID).Str("event", string(event)).Msg("Product rejected")
		return product, nil
	case models.StateConfirmed:
		product.IsConfirmed = true
	default:
		product.IsConfirmed = false
	}

	if err := s.store.Update(ctx, product); err != nil {
		return nil, err
	}

	log.Info().
		Int64("product_id", product.ID).
		Str("event", string(event)).
		Str("state", string(next)).
		Msg("Moderation transition applied")
	s.sync.ProductChanged(ctx, *product)
	return product, nil
}

// Reject deletes a pending product.
func (s *ModerationService) Reject(ctx context.Context, id int64) error {
	product, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.apply(ctx, product, models.EventReject)
	return err
}

// SendBack returns a confirmed product to the moderation queue.
func (s *ModerationService) SendBack(ctx context.Context, id int64) (*models.Product, error) {
	product, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, product, models.EventSendBack)
}

// BulkApprove approves each id independently; products without a photo are
// reported and left pending.
func (s *ModerationService) BulkApprove(ctx context.Context, ids []int64) (*models.BulkResult, error) {
	return s.bulk(ctx, uniqueIDs(ids), models.EventApprove)
}

// BulkReject rejects each id independently.
func (s *ModerationService) BulkReject(ctx context.Context, ids []int64) (*models.BulkResult, error) {
	return s.bulk(ctx, uniqueIDs(ids), models.EventReject)
}

// ApproveAll approves the whole pending queue under the same per-item rules.
func (s *ModerationService) ApproveAll(ctx context.Context) (*models.BulkResult, error) {
	all, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var ids []int64
	for i := range all {
		if !all[i].IsConfirmed {
			ids = append(ids, all[i].ID)
		}
	}
	return s.bulk(ctx, ids, models.EventApprove)
}

func (s *ModerationService) bulk(ctx context.Context, ids []int64, event models.ModerationEvent) (*models.BulkResult, error) {
	result := models.NewBulkResult()
	if len(ids) == 0 {
		return result, nil
	}

	products, err := s.store.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	for _, id := range ids {
		product, ok := byID[id]
		if !ok {
			result.Fail(id, models.ErrProductNotFound)
			continue
		}
		if _, err := s.apply(ctx, product, event); err != nil {
			if !errors.Is(err, models.ErrNoImage) && !errors.Is(err, models.ErrInvalidTransition) {
				log.Error().Err(err).Int64("product_id", id).Str("event", string(event)).Msg("Moderation transition failed")
			}
			result.Fail(id, err)
			continue
		}
		result.Ok(id)
	}
	return result, nil
}
