package services

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/catalog"
	"storefront/internal/filestore"
	"storefront/pkg/models"

	"github.com/rs/zerolog/log"
)

const (
	ImportStatusCreated = "created"
	ImportStatusUpdated = "updated"
	ImportStatusError   = "error"
)

// RecordSource yields raw bulk file entries.
type RecordSource interface {
	Records(ctx context.Context) ([]filestore.Record, error)
}

// ImportService loads the bulk file into the relational store.
type ImportService struct {
	source RecordSource
	store  ProductStore
	sync   Projector
}

func NewImportService(source RecordSource, store ProductStore, sync Projector) *ImportService {
	return &ImportService{
		source: source,
		store:  store,
		sync:   sync,
	}
}

// ImportFile upserts every bulk file entry. New products start pending;
// matched products keep their id and confirmation state. A file that cannot
// be parsed aborts the import before anything is written.
func (s *ImportService) ImportFile(ctx context.Context) (*models.ProductImportResult, error) {
	records, err := s.source.Records(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read bulk file: %w", err)
	}

	result := &models.ProductImportResult{
		Results: make([]models.ProductImportItemResult, 0, len(records)),
	}

	for i, rec := range records {
		item := s.importRecord(ctx, rec, i)
		switch item.Status {
		case ImportStatusCreated:
			result.Created++
		case ImportStatusUpdated:
			result.Updated++
		default:
			result.Errors++
		}
		result.TotalProcessed++
		result.Results = append(result.Results, item)

		if result.TotalProcessed%100 == 0 {
			log.Info().Int("processed", result.TotalProcessed).Int("total", len(records)).Msg("Import progress")
		}
	}

	log.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("errors", result.Errors).
		Msg("Bulk file import completed")

	if result.Updated > 0 {
		s.sync.CatalogChanged(ctx)
	}
	return result, nil
}

func (s *ImportService) importRecord(ctx context.Context, rec filestore.Record, position int) models.ProductImportItemResult {
	item := models.ProductImportItemResult{
		RowNumber: position + 1,
		Barcode:   rec.Barcode(),
	}

	product, err := catalog.NormalizeRecord(rec, position)
	if err != nil {
		item.Status = ImportStatusError
		item.Error = err.Error()
		return item
	}
	item.Title = product.Title

	existing, err := s.store.FindMatch(ctx, models.StringValue(product.Barcode), product.Title, product.Price)
	switch {
	case errors.Is(err, models.ErrProductNotFound):
		product.ID = 0
		product.IsConfirmed = false
		if err := validateProduct(&product); err != nil {
			return failed(item, err)
		}
		if err := s.store.Create(ctx, &product); err != nil {
			return failed(item, err)
		}
		item.Status = ImportStatusCreated
	case err != nil:
		return failed(item, err)
	default:
		product = mergeImported(*existing, product, rec)
		if err := validateProduct(&product); err != nil {
			return failed(item, err)
		}
		if err := s.store.Update(ctx, &product); err != nil {
			return failed(item, err)
		}
		item.Status = ImportStatusUpdated
	}

	id := product.ID
	item.ProductID = &id
	return item
}

// mergeImported applies the fields the record carries onto the stored product.
// Keys absent from the record keep their stored values; a key present with
// null clears the field. Identity and confirmation state are never imported.
func mergeImported(existing, incoming models.Product, rec filestore.Record) models.Product {
	merged := existing
	has := func(key string) bool {
		_, ok := rec[key]
		return ok
	}

	if has("title") {
		merged.Title = incoming.Title
	}
	if has("price") {
		merged.Price = incoming.Price
	}
	if has("discount") {
		merged.Discount = incoming.Discount
	}
	if has("category") {
		merged.Category = incoming.Category
	}
	if has("subcategory") {
		merged.Subcategory = incoming.Subcategory
	}
	if has("image") || has("images") {
		merged.Image = incoming.Image
		merged.Images = incoming.Images
	}
	if has("barcode") || has("article") {
		merged.Barcode = incoming.Barcode
	}
	if has("comment") {
		merged.Comment = incoming.Comment
	}
	if has("size") {
		merged.Size = incoming.Size
	}
	if has("quantity") {
		merged.Quantity = incoming.Quantity
	}
	if has("reserved") {
		merged.Reserved = incoming.Reserved
	}
	return merged
}

func failed(item models.ProductImportItemResult, err error) models.ProductImportItemResult {
	log.Warn().Err(err).Int("row", item.RowNumber).Str("title", item.Title).Msg("Failed to import product")
	item.Status = ImportStatusError
	item.Error = err.Error()
	return item
}
