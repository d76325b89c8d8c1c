package filestore

import (
	"encoding/json"
	"strings"

	"storefront/internal/catalog"
	"storefront/pkg/models"
)

// Record is one raw entry of the bulk file. Keys absent from a Record passed to
// Upsert are left untouched; keys present with a nil value clear the field.
type Record map[string]any

// ID returns the record's numeric id, or 0.
func (r Record) ID() int64 {
	id, _ := catalog.ToInt64(r["id"])
	return id
}

// Barcode returns the trimmed barcode, reading the legacy "article" alias.
func (r Record) Barcode() string {
	if b := models.OptionalString(stringField(r["barcode"])); b != nil {
		return *b
	}
	return strings.TrimSpace(stringField(r["article"]))
}

// TitlePriceKey returns the normalized title+price key, or "" without a title.
func (r Record) TitlePriceKey() string {
	title := strings.TrimSpace(stringField(r["title"]))
	if title == "" {
		return ""
	}
	price, _ := catalog.ToDecimal(r["price"])
	return catalog.TitlePriceKey(title, price)
}

func stringField(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	}
	return ""
}

// RecordFromProduct projects a product into bulk-file form. Optional fields that
// are absent are written as null so a merge clears stale values.
func RecordFromProduct(p *models.Product) Record {
	images := make([]any, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, img)
	}
	rec := Record{
		"id":          p.ID,
		"title":       p.Title,
		"price":       json.Number(p.Price.String()),
		"discount":    p.Discount,
		"category":    optional(p.Category),
		"subcategory": optional(p.Subcategory),
		"image":       optional(p.Image),
		"images":      images,
		"barcode":     optional(p.Barcode),
		"comment":     optional(p.Comment),
		"size":        optional(p.Size),
		"isConfirmed": p.IsConfirmed,
		"quantity":    p.Quantity,
		"reserved":    p.Reserved,
	}
	return rec
}

func optional(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// matchIndex finds the entry rec refers to: barcode, then id, then exact
// normalized title+price. Returns -1 when nothing matches.
func matchIndex(records []Record, rec Record) int {
	if barcode := rec.Barcode(); barcode != "" {
		for i, existing := range records {
			if existing.Barcode() == barcode {
				return i
			}
		}
	}

	if id := rec.ID(); id > 0 {
		for i, existing := range records {
			if effectiveID(existing, i) == id {
				return i
			}
		}
	}

	if key := rec.TitlePriceKey(); key != "" {
		for i, existing := range records {
			if existing.TitlePriceKey() == key {
				return i
			}
		}
	}
	return -1
}

// effectiveID is the record id with the array-position fallback applied.
func effectiveID(rec Record, position int) int64 {
	if id := rec.ID(); id > 0 {
		return id
	}
	return int64(position + 1)
}

func nextID(records []Record) int64 {
	max := int64(len(records))
	for i, rec := range records {
		if id := effectiveID(rec, i); id > max {
			max = id
		}
	}
	return max + 1
}
