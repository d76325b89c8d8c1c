package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

func init() {
	// prices are plain JSON numbers on the wire
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is the canonical product shape shared by the relational store and the bulk file.
type Product struct {
	ID          int64                       `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string                      `gorm:"not null" json:"title"`
	Price       decimal.Decimal             `gorm:"type:numeric(12,2);not null;default:0" json:"price"`
	Discount    int                         `gorm:"not null;default:0;check:discount >= 0 AND discount <= 100" json:"discount"`
	Category    *string                     `gorm:"index" json:"category"`
	Subcategory *string                     `json:"subcategory"`
	Image       *string                     `json:"image"`
	Images      datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"images"`
	Barcode     *string                     `gorm:"index" json:"barcode"`
	Comment     *string                     `json:"comment"`
	Size        *string                     `json:"size"`
	IsConfirmed bool                        `gorm:"not null;default:false;index" json:"isConfirmed"`
	Quantity    int                         `gorm:"not null;default:0;check:quantity >= 0" json:"quantity"`
	Reserved    int                         `gorm:"not null;default:0;check:reserved >= 0" json:"reserved"`
	CreatedAt   time.Time                   `json:"createdAt"`
	UpdatedAt   time.Time                   `json:"updatedAt"`
}

func (Product) TableName() string {
	return "products"
}

// Available is the sellable stock; never negative.
func (p *Product) Available() int {
	if p.Reserved >= p.Quantity {
		return 0
	}
	return p.Quantity - p.Reserved
}

// PrimaryImage returns the canonical image reference: the first non-empty
// entry of Images, else Image, else "".
func (p *Product) PrimaryImage() string {
	for _, img := range p.Images {
		if img = strings.TrimSpace(img); img != "" {
			return img
		}
	}
	if p.Image != nil {
		return strings.TrimSpace(*p.Image)
	}
	return ""
}

// HasImage reports whether the product has at least one non-empty image reference.
func (p *Product) HasImage() bool {
	if p.Image != nil && strings.TrimSpace(*p.Image) != "" {
		return true
	}
	for _, img := range p.Images {
		if strings.TrimSpace(img) != "" {
			return true
		}
	}
	return false
}

// ImageRefs returns every distinct non-empty image reference of the product.
func (p *Product) ImageRefs() []string {
	seen := make(map[string]struct{})
	var refs []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		refs = append(refs, s)
	}
	if p.Image != nil {
		add(*p.Image)
	}
	for _, img := range p.Images {
		add(img)
	}
	return refs
}

// Visible reports whether the product belongs to the public catalog.
func (p *Product) Visible() bool {
	return p.IsConfirmed && p.HasImage()
}

// StringValue dereferences an optional string.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// OptionalString trims s and returns nil when nothing is left.
func OptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// ArchiveEntry is the flattened shape written to the archive snapshot.
type ArchiveEntry struct {
	ID          int64    `json:"id"`
	Title       string   `json:"title"`
	Price       float64  `json:"price"`
	Discount    int      `json:"discount"`
	Category    string   `json:"category,omitempty"`
	Subcategory string   `json:"subcategory,omitempty"`
	ImagePath   string   `json:"image_path,omitempty"`
	Gallery     []string `json:"gallery,omitempty"`
	Barcode     string   `json:"barcode,omitempty"`
	Comment     string   `json:"comment,omitempty"`
	Size        string   `json:"size,omitempty"`
	Available   int      `json:"available"`
}

// NewArchiveEntry flattens a product for external consumption.
func NewArchiveEntry(p *Product) ArchiveEntry {
	gallery := make([]string, 0, len(p.Images))
	for _, img := range p.Images {
		if img = strings.TrimSpace(img); img != "" {
			gallery = append(gallery, img)
		}
	}
	return ArchiveEntry{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price.InexactFloat64(),
		Discount:    p.Discount,
		Category:    StringValue(p.Category),
		Subcategory: StringValue(p.Subcategory),
		ImagePath:   p.PrimaryImage(),
		Gallery:     gallery,
		Barcode:     StringValue(p.Barcode),
		Comment:     StringValue(p.Comment),
		Size:        StringValue(p.Size),
		Available:   p.Available(),
	}
}

// CategoryCount is a category slug with the number of confirmed products in it.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}
