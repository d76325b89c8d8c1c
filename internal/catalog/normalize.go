// Package catalog holds the pure product functions: the parse/normalize
// boundary for loosely typed bulk records and the catalog query engine.
package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"storefront/pkg/models"

	"github.com/shopspring/decimal"
)

var nonNumeric = regexp.MustCompile(`[^\d,.\-]`)

// ParseError reports a bulk record that cannot become a product.
type ParseError struct {
	Position int
	Field    string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("record %d: %s: %s", e.Position+1, e.Field, e.Reason)
}

// NormalizeRecord coerces an untyped bulk record into a Product. position is the
// record's index in the source array and backs the id when the record has none.
func NormalizeRecord(raw map[string]any, position int) (models.Product, error) {
	title := strings.TrimSpace(toString(raw["title"]))
	if title == "" {
		return models.Product{}, &ParseError{Position: position, Field: "title", Reason: "missing"}
	}

	id, _ := ToInt64(raw["id"])
	if id <= 0 {
		id = int64(position + 1)
	}

	price, _ := ToDecimal(raw["price"])
	if price.IsNegative() {
		price = decimal.Zero
	}

	discount, _ := ToInt64(raw["discount"])
	quantity, _ := ToInt64(raw["quantity"])
	reserved, _ := ToInt64(raw["reserved"])

	barcode := raw["barcode"]
	if models.OptionalString(toString(barcode)) == nil {
		barcode = raw["article"]
	}

	image, images := ResolveImages(raw["image"], raw["images"])

	return models.Product{
		ID:          id,
		Title:       title,
		Price:       price,
		Discount:    int(clamp(discount, 0, 100)),
		Category:    models.OptionalString(toString(raw["category"])),
		Subcategory: models.OptionalString(toString(raw["subcategory"])),
		Image:       image,
		Images:      images,
		Barcode:     models.OptionalString(toString(barcode)),
		Comment:     models.OptionalString(toString(raw["comment"])),
		Size:        models.OptionalString(toString(raw["size"])),
		IsConfirmed: toBool(raw["isConfirmed"]),
		Quantity:    int(clamp(quantity, 0, math.MaxInt32)),
		Reserved:    int(clamp(reserved, 0, math.MaxInt32)),
	}, nil
}

// ResolveImages picks the canonical image and the image sequence from the raw
// `image` and `images` fields. images[0] wins when it is a non-empty string.
func ResolveImages(image, images any) (*string, []string) {
	var list []string
	firstValid := false
	if seq, ok := images.([]any); ok && len(seq) > 0 {
		if s, ok := seq[0].(string); ok && strings.TrimSpace(s) != "" {
			firstValid = true
			for _, item := range seq {
				if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
					list = append(list, strings.TrimSpace(s))
				}
			}
		}
	} else if seq, ok := images.([]string); ok && len(seq) > 0 && strings.TrimSpace(seq[0]) != "" {
		firstValid = true
		for _, s := range seq {
			if s = strings.TrimSpace(s); s != "" {
				list = append(list, s)
			}
		}
	}

	if firstValid {
		canonical := list[0]
		return &canonical, list
	}

	if scalar := models.OptionalString(toString(image)); scalar != nil {
		return scalar, []string{*scalar}
	}
	return nil, []string{}
}

// ToDecimal accepts numbers and numeric strings ("1 200,50", "1.200,50",
// "1,200.50", "R$ 49,90"). Anything else yields zero and false.
func ToDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, false
	case decimal.Decimal:
		return n, true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case string:
		cleaned := normalizeSeparators(nonNumeric.ReplaceAllString(n, ""))
		if cleaned == "" {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}

// normalizeSeparators rewrites a digit string to use "." as the only decimal
// separator. With both "," and "." present the last one is the decimal mark;
// a single kind of separator repeated more than once groups thousands.
func normalizeSeparators(s string) string {
	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			return strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return strings.ReplaceAll(s, ",", "")
		}
		return strings.ReplaceAll(s, ",", ".")
	case lastDot >= 0 && strings.Count(s, ".") > 1:
		return strings.ReplaceAll(s, ".", "")
	}
	return s
}

// ToInt64 truncates any numeric input to an integer.
func ToInt64(v any) (int64, bool) {
	d, ok := ToDecimal(v)
	if !ok {
		return 0, false
	}
	return d.IntPart(), true
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case bool:
		return ""
	}
	return ""
}

func toBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	}
	if n, ok := ToInt64(v); ok {
		return n != 0
	}
	return false
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NormalizeTitle lower-cases and collapses internal whitespace.
func NormalizeTitle(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// SearchKey lower-cases and strips all whitespace, so "vase 20cm" matches "vase20cm".
func SearchKey(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), "")
}

// CategoryKey is the comparison form of a category slug.
func CategoryKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// TitlePriceKey is the duplicate key for products without a shared barcode.
func TitlePriceKey(title string, price decimal.Decimal) string {
	return NormalizeTitle(title) + "|" + price.String()
}
