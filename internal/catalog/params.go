package catalog

import (
	"net/url"
	"strconv"
	"strings"

	"storefront/pkg/models"

	"github.com/shopspring/decimal"
)

const (
	DefaultLimit = 12
	MaxLimit     = 100
)

// Limits bounds the page size accepted from callers.
type Limits struct {
	Default int
	Max     int
}

// DefaultLimits are used when configuration does not override them.
var DefaultLimits = Limits{Default: DefaultLimit, Max: MaxLimit}

// ParseParams reads the public query surface. Malformed numbers are validation
// errors; absent values fall back to defaults.
func ParseParams(values url.Values, limits Limits) (Params, error) {
	if limits.Default < 1 {
		limits.Default = DefaultLimit
	}
	if limits.Max < limits.Default {
		limits.Max = limits.Default
	}

	params := Params{
		Page:      1,
		Limit:     limits.Default,
		Type:      strings.ToLower(strings.TrimSpace(values.Get("type"))),
		Search:    strings.TrimSpace(values.Get("search")),
		SortBy:    strings.TrimSpace(values.Get("sortBy")),
		SortOrder: strings.ToLower(strings.TrimSpace(values.Get("sortOrder"))),
	}

	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return Params{}, models.NewValidationError("page", "must be an integer")
		}
		params.Page = page
	}

	if raw := strings.TrimSpace(values.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return Params{}, models.NewValidationError("limit", "must be a positive integer")
		}
		if limit > limits.Max {
			limit = limits.Max
		}
		params.Limit = limit
	}

	var err error
	if params.MinPrice, err = parsePrice(values.Get("minPrice"), "minPrice"); err != nil {
		return Params{}, err
	}
	if params.MaxPrice, err = parsePrice(values.Get("maxPrice"), "maxPrice"); err != nil {
		return Params{}, err
	}

	if raw := values.Get("categories"); raw != "" {
		for _, slug := range strings.Split(raw, ",") {
			if slug = strings.TrimSpace(slug); slug != "" {
				params.Categories = append(params.Categories, slug)
			}
		}
	}

	switch params.SortBy {
	case "", SortByID, SortByPrice, SortByTitle, SortByDiscount:
	default:
		return Params{}, models.NewValidationError("sortBy", "must be one of id, price, title, discount")
	}
	switch params.SortOrder {
	case "", SortAsc, SortDesc:
	default:
		return Params{}, models.NewValidationError("sortOrder", "must be asc or desc")
	}

	return params, nil
}

func parsePrice(raw, field string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", "."))
	if err != nil || d.IsNegative() {
		return nil, models.NewValidationError(field, "must be a non-negative number")
	}
	return &d, nil
}
