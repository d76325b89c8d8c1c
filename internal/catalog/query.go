package catalog

import (
	"sort"
	"strings"

	"storefront/pkg/models"

	"github.com/shopspring/decimal"
)

// Listing types.
const (
	TypeAll      = ""
	TypeNew      = "new"
	TypeDiscount = "discount"
)

// Sort fields and directions.
const (
	SortByID       = "id"
	SortByPrice    = "price"
	SortByTitle    = "title"
	SortByDiscount = "discount"

	SortAsc  = "asc"
	SortDesc = "desc"
)

// Params is the full catalog query parameter set.
type Params struct {
	Page       int
	Limit      int
	Type       string
	Search     string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Categories []string
	SortBy     string
	SortOrder  string
}

// Page is one page of query results.
type Page struct {
	Items      []models.Product
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// Response converts the page into the public response shape.
func (p Page) Response() models.CatalogResponse {
	items := p.Items
	if items == nil {
		items = []models.Product{}
	}
	return models.CatalogResponse{
		Products: items,
		Pagination: models.Pagination{
			Page:       p.Page,
			Limit:      p.Limit,
			Total:      p.Total,
			TotalPages: p.TotalPages,
		},
	}
}

// Query runs the catalog pipeline over products. The input slice is not modified.
// Step order is part of the contract: visibility, type, price range, categories,
// search, sort, "new" truncation, pagination.
func Query(products []models.Product, params Params) Page {
	if params.Limit < 1 {
		params.Limit = DefaultLimit
	}

	items := FilterVisible(products)
	items = FilterType(items, params.Type)
	items = FilterPriceRange(items, params.MinPrice, params.MaxPrice)
	items = FilterCategories(items, params.Categories)
	items = FilterSearch(items, params.Search)
	SortProducts(items, params.SortBy, params.SortOrder)

	total := len(items)
	if params.Type == TypeNew && len(items) > params.Limit {
		items = items[:params.Limit]
	}

	return Paginate(items, total, params.Page, params.Limit)
}

// FilterVisible keeps confirmed products with at least one usable image.
func FilterVisible(products []models.Product) []models.Product {
	out := make([]models.Product, 0, len(products))
	for i := range products {
		if products[i].Visible() {
			out = append(out, products[i])
		}
	}
	return out
}

// FilterType applies the listing type. "new" is handled by truncation after sorting.
func FilterType(products []models.Product, listingType string) []models.Product {
	if listingType != TypeDiscount {
		return products
	}
	out := products[:0:0]
	for _, p := range products {
		if p.Discount > 0 {
			out = append(out, p)
		}
	}
	return out
}

// FilterPriceRange keeps products with min <= price <= max; nil bounds are open.
func FilterPriceRange(products []models.Product, min, max *decimal.Decimal) []models.Product {
	if min == nil && max == nil {
		return products
	}
	out := products[:0:0]
	for _, p := range products {
		if min != nil && p.Price.LessThan(*min) {
			continue
		}
		if max != nil && p.Price.GreaterThan(*max) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FilterCategories keeps products whose category is an exact member of slugs,
// compared case- and trim-insensitively. No synonym expansion.
func FilterCategories(products []models.Product, slugs []string) []models.Product {
	wanted := make(map[string]struct{}, len(slugs))
	for _, s := range slugs {
		if key := CategoryKey(s); key != "" {
			wanted[key] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		return products
	}
	out := products[:0:0]
	for _, p := range products {
		if _, ok := wanted[CategoryKey(models.StringValue(p.Category))]; ok {
			out = append(out, p)
		}
	}
	return out
}

// FilterSearch keeps products whose title or comment contains the query,
// ignoring case and all whitespace.
func FilterSearch(products []models.Product, query string) []models.Product {
	needle := SearchKey(query)
	if needle == "" {
		return products
	}
	out := products[:0:0]
	for _, p := range products {
		if strings.Contains(SearchKey(p.Title), needle) ||
			strings.Contains(SearchKey(models.StringValue(p.Comment)), needle) {
			out = append(out, p)
		}
	}
	return out
}

// SortProducts stable-sorts in place. Unknown fields sort by id, which stands in
// for recency; unknown directions sort descending.
func SortProducts(products []models.Product, sortBy, order string) {
	desc := order != SortAsc
	var less func(a, b *models.Product) bool
	switch sortBy {
	case SortByPrice:
		less = func(a, b *models.Product) bool { return a.Price.LessThan(b.Price) }
	case SortByTitle:
		less = func(a, b *models.Product) bool { return strings.ToLower(a.Title) < strings.ToLower(b.Title) }
	case SortByDiscount:
		less = func(a, b *models.Product) bool { return a.Discount < b.Discount }
	default:
		less = func(a, b *models.Product) bool { return a.ID < b.ID }
	}
	sort.SliceStable(products, func(i, j int) bool {
		if desc {
			return less(&products[j], &products[i])
		}
		return less(&products[i], &products[j])
	})
}

// Paginate clamps page into [1, totalPages] and slices items. total is the
// filtered count used for page math; it may exceed len(items) for "new".
func Paginate(items []models.Product, total, page, limit int) Page {
	if limit < 1 {
		limit = DefaultLimit
	}
	totalPages := (total + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * limit
	end := start + limit
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}

	return Page{
		Items:      items[start:end],
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
