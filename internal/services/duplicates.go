package services

import (
	"sort"
	"strings"

	"storefront/internal/catalog"
	"storefront/pkg/models"
)

const (
	DuplicateByBarcode    = "barcode"
	DuplicateByTitlePrice = "title_price"
)

// DuplicateMatch names the product a candidate collides with and the key used.
type DuplicateMatch struct {
	ID int64
	By string
}

// DuplicateIndex looks up confirmed products by barcode and by normalized
// title+price. Built per request, never cached.
type DuplicateIndex struct {
	byBarcode    map[string]int64
	byTitlePrice map[string]int64
}

// NewDuplicateIndex indexes products; on key collisions the lowest id wins.
func NewDuplicateIndex(products []models.Product) *DuplicateIndex {
	ix := &DuplicateIndex{
		byBarcode:    make(map[string]int64, len(products)),
		byTitlePrice: make(map[string]int64, len(products)),
	}
	for i := range products {
		ix.Add(&products[i])
	}
	return ix
}

func barcodeKey(p *models.Product) string {
	return strings.TrimSpace(models.StringValue(p.Barcode))
}

func titlePriceKey(p *models.Product) string {
	if strings.TrimSpace(p.Title) == "" {
		return ""
	}
	return catalog.TitlePriceKey(p.Title, p.Price)
}

// Add indexes one product.
func (ix *DuplicateIndex) Add(p *models.Product) {
	if key := barcodeKey(p); key != "" {
		if id, ok := ix.byBarcode[key]; !ok || p.ID < id {
			ix.byBarcode[key] = p.ID
		}
	}
	if key := titlePriceKey(p); key != "" {
		if id, ok := ix.byTitlePrice[key]; !ok || p.ID < id {
			ix.byTitlePrice[key] = p.ID
		}
	}
}

// Lookup reports the indexed product candidate collides with, barcode first.
// A product never matches itself.
func (ix *DuplicateIndex) Lookup(candidate *models.Product) (DuplicateMatch, bool) {
	if key := barcodeKey(candidate); key != "" {
		if id, ok := ix.byBarcode[key]; ok && id != candidate.ID {
			return DuplicateMatch{ID: id, By: DuplicateByBarcode}, true
		}
	}
	if key := titlePriceKey(candidate); key != "" {
		if id, ok := ix.byTitlePrice[key]; ok && id != candidate.ID {
			return DuplicateMatch{ID: id, By: DuplicateByTitlePrice}, true
		}
	}
	return DuplicateMatch{}, false
}

// GroupDuplicates partitions products sharing a barcode or a title+price key,
// transitively. Only groups of two or more are returned, each ordered so the
// product to keep comes first.
func GroupDuplicates(products []models.Product) [][]models.Product {
	parent := make([]int, len(products))
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(a, b int) {
		if ra, rb := find(a), find(b); ra != rb {
			parent[rb] = ra
		}
	}

	firstByKey := make(map[string]int)
	link := func(key string, i int) {
		if j, ok := firstByKey[key]; ok {
			union(j, i)
			return
		}
		firstByKey[key] = i
	}
	for i := range products {
		if key := barcodeKey(&products[i]); key != "" {
			link("b:"+key, i)
		}
		if key := titlePriceKey(&products[i]); key != "" {
			link("t:"+key, i)
		}
	}

	members := make(map[int][]models.Product)
	var roots []int
	for i := range products {
		root := find(i)
		if _, ok := members[root]; !ok {
			roots = append(roots, root)
		}
		members[root] = append(members[root], products[i])
	}

	var groups [][]models.Product
	for _, root := range roots {
		group := members[root]
		if len(group) < 2 {
			continue
		}
		sort.SliceStable(group, func(i, j int) bool {
			if group[i].IsConfirmed != group[j].IsConfirmed {
				return group[i].IsConfirmed
			}
			return group[i].ID < group[j].ID
		})
		groups = append(groups, group)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i][0].ID < groups[j][0].ID })
	return groups
}
