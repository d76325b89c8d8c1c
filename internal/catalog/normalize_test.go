package catalog

import (
	"encoding/json"
	"testing"

	"storefront/pkg/models"

	"github.com/stretchr/testify/require"
)

func TestNormalizeRecordCoercesLooseInput(t *testing.T) {
	raw := map[string]any{
		"title":       "  Ваза  ",
		"price":       "1 200,50",
		"discount":    json.Number("150"),
		"quantity":    "7",
		"reserved":    -2.0,
		"category":    " vases ",
		"subcategory": "",
		"article":     "A-100",
		"size":        20.0,
		"isConfirmed": "true",
		"images":      []any{"/img/1.jpg", 5, "", "/img/2.jpg"},
	}

	p, err := NormalizeRecord(raw, 4)
	require.NoError(t, err)
	require.Equal(t, int64(5), p.ID)
	require.Equal(t, "Ваза", p.Title)
	require.Equal(t, "1200.5", p.Price.String())
	require.Equal(t, 100, p.Discount)
	require.Equal(t, 7, p.Quantity)
	require.Equal(t, 0, p.Reserved)
	require.Equal(t, "vases", *p.Category)
	require.Nil(t, p.Subcategory)
	require.Equal(t, "A-100", *p.Barcode)
	require.Equal(t, "20", *p.Size)
	require.True(t, p.IsConfirmed)
	require.Equal(t, "/img/1.jpg", *p.Image)
	require.Equal(t, []string{"/img/1.jpg", "/img/2.jpg"}, []string(p.Images))
}

func TestNormalizeRecordNonNumericPriceIsZero(t *testing.T) {
	for _, price := range []any{nil, "free", true, map[string]any{}} {
		p, err := NormalizeRecord(map[string]any{"id": 3.0, "title": "x", "price": price}, 0)
		require.NoError(t, err)
		require.True(t, p.Price.IsZero(), "price %v", price)
		require.Equal(t, int64(3), p.ID)
	}
}

func TestNormalizeRecordRequiresTitle(t *testing.T) {
	_, err := NormalizeRecord(map[string]any{"title": "   ", "price": 10.0}, 2)
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "title", parseErr.Field)
	require.Equal(t, 2, parseErr.Position)
}

func TestNormalizeRecordPrefersBarcodeOverArticle(t *testing.T) {
	p, err := NormalizeRecord(map[string]any{"title": "x", "barcode": "B1", "article": "A1"}, 0)
	require.NoError(t, err)
	require.Equal(t, "B1", *p.Barcode)
}

func TestResolveImages(t *testing.T) {
	tests := []struct {
		name          string
		image, images any
		canonical     *string
		list          []string
	}{
		{"list wins", "/scalar.jpg", []any{"/a.jpg", "/b.jpg"}, str("/a.jpg"), []string{"/a.jpg", "/b.jpg"}},
		{"non-string first falls back", "/scalar.jpg", []any{7, "/a.jpg"}, str("/scalar.jpg"), []string{"/scalar.jpg"}},
		{"empty list falls back", "/scalar.jpg", []any{}, str("/scalar.jpg"), []string{"/scalar.jpg"}},
		{"blank first falls back", " /scalar.jpg ", []any{"  "}, str("/scalar.jpg"), []string{"/scalar.jpg"}},
		{"typed list", nil, []string{"/a.jpg"}, str("/a.jpg"), []string{"/a.jpg"}},
		{"nothing", nil, nil, nil, []string{}},
		{"images not a list", "", "/a.jpg", nil, []string{}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			canonical, list := ResolveImages(test.image, test.images)
			require.Equal(t, test.canonical, canonical)
			require.Equal(t, test.list, list)
		})
	}
}

func TestKeys(t *testing.T) {
	require.Equal(t, "ваза синяя", NormalizeTitle("  Ваза \t СИНЯЯ "))
	require.Equal(t, "vase20cm", SearchKey(" Vase 20 cm"))
	require.Equal(t, "candlesticks", CategoryKey(" CandleSticks "))

	p, err := NormalizeRecord(map[string]any{"title": "Ваза", "price": 500.0}, 0)
	require.NoError(t, err)
	require.Equal(t, "ваза|500", TitlePriceKey(p.Title, p.Price))
}

func TestProductAvailableNeverNegative(t *testing.T) {
	p := models.Product{Quantity: 2, Reserved: 5}
	require.Equal(t, 0, p.Available())
	p.Reserved = 1
	require.Equal(t, 1, p.Available())
}

func TestToDecimalSeparators(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1 200,50", "1200.5", true},
		{"1.200,50", "1200.5", true},
		{"1,200.50", "1200.5", true},
		{"R$ 49,90", "49.9", true},
		{"1.234.567", "1234567", true},
		{"1,234,567", "1234567", true},
		{"12.5", "12.5", true},
		{"abc", "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ToDecimal(tt.in)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got.String())
		})
	}
}
