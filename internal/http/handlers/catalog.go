package handlers

import (
	"net/http"

	"storefront/internal/catalog"
	"storefront/internal/services"

	"github.com/labstack/echo/v4"
)

type CatalogHandler struct {
	catalogService *services.CatalogService
	limits         catalog.Limits
}

func NewCatalogHandler(catalogService *services.CatalogService, limits catalog.Limits) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		limits:         limits,
	}
}

// List godoc
// @Summary Query the public catalog
// @Description Confirmed products with a photo, filtered, sorted and paginated
// @Tags catalog
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size"
// @Param type query string false "Listing type" Enums(new, discount)
// @Param search query string false "Search in title and comment"
// @Param minPrice query number false "Minimum price"
// @Param maxPrice query number false "Maximum price"
// @Param categories query string false "Comma separated category slugs"
// @Param sortBy query string false "Sort field" Enums(id, price, title, discount)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {object} models.CatalogResponse
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /catalog [get]
func (h *CatalogHandler) List(c echo.Context) error {
	params, err := catalog.ParseParams(c.QueryParams(), h.limits)
	if err != nil {
		return respondError(c, err, "invalid query")
	}

	page, err := h.catalogService.Query(c.Request().Context(), params)
	if err != nil {
		return respondError(c, err, "failed to load catalog")
	}

	return c.JSON(http.StatusOK, page.Response())
}

// Get godoc
// @Summary Get a catalog product
// @Tags catalog
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /catalog/{id} [get]
func (h *CatalogHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err, "invalid product ID")
	}

	product, err := h.catalogService.Product(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "failed to load product")
	}

	return c.JSON(http.StatusOK, product)
}
