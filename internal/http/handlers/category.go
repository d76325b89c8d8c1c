package handlers

import (
	"net/http"

	"storefront/internal/services"

	"github.com/labstack/echo/v4"
)

type CategoryHandler struct {
	categoryService *services.CategoryService
}

func NewCategoryHandler(categoryService *services.CategoryService) *CategoryHandler {
	return &CategoryHandler{
		categoryService: categoryService,
	}
}

// List godoc
// @Summary List categories
// @Description Distinct category slugs of publicly visible products, with counts, ordered by slug
// @Tags categories
// @Produce json
// @Success 200 {array} models.CategoryCount
// @Failure 500 {object} map[string]string
// @Router /categories [get]
func (h *CategoryHandler) List(c echo.Context) error {
	categories, err := h.categoryService.ListCategories(c.Request().Context())
	if err != nil {
		return respondError(c, err, "failed to fetch categories")
	}

	return c.JSON(http.StatusOK, categories)
}
