package handlers

import (
	"net/http"
	"strconv"

	"storefront/internal/services"
	"storefront/pkg/models"

	"github.com/labstack/echo/v4"
)

type ProductHandler struct {
	productService *services.ProductService
}

func NewProductHandler(productService *services.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// parseProductFilter reads admin listing filters from the query string.
func parseProductFilter(c echo.Context) (models.ProductFilter, error) {
	filter := models.ProductFilter{
		Category: c.QueryParam("category"),
		Search:   c.QueryParam("search"),
		Page:     1,
		PerPage:  20,
	}

	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return filter, models.NewValidationError("page", "must be a positive integer")
		}
		filter.Page = page
	}
	if raw := c.QueryParam("per_page"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil || perPage < 1 || perPage > 100 {
			return filter, models.NewValidationError("per_page", "must be between 1 and 100")
		}
		filter.PerPage = perPage
	}
	if raw := c.QueryParam("confirmed"); raw != "" {
		confirmed, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, models.NewValidationError("confirmed", "must be a boolean")
		}
		filter.Confirmed = &confirmed
	}
	return filter, nil
}

// List godoc
// @Summary List products
// @Description Admin product table, newest first
// @Tags products
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param confirmed query bool false "Filter by confirmation"
// @Param category query string false "Category slug"
// @Param search query string false "Search in title and comment"
// @Success 200 {object} models.PaginationResult[models.Product]
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /admin/products [get]
// @Security BearerAuth
func (h *ProductHandler) List(c echo.Context) error {
	filter, err := parseProductFilter(c)
	if err != nil {
		return respondError(c, err, "invalid filter")
	}

	result, err := h.productService.List(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err, "failed to fetch products")
	}

	return c.JSON(http.StatusOK, result)
}

// Get godoc
// @Summary Get product by ID
// @Tags products
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /admin/products/{id} [get]
// @Security BearerAuth
func (h *ProductHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err, "invalid product ID")
	}

	product, err := h.productService.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, "failed to fetch product")
	}

	return c.JSON(http.StatusOK, product)
}

// Create godoc
// @Summary Create product
// @Description New products start pending moderation
// @Tags products
// @Accept json
// @Produce json
// @Param product body models.CreateProductRequest true "Product data"
// @Success 201 {object} models.Product
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /admin/products [post]
// @Security BearerAuth
func (h *ProductHandler) Create(c echo.Context) error {
	var req models.CreateProductRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "invalid request body")
	}

	product, err := h.productService.Create(c.Request().Context(), &req)
	if err != nil {
		return respondError(c, err, "failed to create product")
	}

	return c.JSON(http.StatusCreated, product)
}

// Update godoc
// @Summary Update product
// @Description Only the provided fields change; an empty string clears a field
// @Tags products
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param product body models.UpdateProductRequest true "Changed fields"
// @Success 200 {object} models.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /admin/products/{id} [put]
// @Security BearerAuth
func (h *ProductHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err, "invalid product ID")
	}

	var req models.UpdateProductRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "invalid request body")
	}

	product, err := h.productService.Update(c.Request().Context(), id, &req)
	if err != nil {
		return respondError(c, err, "failed to update product")
	}

	return c.JSON(http.StatusOK, product)
}

// Delete godoc
// @Summary Delete product
// @Description Deletes the product and releases images no other product uses
// @Tags products
// @Param id path int true "Product ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /admin/products/{id} [delete]
// @Security BearerAuth
func (h *ProductHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err, "invalid product ID")
	}

	if _, err := h.productService.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err, "failed to delete product")
	}

	return c.NoContent(http.StatusNoContent)
}

// BulkConfirm godoc
// @Summary Confirm products
// @Tags products
// @Accept json
// @Produce json
// @Param request body models.BulkIDsRequest true "Product IDs"
// @Success 200 {object} models.BulkResult
// @Failure 400 {object} map[string]string
// @Router /admin/products/bulk/confirm [post]
// @Security BearerAuth
func (h *ProductHandler) BulkConfirm(c echo.Context) error {
	var req models.BulkIDsRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "invalid request body")
	}
	return c.JSON(http.StatusOK, h.productService.BulkConfirm(c.Request().Context(), req.IDs))
}

// BulkUnconfirm godoc
// @Summary Unconfirm products
// @Tags products
// @Accept json
// @Produce json
// @Param request body models.BulkIDsRequest true "Product IDs"
// @Success 200 {object} models.BulkResult
// @Failure 400 {object} map[string]string
// @Router /admin/products/bulk/unconfirm [post]
// @Security BearerAuth
func (h *ProductHandler) BulkUnconfirm(c echo.Context) error {
	var req models.BulkIDsRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "invalid request body")
	}
	return c.JSON(http.StatusOK, h.productService.BulkUnconfirm(c.Request().Context(), req.IDs))
}

// BulkDelete godoc
// @Summary Delete products
// @Tags products
// @Accept json
// @Produce json
// @Param request body models.BulkIDsRequest true "Product IDs"
// @Success 200 {object} models.BulkResult
// @Failure 400 {object} map[string]string
// @Router /admin/products/bulk/delete [post]
// @Security BearerAuth
func (h *ProductHandler) BulkDelete(c echo.Context) error {
	var req models.BulkIDsRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "invalid request body")
	}
	return c.JSON(http.StatusOK, h.productService.BulkDelete(c.Request().Context(), req.IDs))
}

// MoveCategory godoc
// @Summary Move products to a category
// @Tags products
// @Accept json
// @Produce json
// @Param request body models.MoveCategoryRequest true "Product IDs and category"
// @Success 200 {object} models.BulkResult
// @Failure 400 {object} map[string]string
// @Router /admin/products/bulk/move-category [post]
// @Security BearerAuth
func (h *ProductHandler) MoveCategory(c echo.Context) error {
	var req models.MoveCategoryRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "invalid request body")
	}

	result, err := h.productService.MoveCategory(c.Request().Context(), req.IDs, req.Category)
	if err != nil {
		return respondError(c, err, "failed to move products")
	}
	return c.JSON(http.StatusOK, result)
}

// MoveAndConfirm godoc
// @Summary Move products to a category and confirm them
// @Description Pending products without a photo or duplicating a confirmed product are skipped and stay pending
// @Tags products
// @Accept json
// @Produce json
// @Param request body models.MoveCategoryRequest true "Product IDs and category"
// @Success 200 {object} models.BulkResult
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /admin/products/bulk/move-and-confirm [post]
// @Security BearerAuth
func (h *ProductHandler) MoveAndConfirm(c echo.Context) error {
	var req models.MoveCategoryRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "invalid request body")
	}

	result, err := h.productService.MoveAndConfirm(c.Request().Context(), req.IDs, req.Category)
	if err != nil {
		return respondError(c, err, "failed to move and confirm products")
	}
	return c.JSON(http.StatusOK, result)
}

// DeleteDuplicates godoc
// @Summary Delete duplicate products
// @Description Keeps one product per duplicate group, confirmed first, then lowest id
// @Tags products
// @Produce json
// @Success 200 {object} models.DuplicateCleanupResult
// @Failure 500 {object} map[string]string
// @Router /admin/products/delete-duplicates [post]
// @Security BearerAuth
func (h *ProductHandler) DeleteDuplicates(c echo.Context) error {
	result, err := h.productService.DeleteDuplicates(c.Request().Context())
	if err != nil {
		return respondError(c, err, "failed to delete duplicates")
	}
	return c.JSON(http.StatusOK, result)
}
