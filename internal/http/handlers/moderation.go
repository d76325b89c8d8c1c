package handlers

import (
	"context"
	"net/http"

	"storefront/internal/services"
	"storefront/pkg/models"

	"github.com/labstack/echo/v4"
)

type ModerationHandler struct {
	moderationService *services.ModerationService
}

func NewModerationHandler(moderationService *services.ModerationService) *ModerationHandler {
	return &ModerationHandler{
		moderationService: moderationService,
	}
}

// Queue godoc
// @Summary List the moderation queue
// @Description Pending products, with the confirmed product each one duplicates if any
// @Tags moderation
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page" default(20)
// @Param category query string false "Category slug"
// @Param search query string false "Search in title and comment"
// @Success 200 {object} models.PaginationResult[models.ModerationItem]
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /admin/moderation [get]
// @Security BearerAuth
func (h *ModerationHandler) Queue(c echo.Context) error {
	filter, err := parseProductFilter(c)
	if err != nil {
		return respondError(c, err, "invalid filter")
	}

	result, err := h.moderationService.Queue(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err, "failed to fetch moderation queue")
	}
	return c.JSON(http.StatusOK, result)
}

// Categorize godoc
// @Summary Categorize a pending product
// @Tags moderation
// @Accept json
// @Produce json
// @Param id path int true "Product ID"
// @Param request body models.CategorizeRequest true "Category"
// @Success 200 {object} models.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /admin/moderation/{id}/categorize [post]
// @Security BearerAuth
func (h *ModerationHandler) Categorize(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err, "invalid product ID")
	}

	var req models.CategorizeRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "invalid request body")
	}

	product, err := h.moderationService.Categorize(c.Request().Context(), id, req.Category, req.Subcategory)
	if err != nil {
		return respondError(c, err, "failed to categorize product")
	}
	return c.JSON(http.StatusOK, product)
}

// Approve godoc
// @Summary Approve a pending product
// @Description Fails with 422 when the product has no photo
// @Tags moderation
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.Product
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /admin/moderation/{id}/approve [post]
// @Security BearerAuth
func (h *ModerationHandler) Approve(c echo.Context) error {
	return h.transition(c, h.moderationService.Approve, "failed to approve product")
}

// ApproveWithoutPhoto godoc
// @Summary Approve a pending product without the photo check
// @Tags moderation
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.Product
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /admin/moderation/{id}/approve-without-photo [post]
// @Security BearerAuth
func (h *ModerationHandler) ApproveWithoutPhoto(c echo.Context) error {
	return h.transition(c, h.moderationService.ApproveWithoutPhoto, "failed to approve product")
}

// SendBack godoc
// @Summary Return a confirmed product to moderation
// @Tags moderation
// @Produce json
// @Param id path int true "Product ID"
// @Success 200 {object} models.Product
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /admin/moderation/{id}/send-back [post]
// @Security BearerAuth
func (h *ModerationHandler) SendBack(c echo.Context) error {
	return h.transition(c, h.moderationService.SendBack, "failed to send product back")
}

func (h *ModerationHandler) transition(c echo.Context, apply func(ctx context.Context, id int64) (*models.Product, error), fallback string) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err, "invalid product ID")
	}

	product, err := apply(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err, fallback)
	}
	return c.JSON(http.StatusOK, product)
}

// Reject godoc
// @Summary Reject a pending product
// @Description Deletes the product and releases images no other product uses
// @Tags moderation
// @Param id path int true "Product ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /admin/moderation/{id}/reject [post]
// @Security BearerAuth
func (h *ModerationHandler) Reject(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(c, err, "invalid product ID")
	}

	if err := h.moderationService.Reject(c.Request().Context(), id); err != nil {
		return respondError(c, err, "failed to reject product")
	}
	return c.NoContent(http.StatusNoContent)
}

// BulkApprove godoc
// @Summary Approve several pending products
// @Tags moderation
// @Accept json
// @Produce json
// @Param request body models.BulkIDsRequest true "Product IDs"
// @Success 200 {object} models.BulkResult
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /admin/moderation/bulk/approve [post]
// @Security BearerAuth
func (h *ModerationHandler) BulkApprove(c echo.Context) error {
	var req models.BulkIDsRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "invalid request body")
	}

	result, err := h.moderationService.BulkApprove(c.Request().Context(), req.IDs)
	if err != nil {
		return respondError(c, err, "failed to approve products")
	}
	return c.JSON(http.StatusOK, result)
}

// BulkReject godoc
// @Summary Reject several pending products
// @Tags moderation
// @Accept json
// @Produce json
// @Param request body models.BulkIDsRequest true "Product IDs"
// @Success 200 {object} models.BulkResult
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /admin/moderation/bulk/reject [post]
// @Security BearerAuth
func (h *ModerationHandler) BulkReject(c echo.Context) error {
	var req models.BulkIDsRequest
	if err := bind(c, &req); err != nil {
		return respondError(c, err, "invalid request body")
	}

	result, err := h.moderationService.BulkReject(c.Request().Context(), req.IDs)
	if err != nil {
		return respondError(c, err, "failed to reject products")
	}
	return c.JSON(http.StatusOK, result)
}

// ApproveAll godoc
// @Summary Approve the whole moderation queue
// @Description Products without a photo are reported and stay pending
// @Tags moderation
// @Produce json
// @Success 200 {object} models.BulkResult
// @Failure 500 {object} map[string]string
// @Router /admin/moderation/approve-all [post]
// @Security BearerAuth
func (h *ModerationHandler) ApproveAll(c echo.Context) error {
	result, err := h.moderationService.ApproveAll(c.Request().Context())
	if err != nil {
		return respondError(c, err, "failed to approve products")
	}
	return c.JSON(http.StatusOK, result)
}
