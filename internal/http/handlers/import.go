package handlers

import (
	"errors"
	"net/http"

	"storefront/internal/filestore"
	"storefront/internal/services"

	"github.com/labstack/echo/v4"
)

type ImportHandler struct {
	importService *services.ImportService
	syncBridge    *services.SyncBridge
}

func NewImportHandler(importService *services.ImportService, syncBridge *services.SyncBridge) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		syncBridge:    syncBridge,
	}
}

// SyncResponse reports a resync run.
type SyncResponse struct {
	Upserted     int    `json:"upserted"`
	Removed      int    `json:"removed"`
	Archived     int    `json:"archived"`
	FileError    string `json:"fileError,omitempty"`
	ArchiveError string `json:"archiveError,omitempty"`
}

// Import godoc
// @Summary Import the bulk product file
// @Description Upserts every bulk file entry into the products table; new products start pending
// @Tags import
// @Produce json
// @Success 200 {object} models.ProductImportResult
// @Failure 422 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /admin/import [post]
// @Security BearerAuth
func (h *ImportHandler) Import(c echo.Context) error {
	result, err := h.importService.ImportFile(c.Request().Context())
	if errors.Is(err, filestore.ErrParse) {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	}
	if err != nil {
		return respondError(c, err, "failed to import products")
	}

	return c.JSON(http.StatusOK, result)
}

// Resync godoc
// @Summary Re-project the confirmed catalog
// @Description Rewrites every confirmed product into the bulk file and rebuilds the archive
// @Tags import
// @Produce json
// @Success 200 {object} SyncResponse
// @Router /admin/sync [post]
// @Security BearerAuth
func (h *ImportHandler) Resync(c echo.Context) error {
	result := h.syncBridge.Resync(c.Request().Context())

	resp := SyncResponse{
		Upserted: result.Upserted,
		Removed:  result.Removed,
		Archived: result.Archived,
	}
	if result.FileErr != nil {
		resp.FileError = result.FileErr.Error()
	}
	if result.ArchiveErr != nil {
		resp.ArchiveError = result.ArchiveErr.Error()
	}
	return c.JSON(http.StatusOK, resp)
}
