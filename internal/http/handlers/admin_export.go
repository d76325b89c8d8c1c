package handlers

import (
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"storefront/internal/services"
	"storefront/pkg/models"

	"github.com/labstack/echo/v4"
)

type AdminExportHandler struct {
	productService *services.ProductService
	archivePath    string
}

func NewAdminExportHandler(productService *services.ProductService, archivePath string) *AdminExportHandler {
	return &AdminExportHandler{
		productService: productService,
		archivePath:    archivePath,
	}
}

// ExportArchive godoc
// @Summary Download the archive snapshot
// @Description The last confirmed catalog snapshot written by the sync bridge
// @Tags admin-export
// @Produce json
// @Success 200 {object} filestore.ArchiveSnapshot
// @Failure 404 {object} map[string]string
// @Router /admin/export/archive [get]
// @Security BearerAuth
func (h *AdminExportHandler) ExportArchive(c echo.Context) error {
	if _, err := os.Stat(h.archivePath); errors.Is(err, os.ErrNotExist) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "archive not generated yet"})
	} else if err != nil {
		return respondError(c, err, "failed to read archive")
	}

	c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSONCharsetUTF8)
	return c.File(h.archivePath)
}

var csvHeader = []string{
	"id",
	"title",
	"price",
	"discount",
	"category",
	"subcategory",
	"image",
	"images",
	"barcode",
	"comment",
	"size",
	"quantity",
	"reserved",
	"is_confirmed",
}

func csvRecord(p *models.Product) []string {
	return []string{
		strconv.FormatInt(p.ID, 10),
		p.Title,
		p.Price.StringFixed(2),
		strconv.Itoa(p.Discount),
		models.StringValue(p.Category),
		models.StringValue(p.Subcategory),
		p.PrimaryImage(),
		strings.Join(p.Images, ";"),
		models.StringValue(p.Barcode),
		models.StringValue(p.Comment),
		models.StringValue(p.Size),
		strconv.Itoa(p.Quantity),
		strconv.Itoa(p.Reserved),
		strconv.FormatBool(p.IsConfirmed),
	}
}

// ExportProducts godoc
// @Summary Export products to CSV
// @Description Every product, confirmed or pending, ordered by id
// @Tags admin-export
// @Produce text/csv
// @Success 200 {string} string "CSV file content"
// @Failure 500 {object} map[string]string
// @Router /admin/export/products.csv [get]
// @Security BearerAuth
func (h *AdminExportHandler) ExportProducts(c echo.Context) error {
	products, err := h.productService.ListAll(c.Request().Context())
	if err != nil {
		return respondError(c, err, "failed to fetch products")
	}

	filename := fmt.Sprintf("products_%s.csv", time.Now().Format("2006-01-02_15-04-05"))
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Response().WriteHeader(http.StatusOK)

	writer := csv.NewWriter(c.Response().Writer)
	if err := writer.Write(csvHeader); err != nil {
		return err
	}
	for i := range products {
		if err := writer.Write(csvRecord(&products[i])); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
