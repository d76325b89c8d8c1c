package handlers

import (
	"storefront/internal/app"
	"storefront/internal/http/middleware"

	"github.com/labstack/echo/v4"
)

// SetupRoutes sets up all API routes
func SetupRoutes(api *echo.Group, services *app.Services) {
	// Public catalog
	catalogHandler := NewCatalogHandler(services.CatalogService, services.CatalogLimits())
	api.GET("/catalog", catalogHandler.List)
	api.GET("/catalog/:id", catalogHandler.Get)

	categoryHandler := NewCategoryHandler(services.CategoryService)
	api.GET("/categories", categoryHandler.List)

	// Admin routes
	admin := api.Group("/admin")
	admin.Use(middleware.JWTAuth(services.AuthService))
	admin.Use(middleware.RequireAdmin(services.AuthService))

	productHandler := NewProductHandler(services.ProductService)
	admin.GET("/products", productHandler.List)
	admin.POST("/products", productHandler.Create)
	admin.GET("/products/:id", productHandler.Get)
	admin.PUT("/products/:id", productHandler.Update)
	admin.DELETE("/products/:id", productHandler.Delete)
	admin.POST("/products/bulk/confirm", productHandler.BulkConfirm)
	admin.POST("/products/bulk/unconfirm", productHandler.BulkUnconfirm)
	admin.POST("/products/bulk/delete", productHandler.BulkDelete)
	admin.POST("/products/bulk/move-category", productHandler.MoveCategory)
	admin.POST("/products/bulk/move-and-confirm", productHandler.MoveAndConfirm)
	admin.POST("/products/delete-duplicates", productHandler.DeleteDuplicates)

	moderationHandler := NewModerationHandler(services.ModerationService)
	admin.GET("/moderation", moderationHandler.Queue)
	admin.POST("/moderation/:id/categorize", moderationHandler.Categorize)
	admin.POST("/moderation/:id/approve", moderationHandler.Approve)
	admin.POST("/moderation/:id/approve-without-photo", moderationHandler.ApproveWithoutPhoto)
	admin.POST("/moderation/:id/reject", moderationHandler.Reject)
	admin.POST("/moderation/:id/send-back", moderationHandler.SendBack)
	admin.POST("/moderation/bulk/approve", moderationHandler.BulkApprove)
	admin.POST("/moderation/bulk/reject", moderationHandler.BulkReject)
	admin.POST("/moderation/approve-all", moderationHandler.ApproveAll)

	importHandler := NewImportHandler(services.ImportService, services.SyncBridge)
	admin.POST("/import", importHandler.Import)
	admin.POST("/sync", importHandler.Resync)

	adminExportHandler := NewAdminExportHandler(services.ProductService, services.Archive.Path())
	adminExport := admin.Group("/export")
	adminExport.GET("/archive", adminExportHandler.ExportArchive)
	adminExport.GET("/products.csv", adminExportHandler.ExportProducts)
}
