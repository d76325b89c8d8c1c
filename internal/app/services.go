package app

import (
	"fmt"

	"storefront/internal/auth"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/filestore"
	"storefront/internal/repo"
	"storefront/internal/services"

	"gorm.io/gorm"
)

// Services holds all application services
type Services struct {
	Config            *config.Config
	DB                *gorm.DB
	AuthService       *auth.Service
	ProductRepo       *repo.ProductRepository
	CategoryRepo      *repo.CategoryRepository
	BulkFile          *filestore.Store
	Archive           *filestore.ArchiveWriter
	Images            services.ImageStorage
	SyncBridge        *services.SyncBridge
	ProductService    *services.ProductService
	ModerationService *services.ModerationService
	ImportService     *services.ImportService
	CatalogService    *services.CatalogService
	CategoryService   *services.CategoryService
}

// NewServices creates a new services container
func NewServices(db *gorm.DB, cfg *config.Config) (*Services, error) {
	productRepo := repo.NewProductRepository(db)
	categoryRepo := repo.NewCategoryRepository(db)

	images, err := services.NewImageStorage(cfg.Images)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize image storage: %w", err)
	}

	s, err := Wire(cfg, productRepo, categoryRepo, images)
	if err != nil {
		return nil, err
	}
	s.DB = db
	s.ProductRepo = productRepo
	s.CategoryRepo = categoryRepo
	return s, nil
}

// Wire builds the service graph over the given stores.
func Wire(cfg *config.Config, store services.ProductStore, categories services.CategoryLister, images services.ImageStorage) (*Services, error) {
	bulkFile := filestore.NewStore(cfg.Files.BulkPath, cfg.Files.BackupDir)
	archive := filestore.NewArchiveWriter(cfg.Files.ArchivePath)

	syncBridge := services.NewSyncBridge(store, bulkFile, archive, cfg.Sync.Timeout)
	productService := services.NewProductService(store, syncBridge, images)

	catalogService, err := services.NewCatalogService(cfg.Catalog.Source, store, bulkFile)
	if err != nil {
		return nil, err
	}

	return &Services{
		Config:            cfg,
		AuthService:       auth.NewService(cfg.Auth),
		BulkFile:          bulkFile,
		Archive:           archive,
		Images:            images,
		SyncBridge:        syncBridge,
		ProductService:    productService,
		ModerationService: services.NewModerationService(store, productService, syncBridge),
		ImportService:     services.NewImportService(bulkFile, store, syncBridge),
		CatalogService:    catalogService,
		CategoryService:   services.NewCategoryService(cfg.Catalog.Source, categories, bulkFile),
	}, nil
}

// CatalogLimits returns the configured page size bounds.
func (s *Services) CatalogLimits() catalog.Limits {
	return catalog.Limits{
		Default: s.Config.Catalog.DefaultLimit,
		Max:     s.Config.Catalog.MaxLimit,
	}
}
