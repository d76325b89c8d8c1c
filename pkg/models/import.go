package models

// CreateProductRequest is the admin form payload for a new product.
type CreateProductRequest struct {
	Title       string   `json:"title" validate:"required"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Discount    int      `json:"discount" validate:"gte=0,lte=100"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory"`
	Image       string   `json:"image"`
	Images      []string `json:"images"`
	Barcode     string   `json:"barcode"`
	Comment     string   `json:"comment"`
	Size        string   `json:"size"`
	Quantity    int      `json:"quantity" validate:"gte=0"`
	Reserved    int      `json:"reserved" validate:"gte=0,ltefield=Quantity"`
}

// UpdateProductRequest carries only the fields the admin changed; nil means "not provided".
// A provided empty string clears the field.
type UpdateProductRequest struct {
	Title       *string   `json:"title"`
	Price       *float64  `json:"price" validate:"omitempty,gte=0"`
	Discount    *int      `json:"discount" validate:"omitempty,gte=0,lte=100"`
	Category    *string   `json:"category"`
	Subcategory *string   `json:"subcategory"`
	Image       *string   `json:"image"`
	Images      *[]string `json:"images"`
	Barcode     *string   `json:"barcode"`
	Comment     *string   `json:"comment"`
	Size        *string   `json:"size"`
	Quantity    *int      `json:"quantity" validate:"omitempty,gte=0"`
	Reserved    *int      `json:"reserved" validate:"omitempty,gte=0"`
}

// BulkIDsRequest selects products for a bulk action.
type BulkIDsRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

// MoveCategoryRequest moves products into a category.
type MoveCategoryRequest struct {
	IDs      []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
	Category string  `json:"category" validate:"required"`
}

// CategorizeRequest sets the category of a pending product.
type CategorizeRequest struct {
	Category    string `json:"category" validate:"required"`
	Subcategory string `json:"subcategory"`
}

// ProductImportResult represents the result of a bulk file import
type ProductImportResult struct {
	TotalProcessed int                       `json:"total_processed"`
	Created        int                       `json:"created"`
	Updated        int                       `json:"updated"`
	Errors         int                       `json:"errors"`
	Results        []ProductImportItemResult `json:"results"`
}

// ProductImportItemResult represents the result of importing a single record
type ProductImportItemResult struct {
	RowNumber int    `json:"row_number"`
	Title     string `json:"title"`
	Barcode   string `json:"barcode,omitempty"`
	Status    string `json:"status"` // "created", "updated", "error"
	ProductID *int64 `json:"product_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// ModerationItem is a pending product with its advisory duplicate flag.
type ModerationItem struct {
	Product
	State       ModerationState `json:"state"`
	HasPhoto    bool            `json:"hasPhoto"`
	DuplicateOf *int64          `json:"duplicateOf,omitempty"`
	DuplicateBy string          `json:"duplicateBy,omitempty"`
}
