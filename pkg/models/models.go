package models

// PaginationResult represents paginated results
type PaginationResult[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
}

// ProductFilter narrows admin listings. Zero values mean "no restriction".
type ProductFilter struct {
	Confirmed *bool
	Category  string
	Search    string
	Page      int
	PerPage   int
}

// Pagination is the pagination block of a catalog response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// CatalogResponse is the public catalog query response.
type CatalogResponse struct {
	Products   []Product  `json:"products"`
	Pagination Pagination `json:"pagination"`
}

// BulkItemError is a per-id failure inside a bulk operation.
type BulkItemError struct {
	ID    int64  `json:"id"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

// SkippedItem is an id a bulk operation left untouched on purpose.
type SkippedItem struct {
	ID          int64  `json:"id"`
	Reason      string `json:"reason"`
	DuplicateOf int64  `json:"duplicateOf,omitempty"`
}

// BulkResult reports per-id outcomes; bulk operations are not all-or-nothing.
type BulkResult struct {
	Succeeded []int64         `json:"succeeded"`
	Failed    []BulkItemError `json:"failed"`
	Skipped   []SkippedItem   `json:"skipped"`
}

// NewBulkResult returns a BulkResult with non-nil slices so it encodes as empty arrays.
func NewBulkResult() *BulkResult {
	return &BulkResult{
		Succeeded: []int64{},
		Failed:    []BulkItemError{},
		Skipped:   []SkippedItem{},
	}
}

func (r *BulkResult) Ok(id int64) {
	r.Succeeded = append(r.Succeeded, id)
}

func (r *BulkResult) Fail(id int64, err error) {
	r.Failed = append(r.Failed, BulkItemError{ID: id, Code: CodeFor(err), Error: err.Error()})
}

func (r *BulkResult) Skip(id int64, reason string, duplicateOf int64) {
	r.Skipped = append(r.Skipped, SkippedItem{ID: id, Reason: reason, DuplicateOf: duplicateOf})
}

// DuplicateCleanupResult reports what DeleteDuplicates kept and removed.
type DuplicateCleanupResult struct {
	Groups  int     `json:"groups"`
	Kept    []int64 `json:"kept"`
	Deleted []int64 `json:"deleted"`
}

// GetAllModels returns all models for GORM AutoMigrate
func GetAllModels() []interface{} {
	return []interface{}{
		&Product{},
	}
}
