package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"storefront/pkg/models"
)

// ArchiveSnapshot is the one-way export of the confirmed catalog.
type ArchiveSnapshot struct {
	Products []models.ArchiveEntry `json:"products"`
}

// NewArchiveSnapshot keeps confirmed products only, ordered by id.
func NewArchiveSnapshot(products []models.Product) ArchiveSnapshot {
	entries := make([]models.ArchiveEntry, 0, len(products))
	for i := range products {
		if !products[i].IsConfirmed {
			continue
		}
		entries = append(entries, models.NewArchiveEntry(&products[i]))
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return ArchiveSnapshot{Products: entries}
}

// ArchiveWriter overwrites the archive snapshot file.
type ArchiveWriter struct {
	path string
}

func NewArchiveWriter(path string) *ArchiveWriter {
	return &ArchiveWriter{path: path}
}

func (w *ArchiveWriter) Path() string {
	return w.path
}

func (w *ArchiveWriter) Write(ctx context.Context, products []models.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(NewArchiveSnapshot(products), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode archive: %w", err)
	}
	if err := writeFileAtomic(w.path, data); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	return nil
}
