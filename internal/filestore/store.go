// Package filestore reads and writes the bulk product file exchanged with the
// external system of record, and the archive snapshot derived from the catalog.
package filestore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"storefront/internal/catalog"
	"storefront/pkg/models"

	"github.com/rs/zerolog/log"
)

// ErrParse is returned when the bulk file exists but cannot be decoded.
var ErrParse = errors.New("bulk file parse error")

const backupLayout = "20060102-150405.000"

// UpsertResult tells the caller which entry was written.
type UpsertResult struct {
	ID      int64 `json:"id"`
	Created bool  `json:"created"`
}

// Store is the bulk product file. Every read-modify-write runs under mu so two
// concurrent mutations within the process cannot lose an update.
type Store struct {
	path      string
	backupDir string
	mu        sync.Mutex
	now       func() time.Time
}

func NewStore(path, backupDir string) *Store {
	return &Store{
		path:      path,
		backupDir: backupDir,
		now:       time.Now,
	}
}

// Path returns the bulk file location.
func (s *Store) Path() string {
	return s.path
}

// document keeps the top-level shape so a save writes back what was read.
type document struct {
	wrapped bool
	extra   map[string]json.RawMessage
	records []Record
}

// Load returns the normalized products of the bulk file. A missing file is an
// empty set. Entries that cannot be normalized are skipped and logged.
func (s *Store) Load(ctx context.Context) ([]models.Product, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}

	products := make([]models.Product, 0, len(records))
	for i, rec := range records {
		p, err := catalog.NormalizeRecord(rec, i)
		if err != nil {
			log.Warn().Err(err).Str("path", s.path).Int("position", i).Msg("Skipping malformed bulk file entry")
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// Records returns the raw entries, unknown keys included.
func (s *Store) Records(ctx context.Context) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return doc.records, nil
}

// Upsert merges rec into the entry it matches, or appends it with the next id.
func (s *Store) Upsert(ctx context.Context, rec Record) (UpsertResult, error) {
	var result UpsertResult
	err := s.Update(ctx, func(records []Record) ([]Record, error) {
		records, result = Merge(records, rec)
		return records, nil
	})
	return result, err
}

// Merge applies one upsert to records in memory. Keys present in rec overwrite,
// keys absent from rec are kept.
func Merge(records []Record, rec Record) ([]Record, UpsertResult) {
	if i := matchIndex(records, rec); i >= 0 {
		merged := records[i]
		if merged == nil {
			merged = Record{}
		}
		for key, value := range rec {
			merged[key] = value
		}
		if merged.ID() <= 0 {
			merged["id"] = int64(i + 1)
		}
		records[i] = merged
		return records, UpsertResult{ID: merged.ID()}
	}

	created := make(Record, len(rec)+1)
	for key, value := range rec {
		created[key] = value
	}
	if created.ID() <= 0 {
		created["id"] = nextID(records)
	}
	return append(records, created), UpsertResult{ID: created.ID(), Created: true}
}

// Remove deletes the entry matching rec. Nothing matching is not an error.
func (s *Store) Remove(ctx context.Context, rec Record) (bool, error) {
	removed := false
	err := s.Update(ctx, func(records []Record) ([]Record, error) {
		records, removed = Drop(records, rec)
		return records, nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// Drop removes the entry rec matches from records in memory.
func Drop(records []Record, rec Record) ([]Record, bool) {
	i := matchIndex(records, rec)
	if i < 0 {
		return records, false
	}
	return append(records[:i], records[i+1:]...), true
}

// Update runs fn over the current entries and saves its result. Nothing is
// written when reading fails or fn returns an error.
func (s *Store) Update(ctx context.Context, fn func([]Record) ([]Record, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read(ctx)
	if err != nil {
		return err
	}

	records, err := fn(doc.records)
	if err != nil {
		return err
	}
	doc.records = records
	return s.save(ctx, doc)
}

// Save writes records as a bare array, or into the existing wrapper object.
func (s *Store) Save(ctx context.Context, records []Record) error {
	return s.Update(ctx, func([]Record) ([]Record, error) {
		return records, nil
	})
}

func (s *Store) read(ctx context.Context) (*document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &document{records: []Record{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read bulk file: %w", err)
	}
	return decodeDocument(data)
}

func decodeDocument(data []byte) (*document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return &document{records: []Record{}}, nil
	}

	switch trimmed[0] {
	case '[':
		records, err := decodeRecords(trimmed)
		if err != nil {
			return nil, err
		}
		return &document{records: records}, nil
	case '{':
		var extra map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &extra); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		raw, ok := extra["products"]
		if !ok {
			return nil, fmt.Errorf("%w: object has no products array", ErrParse)
		}
		delete(extra, "products")
		records, err := decodeRecords(raw)
		if err != nil {
			return nil, err
		}
		return &document{wrapped: true, extra: extra, records: records}, nil
	}
	return nil, fmt.Errorf("%w: unexpected top-level value", ErrParse)
}

func decodeRecords(data []byte) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after products array", ErrParse)
	}

	records := make([]Record, 0, len(raw))
	for i, item := range raw {
		var rec Record
		itemDec := json.NewDecoder(bytes.NewReader(item))
		itemDec.UseNumber()
		if err := itemDec.Decode(&rec); err != nil {
			return nil, fmt.Errorf("%w: entry %d is not an object: %v", ErrParse, i, err)
		}
		if rec == nil {
			rec = Record{}
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Store) save(ctx context.Context, doc *document) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var payload any = doc.records
	if doc.wrapped {
		out := make(map[string]any, len(doc.extra)+1)
		for key, value := range doc.extra {
			out[key] = value
		}
		out["products"] = doc.records
		payload = out
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode bulk file: %w", err)
	}

	s.backup()

	if err := writeFileAtomic(s.path, data); err != nil {
		return fmt.Errorf("failed to write bulk file: %w", err)
	}
	return nil
}

// backup copies the current file aside. Failures are logged only.
func (s *Store) backup() {
	if s.backupDir == "" {
		return
	}

	current, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("path", s.path).Msg("Failed to read bulk file for backup")
		return
	}

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", s.backupDir).Msg("Failed to create backup directory")
		return
	}

	base := strings.TrimSuffix(filepath.Base(s.path), filepath.Ext(s.path))
	stamp := s.now().Format(backupLayout)
	target, err := writeNewFile(s.backupDir, base+"-"+stamp, current)
	if err != nil {
		log.Warn().Err(err).Str("dir", s.backupDir).Msg("Failed to write bulk file backup")
		return
	}

	log.Debug().Str("path", target).Msg("Bulk file backed up")
}

// writeNewFile writes data to <dir>/<name>.json, or <name>-N.json when that
// name is taken. Existing backups are never overwritten.
func writeNewFile(dir, name string, data []byte) (string, error) {
	for n := 0; ; n++ {
		target := filepath.Join(dir, name+".json")
		if n > 0 {
			target = filepath.Join(dir, fmt.Sprintf("%s-%d.json", name, n))
		}

		f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", err
		}
		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", err
		}
		return target, f.Close()
	}
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
