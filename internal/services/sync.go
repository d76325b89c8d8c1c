package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"storefront/internal/filestore"
	"storefront/pkg/models"

	"github.com/rs/zerolog/log"
)

const defaultSyncTimeout = 30 * time.Second

// BulkFile is the writable side of the bulk product file.
type BulkFile interface {
	Update(ctx context.Context, fn func([]filestore.Record) ([]filestore.Record, error)) error
}

// ArchiveSink receives the confirmed catalog snapshot.
type ArchiveSink interface {
	Write(ctx context.Context, products []models.Product) error
}

// SyncJob describes what changed in the relational store.
type SyncJob struct {
	Changed []models.Product
	Deleted []models.Product
	// Full re-projects every confirmed product into the bulk file.
	Full bool
}

// SyncResult is observed for logging only. A failed projection never undoes
// the relational change that caused it.
type SyncResult struct {
	FileErr    error `json:"-"`
	ArchiveErr error `json:"-"`
	Upserted   int   `json:"upserted"`
	Removed    int   `json:"removed"`
	Archived   int   `json:"archived"`
}

// Err joins both projection failures.
func (r SyncResult) Err() error {
	return errors.Join(r.FileErr, r.ArchiveErr)
}

// SyncBridge projects relational changes into the bulk file and the archive.
type SyncBridge struct {
	store   ProductStore
	file    BulkFile
	archive ArchiveSink
	timeout time.Duration

	mu sync.Mutex
	wg sync.WaitGroup

	// queued jobs are drained in order by a single worker
	qmu      sync.Mutex
	queue    []queuedJob
	draining bool
}

type queuedJob struct {
	ctx context.Context
	job SyncJob
}

func NewSyncBridge(store ProductStore, file BulkFile, archive ArchiveSink, timeout time.Duration) *SyncBridge {
	if timeout <= 0 {
		timeout = defaultSyncTimeout
	}
	return &SyncBridge{
		store:   store,
		file:    file,
		archive: archive,
		timeout: timeout,
	}
}

// ProductChanged schedules a projection of one created or updated product.
func (b *SyncBridge) ProductChanged(ctx context.Context, product models.Product) {
	b.schedule(ctx, SyncJob{Changed: []models.Product{product}})
}

// ProductsChanged schedules a projection of several updated products.
func (b *SyncBridge) ProductsChanged(ctx context.Context, products []models.Product) {
	if len(products) == 0 {
		return
	}
	b.schedule(ctx, SyncJob{Changed: products})
}

// ProductsDeleted schedules removal of deleted products from the bulk file.
func (b *SyncBridge) ProductsDeleted(ctx context.Context, products []models.Product) {
	if len(products) == 0 {
		return
	}
	b.schedule(ctx, SyncJob{Deleted: products})
}

// CatalogChanged schedules an archive rebuild only.
func (b *SyncBridge) CatalogChanged(ctx context.Context) {
	b.schedule(ctx, SyncJob{})
}

func (b *SyncBridge) schedule(ctx context.Context, job SyncJob) {
	b.wg.Add(1)

	b.qmu.Lock()
	b.queue = append(b.queue, queuedJob{ctx: context.WithoutCancel(ctx), job: job})
	start := !b.draining
	b.draining = true
	b.qmu.Unlock()

	if start {
		go b.drain()
	}
}

// drain runs queued jobs in scheduling order until the queue is empty.
func (b *SyncBridge) drain() {
	for {
		b.qmu.Lock()
		if len(b.queue) == 0 {
			b.draining = false
			b.qmu.Unlock()
			return
		}
		next := b.queue[0]
		b.queue = b.queue[1:]
		b.qmu.Unlock()

		b.runQueued(next)
		b.wg.Done()
	}
}

func (b *SyncBridge) runQueued(q queuedJob) {
	ctx, cancel := context.WithTimeout(q.ctx, b.timeout)
	defer cancel()

	logSyncResult(b.Run(ctx, q.job))
}

// Wait blocks until every scheduled job has finished. Jobs scheduled while
// waiting are waited for too.
func (b *SyncBridge) Wait() {
	b.wg.Wait()
}

// Resync re-projects the whole confirmed catalog.
func (b *SyncBridge) Resync(ctx context.Context) SyncResult {
	result := b.Run(ctx, SyncJob{Full: true})
	logSyncResult(result)
	return result
}

// Run executes a job synchronously. Jobs never overlap.
func (b *SyncBridge) Run(ctx context.Context, job SyncJob) SyncResult {
	b.mu.Lock()
	defer b.mu.Unlock()

	var result SyncResult

	confirmed, err := b.store.FindConfirmed(ctx, models.ProductFilter{})
	if err != nil {
		result.ArchiveErr = err
		if job.Full {
			result.FileErr = err
			return result
		}
	}

	changed := job.Changed
	if job.Full {
		changed = confirmed
	}
	result.Upserted, result.Removed, result.FileErr = b.projectFile(ctx, changed, job.Deleted)

	if result.ArchiveErr == nil {
		if err := b.archive.Write(ctx, confirmed); err != nil {
			result.ArchiveErr = err
		} else {
			result.Archived = countConfirmed(confirmed)
		}
	}
	return result
}

// projectFile applies every change in one read-modify-write of the bulk file.
func (b *SyncBridge) projectFile(ctx context.Context, changed, deleted []models.Product) (int, int, error) {
	if len(changed) == 0 && len(deleted) == 0 {
		return 0, 0, nil
	}

	upserted, removed := 0, 0
	err := b.file.Update(ctx, func(records []filestore.Record) ([]filestore.Record, error) {
		for i := range changed {
			records, _ = filestore.Merge(records, filestore.RecordFromProduct(&changed[i]))
			upserted++
		}
		for i := range deleted {
			var ok bool
			if records, ok = filestore.Drop(records, filestore.RecordFromProduct(&deleted[i])); ok {
				removed++
			}
		}
		return records, nil
	})
	if err != nil {
		return 0, 0, err
	}
	return upserted, removed, nil
}

func countConfirmed(products []models.Product) int {
	n := 0
	for i := range products {
		if products[i].IsConfirmed {
			n++
		}
	}
	return n
}

func logSyncResult(result SyncResult) {
	if result.FileErr != nil {
		log.Error().Err(result.FileErr).Msg("Bulk file projection failed")
	}
	if result.ArchiveErr != nil {
		log.Error().Err(result.ArchiveErr).Msg("Archive projection failed")
	}
	if result.FileErr == nil && result.ArchiveErr == nil {
		log.Debug().
			Int("upserted", result.Upserted).
			Int("removed", result.Removed).
			Int("archived", result.Archived).
			Msg("Product projections updated")
	}
}
