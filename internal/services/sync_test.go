package services

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"storefront/internal/filestore"
	"storefront/pkg/models"

	"github.com/stretchr/testify/require"
)

type failingFile struct{}

func (failingFile) Update(context.Context, func([]filestore.Record) ([]filestore.Record, error)) error {
	return errors.New("disk full")
}

type failingArchive struct{}

func (failingArchive) Write(context.Context, []models.Product) error {
	return errors.New("archive offline")
}

type syncFixture struct {
	store   *mockStore
	file    *filestore.Store
	archive *filestore.ArchiveWriter
	bridge  *SyncBridge
}

func newSyncFixture(t *testing.T, bulk string, products ...models.Product) *syncFixture {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "products.json")
	if bulk != "" {
		require.NoError(t, os.WriteFile(path, []byte(bulk), 0o644))
	}

	f := &syncFixture{
		store:   newMockStore(products...),
		file:    filestore.NewStore(path, filepath.Join(dir, "backups")),
		archive: filestore.NewArchiveWriter(filepath.Join(dir, "archive.json")),
	}
	f.bridge = NewSyncBridge(f.store, f.file, f.archive, time.Second)
	return f
}

func (f *syncFixture) records(t *testing.T) []filestore.Record {
	t.Helper()
	records, err := f.file.Records(context.Background())
	require.NoError(t, err)
	return records
}

func (f *syncFixture) archived(t *testing.T) filestore.ArchiveSnapshot {
	t.Helper()
	data, err := os.ReadFile(f.archive.Path())
	require.NoError(t, err)
	var snapshot filestore.ArchiveSnapshot
	require.NoError(t, json.Unmarshal(data, &snapshot))
	return snapshot
}

func TestSyncProjectsChangeIntoBothTargets(t *testing.T) {
	vase := asConfirmed(withImage(newProduct(1, "Ваза", 500), "/img/1.jpg"))
	f := newSyncFixture(t, `{"products":[{"id":1,"title":"Ваза","price":450,"legacy":"keep"}],"version":2}`,
		vase, newProduct(2, "Bowl", 100))

	f.bridge.ProductChanged(context.Background(), vase)
	f.bridge.Wait()

	records := f.records(t)
	require.Len(t, records, 1)
	require.Equal(t, "500", string(records[0]["price"].(json.Number)))
	require.Equal(t, "keep", records[0]["legacy"])
	require.Equal(t, true, records[0]["isConfirmed"])

	raw, err := os.ReadFile(f.file.Path())
	require.NoError(t, err)
	require.Contains(t, string(raw), `"version": 2`)

	snapshot := f.archived(t)
	require.Len(t, snapshot.Products, 1)
	require.Equal(t, int64(1), snapshot.Products[0].ID)
	require.Equal(t, "/img/1.jpg", snapshot.Products[0].ImagePath)
}

func TestSyncRunsOnDetachedContext(t *testing.T) {
	p := newProduct(1, "Bowl", 100)
	f := newSyncFixture(t, "", p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.bridge.ProductChanged(ctx, p)
	f.bridge.Wait()

	records := f.records(t)
	require.Len(t, records, 1)
	require.Equal(t, "Bowl", records[0]["title"])
}

func TestSyncRemovesDeletedProducts(t *testing.T) {
	f := newSyncFixture(t, `[{"id":1,"title":"a","price":1},{"id":2,"title":"b","price":2}]`)

	f.bridge.ProductsDeleted(context.Background(), []models.Product{newProduct(2, "b", 2)})
	f.bridge.Wait()

	records := f.records(t)
	require.Len(t, records, 1)
	require.Equal(t, int64(1), records[0].ID())
	require.Empty(t, f.archived(t).Products)
}

func TestSyncFileFailureStillWritesArchive(t *testing.T) {
	vase := asConfirmed(withImage(newProduct(1, "Ваза", 500), "/img/1.jpg"))
	f := newSyncFixture(t, "", vase)
	bridge := NewSyncBridge(f.store, failingFile{}, f.archive, time.Second)

	result := bridge.Run(context.Background(), SyncJob{Changed: []models.Product{vase}})
	require.Error(t, result.FileErr)
	require.NoError(t, result.ArchiveErr)
	require.Equal(t, 1, result.Archived)
	require.Len(t, f.archived(t).Products, 1)
}

func TestSyncArchiveFailureStillWritesFile(t *testing.T) {
	p := newProduct(1, "Bowl", 100)
	f := newSyncFixture(t, "", p)
	bridge := NewSyncBridge(f.store, f.file, failingArchive{}, time.Second)

	result := bridge.Run(context.Background(), SyncJob{Changed: []models.Product{p}})
	require.NoError(t, result.FileErr)
	require.Error(t, result.ArchiveErr)
	require.Error(t, result.Err())
	require.Equal(t, 1, result.Upserted)
	require.Len(t, f.records(t), 1)
}

func TestSyncFailureDoesNotUndoMutation(t *testing.T) {
	store := newMockStore()
	bridge := NewSyncBridge(store, failingFile{}, failingArchive{}, time.Second)
	service := NewProductService(store, bridge, &fakeImages{})

	price := 10.0
	created, err := service.Create(context.Background(), &models.CreateProductRequest{Title: "Cup", Price: &price})
	require.NoError(t, err)
	bridge.Wait()

	_, ok := store.get(created.ID)
	require.True(t, ok)
}

func TestResyncProjectsConfirmedCatalog(t *testing.T) {
	f := newSyncFixture(t, `[{"id":5,"title":"Lamp","price":900}]`,
		asConfirmed(withImage(newProduct(1, "Ваза", 500), "/img/1.jpg")),
		asConfirmed(newProduct(2, "Bowl", 100)),
		newProduct(3, "Pending", 10),
	)

	result := f.bridge.Resync(context.Background())
	require.NoError(t, result.Err())
	require.Equal(t, 2, result.Upserted)
	require.Equal(t, 2, result.Archived)

	records := f.records(t)
	require.Len(t, records, 3)
	ids := []int64{records[0].ID(), records[1].ID(), records[2].ID()}
	require.ElementsMatch(t, []int64{5, 1, 2}, ids)
}

func TestCatalogChangedRebuildsArchiveOnly(t *testing.T) {
	f := newSyncFixture(t, "", asConfirmed(newProduct(1, "Bowl", 100)))

	f.bridge.CatalogChanged(context.Background())
	f.bridge.Wait()

	require.Len(t, f.archived(t).Products, 1)
	_, err := os.Stat(f.file.Path())
	require.True(t, os.IsNotExist(err))
}

func TestSyncAppliesJobsInSchedulingOrder(t *testing.T) {
	for i := 0; i < 50; i++ {
		p := asConfirmed(withImage(newProduct(1, "Ваза", 500), "/img/1.jpg"))
		f := newSyncFixture(t, "", p)

		f.bridge.ProductChanged(context.Background(), p)
		f.bridge.ProductsDeleted(context.Background(), []models.Product{p})
		f.bridge.Wait()

		require.Empty(t, f.records(t), "run %d", i)
	}
}

func TestSyncWaitCanBeReused(t *testing.T) {
	a := newProduct(1, "Cup", 10)
	b := newProduct(2, "Bowl", 20)
	f := newSyncFixture(t, "", a, b)

	f.bridge.ProductChanged(context.Background(), a)
	f.bridge.Wait()
	require.Len(t, f.records(t), 1)

	f.bridge.ProductChanged(context.Background(), b)
	f.bridge.ProductsDeleted(context.Background(), []models.Product{a})
	f.bridge.Wait()

	records := f.records(t)
	require.Len(t, records, 1)
	require.Equal(t, int64(2), records[0].ID())
}
