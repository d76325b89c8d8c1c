package services

import (
	"context"
	"testing"

	"storefront/pkg/models"

	"github.com/stretchr/testify/require"
)

func newProductService(store *mockStore) (*ProductService, *recordingProjector, *fakeImages) {
	projector := &recordingProjector{}
	images := &fakeImages{}
	return NewProductService(store, projector, images), projector, images
}

func floatPtr(f float64) *float64 { return &f }

func TestCreateStoresPendingProduct(t *testing.T) {
	store := newMockStore()
	service, projector, _ := newProductService(store)

	created, err := service.Create(context.Background(), &models.CreateProductRequest{
		Title:    "  Ваза  ",
		Price:    floatPtr(499.9),
		Category: " ",
		Images:   []string{"/img/vase.jpg"},
		Barcode:  "4600001",
		Quantity: 3,
		Reserved: 1,
	})
	require.NoError(t, err)
	require.False(t, created.IsConfirmed)
	require.Equal(t, "Ваза", created.Title)
	require.Nil(t, created.Category)
	require.Equal(t, "/img/vase.jpg", *created.Image)
	require.Equal(t, []int64{created.ID}, projector.changed)

	stored, ok := store.get(created.ID)
	require.True(t, ok)
	require.Equal(t, "499.9", stored.Price.String())
}

func TestCreateRejectsInvalidStock(t *testing.T) {
	service, projector, _ := newProductService(newMockStore())

	_, err := service.Create(context.Background(), &models.CreateProductRequest{
		Title:    "Ваза",
		Price:    floatPtr(10),
		Quantity: 1,
		Reserved: 2,
	})
	require.ErrorIs(t, err, models.ErrValidation)
	require.Empty(t, projector.changed)
}

func TestUpdateAppliesProvidedFieldsOnly(t *testing.T) {
	existing := withImage(newProduct(1, "Ваза", 500), "/img/1.jpg")
	existing.Comment = str("fragile")
	existing.Category = str("vases")
	store := newMockStore(existing)
	service, projector, _ := newProductService(store)

	empty := ""
	title := "Ваза синяя"
	updated, err := service.Update(context.Background(), 1, &models.UpdateProductRequest{
		Title:   &title,
		Comment: &empty,
	})
	require.NoError(t, err)
	require.Equal(t, "Ваза синяя", updated.Title)
	require.Nil(t, updated.Comment)
	require.Equal(t, "vases", *updated.Category)
	require.Equal(t, "/img/1.jpg", *updated.Image)
	require.Equal(t, []int64{1}, projector.changed)
}

func TestUpdateClearingGalleryRemovesImage(t *testing.T) {
	store := newMockStore(withImage(newProduct(1, "Ваза", 500), "/img/1.jpg"))
	service, _, _ := newProductService(store)

	none := []string{}
	updated, err := service.Update(context.Background(), 1, &models.UpdateProductRequest{Images: &none})
	require.NoError(t, err)
	require.False(t, updated.HasImage())
}

func TestUpdateUnknownProduct(t *testing.T) {
	service, _, _ := newProductService(newMockStore())
	_, err := service.Update(context.Background(), 42, &models.UpdateProductRequest{})
	require.ErrorIs(t, err, models.ErrProductNotFound)
}

func TestBulkConfirmReportsPartialSuccess(t *testing.T) {
	store := newMockStore(withImage(newProduct(1, "a", 10), "/img/a.jpg"), withImage(newProduct(2, "b", 20), "/img/b.jpg"))
	service, projector, _ := newProductService(store)

	result := service.BulkConfirm(context.Background(), []int64{1, 99, 2, 1})

	require.Equal(t, []int64{1, 2}, result.Succeeded)
	require.Equal(t, []models.BulkItemError{{ID: 99, Code: models.CodeNotFound, Error: models.ErrProductNotFound.Error()}}, result.Failed)
	require.Empty(t, result.Skipped)
	require.ElementsMatch(t, []int64{1, 2}, projector.changed)

	p, _ := store.get(2)
	require.True(t, p.IsConfirmed)

	result = service.BulkUnconfirm(context.Background(), []int64{2})
	require.Equal(t, []int64{2}, result.Succeeded)
	p, _ = store.get(2)
	require.False(t, p.IsConfirmed)
}

func TestBulkConfirmRequiresPhoto(t *testing.T) {
	store := newMockStore(
		newProduct(1, "no photo", 10),
		withImage(newProduct(2, "photo", 20), "/img/2.jpg"),
		asConfirmed(newProduct(3, "approved without photo", 30)),
	)
	service, projector, _ := newProductService(store)

	result := service.BulkConfirm(context.Background(), []int64{1, 2, 3})

	require.Equal(t, []int64{2, 3}, result.Succeeded)
	require.Equal(t, []models.BulkItemError{{ID: 1, Code: models.CodeNoImage, Error: models.ErrNoImage.Error()}}, result.Failed)
	require.ElementsMatch(t, []int64{2, 3}, projector.changed)

	p, _ := store.get(1)
	require.False(t, p.IsConfirmed)
}

func TestBulkOperationsReportStoreFailurePerItem(t *testing.T) {
	store := newMockStore(newProduct(1, "a", 10))
	store.down = true
	service, _, _ := newProductService(store)

	result := service.BulkDelete(context.Background(), []int64{1, 2})
	require.Empty(t, result.Succeeded)
	require.Len(t, result.Failed, 2)
	require.Equal(t, models.CodeError, result.Failed[0].Code)

	result = service.BulkConfirm(context.Background(), []int64{1})
	require.Empty(t, result.Succeeded)
	require.Equal(t, models.CodeError, result.Failed[0].Code)
}

func TestBulkDeleteReleasesOnlyUnsharedImages(t *testing.T) {
	store := newMockStore(
		withImage(newProduct(1, "a", 10), "/img/shared.jpg"),
		withImage(newProduct(2, "b", 20), "/img/shared.jpg"),
		withImage(newProduct(3, "c", 30), "/img/own.jpg"),
	)
	service, projector, images := newProductService(store)

	result := service.BulkDelete(context.Background(), []int64{1, 3, 404})

	require.Equal(t, []int64{1, 3}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	require.Equal(t, int64(404), result.Failed[0].ID)
	require.Equal(t, []string{"/img/own.jpg"}, images.deleted)
	require.Equal(t, []int64{1, 3}, projector.deleted)

	_, ok := store.get(2)
	require.True(t, ok)
}

func TestDeleteReleasesImageOnceLastReferenceIsGone(t *testing.T) {
	store := newMockStore(
		withImage(newProduct(1, "a", 10), "/img/shared.jpg"),
		withImage(newProduct(2, "b", 20), "/img/shared.jpg"),
	)
	service, _, images := newProductService(store)
	ctx := context.Background()

	_, err := service.Delete(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, images.deleted)

	_, err = service.Delete(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"/img/shared.jpg"}, images.deleted)

	_, err = service.Delete(ctx, 2)
	require.ErrorIs(t, err, models.ErrProductNotFound)
}

func TestDeleteSucceedsWhenImageStorageFails(t *testing.T) {
	store := newMockStore(withImage(newProduct(1, "a", 10), "/img/a.jpg"))
	service, projector, images := newProductService(store)
	images.fail = true

	_, err := service.Delete(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, []int64{1}, projector.deleted)
}

func TestMoveCategoryIgnoresConfirmationState(t *testing.T) {
	store := newMockStore(newProduct(1, "a", 10), asConfirmed(newProduct(2, "b", 20)))
	service, _, _ := newProductService(store)

	result, err := service.MoveCategory(context.Background(), []int64{1, 2}, " candlesticks ")
	require.NoError(t, err)
	require.Equal(t, []int64{1, 2}, result.Succeeded)

	for _, id := range []int64{1, 2} {
		p, _ := store.get(id)
		require.Equal(t, "candlesticks", *p.Category)
	}

	_, err = service.MoveCategory(context.Background(), []int64{1}, "  ")
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestMoveAndConfirmSkipsDuplicates(t *testing.T) {
	store := newMockStore(
		asConfirmed(withImage(newProduct(1, "Ваза", 500), "/img/1.jpg")),
		withImage(newProduct(7, "ваза", 500), "/img/7.jpg"),
		withImage(newProduct(8, "Bowl", 300), "/img/8.jpg"),
		newProduct(9, "Cup", 50),
		withImage(newProduct(10, "Plate", 70), "/img/10.jpg"),
		withImage(newProduct(11, "plate", 70), "/img/11.jpg"),
	)
	service, projector, _ := newProductService(store)

	result, err := service.MoveAndConfirm(context.Background(), []int64{11, 7, 8, 9, 10, 404}, "vases")
	require.NoError(t, err)

	require.Equal(t, []int64{8, 10}, result.Succeeded)
	require.Equal(t, []models.SkippedItem{
		{ID: 7, Reason: models.CodeDuplicate, DuplicateOf: 1},
		{ID: 9, Reason: models.CodeNoImage},
		{ID: 11, Reason: models.CodeDuplicate, DuplicateOf: 10},
	}, result.Skipped)
	require.Len(t, result.Failed, 1)
	require.Equal(t, int64(404), result.Failed[0].ID)
	require.Equal(t, models.CodeNotFound, result.Failed[0].Code)

	skipped, _ := store.get(7)
	require.False(t, skipped.IsConfirmed)
	require.Nil(t, skipped.Category)

	moved, _ := store.get(8)
	require.True(t, moved.IsConfirmed)
	require.Equal(t, "vases", *moved.Category)

	require.Equal(t, []int64{8, 10}, projector.changed)
}

func TestMoveAndConfirmReportsUpdateFailure(t *testing.T) {
	store := newMockStore(withImage(newProduct(1, "a", 10), "/img/a.jpg"), withImage(newProduct(2, "b", 20), "/img/b.jpg"))
	store.failUpdates[1] = true
	service, _, _ := newProductService(store)

	result, err := service.MoveAndConfirm(context.Background(), []int64{1, 2}, "vases")
	require.NoError(t, err)
	require.Equal(t, []int64{2}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	require.Equal(t, models.CodeError, result.Failed[0].Code)
}

func TestDeleteDuplicatesKeepsConfirmedThenLowestID(t *testing.T) {
	store := newMockStore(
		withImage(newProduct(1, "Ваза", 500), "/img/1.jpg"),
		asConfirmed(withImage(newProduct(2, "ваза", 500), "/img/2.jpg")),
		withBarcode(newProduct(3, "Cup", 50), "B"),
		withBarcode(newProduct(4, "Mug", 60), "B"),
		newProduct(5, "Unique", 10),
	)
	service, projector, images := newProductService(store)

	result, err := service.DeleteDuplicates(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, result.Groups)
	require.Equal(t, []int64{2, 3}, result.Kept)
	require.Equal(t, []int64{1, 4}, result.Deleted)
	require.Equal(t, []int64{1, 4}, projector.deleted)
	require.Equal(t, []string{"/img/1.jpg"}, images.deleted)

	remaining, err := store.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, remaining, 3)
}

func TestDeleteDuplicatesWithoutDuplicates(t *testing.T) {
	service, projector, _ := newProductService(newMockStore(newProduct(1, "a", 1), newProduct(2, "b", 2)))

	result, err := service.DeleteDuplicates(context.Background())
	require.NoError(t, err)
	require.Zero(t, result.Groups)
	require.Empty(t, result.Deleted)
	require.Empty(t, projector.deleted)
}
