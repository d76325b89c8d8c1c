package services

import (
	"context"
	"testing"

	"storefront/pkg/models"

	"github.com/stretchr/testify/require"
)

func newModerationService(store *mockStore) (*ModerationService, *recordingProjector, *fakeImages) {
	products, projector, images := newProductService(store)
	return NewModerationService(store, products, projector), projector, images
}

func TestApproveRequiresPhoto(t *testing.T) {
	store := newMockStore(newProduct(1, "Ваза", 500))
	service, projector, _ := newModerationService(store)

	_, err := service.Approve(context.Background(), 1)
	require.ErrorIs(t, err, models.ErrNoImage)

	p, _ := store.get(1)
	require.False(t, p.IsConfirmed)
	require.Empty(t, projector.changed)
}

func TestApproveWithoutPhotoSkipsPhotoCheck(t *testing.T) {
	store := newMockStore(newProduct(1, "Ваза", 500))
	service, projector, _ := newModerationService(store)

	approved, err := service.ApproveWithoutPhoto(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, approved.IsConfirmed)
	require.Equal(t, []int64{1}, projector.changed)

	p, _ := store.get(1)
	require.True(t, p.IsConfirmed)
	require.False(t, p.Visible())
}

func TestApproveConfirmsPendingProductWithPhoto(t *testing.T) {
	store := newMockStore(withImage(newProduct(1, "Ваза", 500), "/img/1.jpg"))
	service, _, _ := newModerationService(store)

	approved, err := service.Approve(context.Background(), 1)
	require.NoError(t, err)
	require.True(t, approved.Visible())

	_, err = service.Approve(context.Background(), 1)
	require.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestApproveUnknownProduct(t *testing.T) {
	service, _, _ := newModerationService(newMockStore())
	_, err := service.Approve(context.Background(), 7)
	require.ErrorIs(t, err, models.ErrProductNotFound)
}

func TestCategorizeOnlyPendingProducts(t *testing.T) {
	store := newMockStore(newProduct(1, "Ваза", 500), asConfirmed(newProduct(2, "Bowl", 100)))
	service, _, _ := newModerationService(store)
	ctx := context.Background()

	categorized, err := service.Categorize(ctx, 1, " vases ", "")
	require.NoError(t, err)
	require.Equal(t, "vases", *categorized.Category)
	require.Nil(t, categorized.Subcategory)
	require.False(t, categorized.IsConfirmed)
	require.Equal(t, models.StatePendingCategorized, models.StateOf(categorized))

	_, err = service.Categorize(ctx, 2, "bowls", "")
	require.ErrorIs(t, err, models.ErrInvalidTransition)

	_, err = service.Categorize(ctx, 1, "  ", "")
	require.ErrorIs(t, err, models.ErrValidation)
}

func TestRejectDeletesAndReleasesImages(t *testing.T) {
	store := newMockStore(withImage(newProduct(1, "Ваза", 500), "/img/1.jpg"))
	service, projector, images := newModerationService(store)

	require.NoError(t, service.Reject(context.Background(), 1))

	_, ok := store.get(1)
	require.False(t, ok)
	require.Equal(t, []string{"/img/1.jpg"}, images.deleted)
	require.Equal(t, []int64{1}, projector.deleted)
}

func TestRejectConfirmedProductIsNotAllowed(t *testing.T) {
	store := newMockStore(asConfirmed(newProduct(1, "Ваза", 500)))
	service, _, _ := newModerationService(store)

	err := service.Reject(context.Background(), 1)
	require.ErrorIs(t, err, models.ErrInvalidTransition)

	_, ok := store.get(1)
	require.True(t, ok)
}

func TestSendBackReturnsConfirmedToQueue(t *testing.T) {
	confirmed := asConfirmed(withImage(newProduct(1, "Ваза", 500), "/img/1.jpg"))
	confirmed.Category = str("vases")
	store := newMockStore(confirmed, newProduct(2, "Bowl", 100))
	service, _, _ := newModerationService(store)
	ctx := context.Background()

	pending, err := service.SendBack(ctx, 1)
	require.NoError(t, err)
	require.False(t, pending.IsConfirmed)
	require.Equal(t, "vases", *pending.Category)

	_, err = service.SendBack(ctx, 2)
	require.ErrorIs(t, err, models.ErrInvalidTransition)
}

func TestBulkApproveReportsEachID(t *testing.T) {
	store := newMockStore(
		withImage(newProduct(1, "Ваза", 500), "/img/1.jpg"),
		newProduct(2, "Bowl", 100),
		asConfirmed(withImage(newProduct(3, "Cup", 50), "/img/3.jpg")),
	)
	service, _, _ := newModerationService(store)

	result, err := service.BulkApprove(context.Background(), []int64{1, 2, 3, 99, 1})
	require.NoError(t, err)
	require.Equal(t, []int64{1}, result.Succeeded)
	require.Len(t, result.Failed, 3)
	require.Equal(t, int64(2), result.Failed[0].ID)
	require.Equal(t, models.CodeNoImage, result.Failed[0].Code)
	require.Equal(t, models.CodeInvalidState, result.Failed[1].Code)
	require.Equal(t, models.CodeNotFound, result.Failed[2].Code)

	p, _ := store.get(2)
	require.False(t, p.IsConfirmed)
}

func TestBulkRejectDeletesPendingOnly(t *testing.T) {
	store := newMockStore(newProduct(1, "a", 1), asConfirmed(newProduct(2, "b", 2)), newProduct(3, "c", 3))
	service, projector, _ := newModerationService(store)

	result, err := service.BulkReject(context.Background(), []int64{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, []int64{1, 3}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	require.Equal(t, models.CodeInvalidState, result.Failed[0].Code)
	require.Equal(t, []int64{1, 3}, projector.deleted)
}

func TestApproveAllLeavesPhotolessProductsPending(t *testing.T) {
	store := newMockStore(
		withImage(newProduct(1, "a", 1), "/img/1.jpg"),
		newProduct(2, "b", 2),
		asConfirmed(withImage(newProduct(3, "c", 3), "/img/3.jpg")),
		withImage(newProduct(4, "d", 4), "/img/4.jpg"),
	)
	service, _, _ := newModerationService(store)

	result, err := service.ApproveAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int64{1, 4}, result.Succeeded)
	require.Len(t, result.Failed, 1)
	require.Equal(t, models.BulkItemError{ID: 2, Code: models.CodeNoImage, Error: models.ErrNoImage.Error()}, result.Failed[0])
}

func TestQueueFlagsDuplicatesOfConfirmedProducts(t *testing.T) {
	store := newMockStore(
		asConfirmed(withImage(newProduct(1, "Ваза", 500), "/img/1.jpg")),
		withImage(newProduct(7, "ваза ", 500), "/img/7.jpg"),
		newProduct(8, "Bowl", 100),
	)
	service, _, _ := newModerationService(store)

	page, err := service.Queue(context.Background(), models.ProductFilter{})
	require.NoError(t, err)
	require.Equal(t, int64(2), page.Total)
	require.Len(t, page.Data, 2)

	byID := make(map[int64]models.ModerationItem)
	for _, item := range page.Data {
		byID[item.ID] = item
	}

	dup := byID[7]
	require.NotNil(t, dup.DuplicateOf)
	require.Equal(t, int64(1), *dup.DuplicateOf)
	require.Equal(t, DuplicateByTitlePrice, dup.DuplicateBy)
	require.True(t, dup.HasPhoto)
	require.Equal(t, models.StatePendingUncategorized, dup.State)

	require.Nil(t, byID[8].DuplicateOf)
	require.False(t, byID[8].HasPhoto)
}
