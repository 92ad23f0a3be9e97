package catalog

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"campus-canteen-api/apperr"
	"campus-canteen-api/models"
	"campus-canteen-api/realtime"
	"campus-canteen-api/realtime/realtimetest"
	"campus-canteen-api/store"
	"campus-canteen-api/store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var admin = models.Principal{ID: 1, Role: models.RoleAdmin}

func ptr[T any](v T) *T { return &v }

func newTestService(t *testing.T) (*Service, *realtimetest.Recorder) {
	rec := &realtimetest.Recorder{}
	return &Service{
		Menu:      &store.MenuRepo{DB: storetest.OpenDB(t)},
		Publisher: rec,
		Log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, rec
}

func TestCreate_PublishesAfterCommit(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, admin, CreateItemInput{Name: "Samosa", Category: models.CategorySnacks, Price: ptr(15.0)})
	require.NoError(t, err)
	assert.True(t, item.Available)
	assert.Equal(t, models.DefaultStock, item.Stock)
	assert.Equal(t, []string{realtime.EventMenuItemAdded}, rec.Names())

	stored, err := svc.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Samosa", stored.Name)
}

func TestCreate_Validation(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, admin, CreateItemInput{Name: "Pizza", Category: "italian", Price: ptr(100.0)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Create(ctx, admin, CreateItemInput{Name: "Pizza", Category: models.CategoryVeg, Price: ptr(-1.0)})
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.Create(ctx, models.Principal{ID: 1, Role: models.RoleStudent}, CreateItemInput{Name: "Pizza", Category: models.CategoryVeg, Price: ptr(1.0)})
	assert.ErrorIs(t, err, apperr.ErrForbidden)
	assert.Empty(t, rec.Names(), "nothing published for rejected writes")
}

func TestUpdateDeleteAndClear(t *testing.T) {
	svc, rec := newTestService(t)
	ctx := context.Background()

	item, err := svc.Create(ctx, admin, CreateItemInput{Name: "Idly", Category: models.CategoryVeg, Price: ptr(25.0)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, CreateItemInput{Name: "Juice", Category: models.CategoryJuice, Price: ptr(30.0)})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, admin, item.ID, UpdateItemInput{Price: ptr(30.0), Available: ptr(false)})
	require.NoError(t, err)
	assert.Equal(t, 30.0, updated.Price)
	assert.False(t, updated.Available)

	listed, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, listed, 1, "unavailable items are hidden")

	_, err = svc.Update(ctx, admin, 9999, UpdateItemInput{Price: ptr(1.0)})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, admin, item.ID))
	n, err := svc.Clear(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.Equal(t, []string{
		realtime.EventMenuItemAdded,
		realtime.EventMenuItemAdded,
		realtime.EventMenuItemUpdated,
		realtime.EventMenuItemDeleted,
		realtime.EventMenuCleared,
	}, rec.Names())
}

func TestQuote(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, admin, CreateItemInput{Name: "Samosa", Category: models.CategorySnacks, Price: ptr(15.0)})
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, CreateItemInput{Name: "Idly", Category: models.CategoryVeg, Price: ptr(25.0)})
	require.NoError(t, err)

	q, err := svc.Quote(ctx, []QuoteLine{{Name: "Samosa", Quantity: 2}, {Name: "Idly", Quantity: 1}, {Name: "Dosa", Quantity: 3}})
	require.NoError(t, err)
	assert.Len(t, q.Items, 2)
	assert.Equal(t, 55.0, q.Subtotal)
	assert.Equal(t, 75.0, q.Total)
}

func TestList_UnknownCategory(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.List(context.Background(), "desserts")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
