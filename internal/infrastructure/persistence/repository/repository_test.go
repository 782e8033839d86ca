package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/printdock/labelsync/internal/application/port"
	"github.com/printdock/labelsync/internal/domain/entity"
	"github.com/printdock/labelsync/pkg/database"
)

// newTestDB opens a throwaway database file and applies the real
// migrations, so these tests cover the schema as shipped.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrator := database.NewMigrator(db, zap.NewNop())
	require.NoError(t, migrator.RunMigrations(context.Background(), filepath.Join("..", "..", "..", "..", "migrations")))

	return db
}

func testProduct(id, name string) *entity.Product {
	return &entity.Product{
		ID:             id,
		Name:           name,
		SKU:            "SKU-" + id,
		Category:       "Widgets",
		ImageURL:       "https://example.com/" + id + ".png",
		LocalImagePath: "/data/downloads/images/" + id + ".png",
		ImagePublicURL: "app://images/" + id + ".png",
	}
}

func TestProductRepositoryCreateOrUpdate(t *testing.T) {
	db := newTestDB(t)
	repo := NewProductRepository(db, zap.NewNop())
	ctx := context.Background()

	product := testProduct("page-1", "Blue Widget")

	outcome, err := repo.CreateOrUpdate(ctx, product)
	require.NoError(t, err)
	assert.Equal(t, port.UpsertCreated, outcome)
	assert.False(t, product.CreatedAt.IsZero())

	// Identical data leaves the row alone.
	again := testProduct("page-1", "Blue Widget")
	outcome, err = repo.CreateOrUpdate(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, port.UpsertUnchanged, outcome)

	// A changed field updates in place and keeps created_at.
	renamed := testProduct("page-1", "Blue Widget Mk2")
	outcome, err = repo.CreateOrUpdate(ctx, renamed)
	require.NoError(t, err)
	assert.Equal(t, port.UpsertUpdated, outcome)
	assert.WithinDuration(t, product.CreatedAt, renamed.CreatedAt, time.Second)

	stored, err := repo.GetByID(ctx, "page-1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Blue Widget Mk2", stored.Name)
	assert.Equal(t, "SKU-page-1", stored.SKU)
}

func TestProductRepositoryGetByIDMissing(t *testing.T) {
	db := newTestDB(t)
	repo := NewProductRepository(db, zap.NewNop())

	product, err := repo.GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, product)
}

func TestProductRepositoryListAndCount(t *testing.T) {
	db := newTestDB(t)
	repo := NewProductRepository(db, zap.NewNop())
	ctx := context.Background()

	for _, name := range []string{"cherry", "Apple", "banana"} {
		_, err := repo.CreateOrUpdate(ctx, testProduct("page-"+name, name))
		require.NoError(t, err)
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	products, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "Apple", products[0].Name)
	assert.Equal(t, "banana", products[1].Name)
	assert.Equal(t, "cherry", products[2].Name)

	page, err := repo.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "cherry", page[0].Name)
}

func TestStickerRepositoryUpsert(t *testing.T) {
	db := newTestDB(t)
	products := NewProductRepository(db, zap.NewNop())
	repo := NewStickerRepository(db, zap.NewNop())
	ctx := context.Background()

	// Stickers reference products, so the parent row must exist.
	_, err := products.CreateOrUpdate(ctx, testProduct("page-1", "Blue Widget"))
	require.NoError(t, err)

	sticker := &entity.Sticker{
		ProductID:    "page-1",
		Name:         "Shelf Label",
		Size:         "100x50",
		PDFURL:       "https://example.com/shelf.pdf",
		LocalPDFPath: "/data/downloads/pdfs/shelf.pdf",
	}
	require.NoError(t, repo.Upsert(ctx, sticker))
	assert.NotZero(t, sticker.ID)
	firstID := sticker.ID

	// Same (product, name) updates the existing row.
	updated := &entity.Sticker{
		ProductID:   "page-1",
		Name:        "Shelf Label",
		Size:        "200x100",
		PreviewPath: "/data/previews/shelf_preview.png",
	}
	require.NoError(t, repo.Upsert(ctx, updated))
	assert.Equal(t, firstID, updated.ID)

	// A different name appends.
	other := &entity.Sticker{ProductID: "page-1", Name: "Box Label", IsDefault: true}
	require.NoError(t, repo.Upsert(ctx, other))
	assert.NotEqual(t, firstID, other.ID)

	stickers, err := repo.GetByProductID(ctx, "page-1")
	require.NoError(t, err)
	require.Len(t, stickers, 2)
	assert.Equal(t, "Shelf Label", stickers[0].Name)
	assert.Equal(t, "200x100", stickers[0].Size)
	assert.Equal(t, "/data/previews/shelf_preview.png", stickers[0].PreviewPath)
	assert.Equal(t, "Box Label", stickers[1].Name)
	assert.True(t, stickers[1].IsDefault)
}

func TestStickerRepositoryList(t *testing.T) {
	db := newTestDB(t)
	products := NewProductRepository(db, zap.NewNop())
	repo := NewStickerRepository(db, zap.NewNop())
	ctx := context.Background()

	_, err := products.CreateOrUpdate(ctx, testProduct("page-1", "Blue Widget"))
	require.NoError(t, err)
	_, err = products.CreateOrUpdate(ctx, testProduct("page-2", "Plain Box"))
	require.NoError(t, err)

	require.NoError(t, repo.Upsert(ctx, &entity.Sticker{ProductID: "page-1", Name: "A"}))
	require.NoError(t, repo.Upsert(ctx, &entity.Sticker{ProductID: "page-2", Name: "B"}))

	all, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	page, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}

func TestSyncRunRepositoryLifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewSyncRunRepository(db, zap.NewNop())
	ctx := context.Background()

	// Nothing recorded yet.
	latest, err := repo.GetLatest(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	lastSynced, err := repo.LastSyncedAt(ctx)
	require.NoError(t, err)
	assert.Nil(t, lastSynced)

	first := &entity.SyncRun{
		ID:        "run-1",
		State:     entity.SyncRunRunning,
		StartedAt: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(ctx, first))

	report := entity.SyncReport{Created: 2, Updated: 1, Skipped: 3, Errors: 1, Message: "Synced 7 records"}
	require.NoError(t, repo.Complete(ctx, "run-1", report))

	latest, err = repo.GetLatest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "run-1", latest.ID)
	assert.Equal(t, entity.SyncRunCompleted, latest.State)
	assert.Equal(t, 2, latest.Created)
	assert.Equal(t, 1, latest.Updated)
	assert.Equal(t, 3, latest.Skipped)
	assert.Equal(t, 1, latest.Errors)
	assert.Equal(t, "Synced 7 records", latest.Message)
	require.NotNil(t, latest.FinishedAt)

	lastSynced, err = repo.LastSyncedAt(ctx)
	require.NoError(t, err)
	require.NotNil(t, lastSynced)

	// A later failed run becomes the latest but does not move the
	// last-synced marker.
	second := &entity.SyncRun{
		ID:        "run-2",
		State:     entity.SyncRunRunning,
		StartedAt: time.Date(2025, 6, 1, 11, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.Fail(ctx, "run-2", "failed to fetch record listing"))

	latest, err = repo.GetLatest(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "run-2", latest.ID)
	assert.Equal(t, entity.SyncRunFailed, latest.State)
	assert.Contains(t, latest.Message, "failed to fetch")

	stillSynced, err := repo.LastSyncedAt(ctx)
	require.NoError(t, err)
	require.NotNil(t, stillSynced)
	assert.WithinDuration(t, *lastSynced, *stillSynced, time.Second)
}
