package port

import (
	"context"
	"time"

	"github.com/printdock/labelsync/internal/domain/entity"
)

// UpsertOutcome reports what CreateOrUpdate actually did to the row.
type UpsertOutcome string

const (
	UpsertCreated   UpsertOutcome = "created"
	UpsertUpdated   UpsertOutcome = "updated"
	UpsertUnchanged UpsertOutcome = "unchanged"
)

// ProductRepository defines persistence operations for Product
type ProductRepository interface {
	// CreateOrUpdate inserts the product or updates the existing row with
	// the same ID, reporting which of the two happened. A row whose stored
	// fields already match is reported unchanged.
	CreateOrUpdate(ctx context.Context, product *entity.Product) (UpsertOutcome, error)
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Product, error)
	Count(ctx context.Context) (int, error)
}

// StickerRepository defines persistence operations for Sticker
type StickerRepository interface {
	// Upsert inserts or updates the sticker keyed by (product_id, name)
	Upsert(ctx context.Context, sticker *entity.Sticker) error
	GetByProductID(ctx context.Context, productID string) ([]*entity.Sticker, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Sticker, error)
}

// SyncRunRepository defines persistence operations for SyncRun
type SyncRunRepository interface {
	Create(ctx context.Context, run *entity.SyncRun) error
	Complete(ctx context.Context, id string, report entity.SyncReport) error
	Fail(ctx context.Context, id string, message string) error
	GetLatest(ctx context.Context) (*entity.SyncRun, error)
	LastSyncedAt(ctx context.Context) (*time.Time, error)
}
