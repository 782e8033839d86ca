package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/printdock/labelsync/internal/application/port"
	"github.com/printdock/labelsync/internal/domain/entity"
	"github.com/printdock/labelsync/pkg/database"
)

// StickerRepository implements port.StickerRepository on SQLite
type StickerRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewStickerRepository creates a new sticker repository
func NewStickerRepository(db *database.DB, logger *zap.Logger) port.StickerRepository {
	return &StickerRepository{
		db:     db,
		logger: logger,
	}
}

const stickerColumns = `id, product_id, name, size, pdf_url, local_pdf_path, pdf_public_url, preview_path, preview_public_url, is_default, created_at, updated_at`

// Upsert inserts or updates the sticker keyed by (product_id, name), so a
// re-synced sticker replaces its previous row instead of accumulating.
func (r *StickerRepository) Upsert(ctx context.Context, sticker *entity.Sticker) error {
	var (
		existingID int64
		createdAt  time.Time
	)
	err := r.db.Executor(ctx).QueryRowContext(ctx,
		`SELECT id, created_at FROM stickers WHERE product_id = ? AND name = ?`,
		sticker.ProductID, sticker.Name,
	).Scan(&existingID, &createdAt)

	now := time.Now().UTC()

	if err == sql.ErrNoRows {
		query := `
			INSERT INTO stickers (
				product_id, name, size, pdf_url, local_pdf_path, pdf_public_url,
				preview_path, preview_public_url, is_default, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		result, err := r.db.Executor(ctx).ExecContext(ctx, query,
			sticker.ProductID,
			sticker.Name,
			sticker.Size,
			sticker.PDFURL,
			sticker.LocalPDFPath,
			sticker.PDFPublicURL,
			sticker.PreviewPath,
			sticker.PreviewPublicURL,
			sticker.IsDefault,
			now,
			now,
		)
		if err != nil {
			r.logger.Error("Failed to create sticker",
				zap.String("product_id", sticker.ProductID),
				zap.String("name", sticker.Name),
				zap.Error(err))
			return fmt.Errorf("failed to create sticker: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		sticker.ID = id
		sticker.CreatedAt = now
		sticker.UpdatedAt = now
		return nil
	}
	if err != nil {
		r.logger.Error("Failed to look up sticker",
			zap.String("product_id", sticker.ProductID),
			zap.String("name", sticker.Name),
			zap.Error(err))
		return fmt.Errorf("failed to look up sticker: %w", err)
	}

	query := `
		UPDATE stickers
		SET size = ?, pdf_url = ?, local_pdf_path = ?, pdf_public_url = ?,
			preview_path = ?, preview_public_url = ?, is_default = ?, updated_at = ?
		WHERE id = ?
	`
	_, err = r.db.Executor(ctx).ExecContext(ctx, query,
		sticker.Size,
		sticker.PDFURL,
		sticker.LocalPDFPath,
		sticker.PDFPublicURL,
		sticker.PreviewPath,
		sticker.PreviewPublicURL,
		sticker.IsDefault,
		now,
		existingID,
	)
	if err != nil {
		r.logger.Error("Failed to update sticker", zap.Int64("id", existingID), zap.Error(err))
		return fmt.Errorf("failed to update sticker: %w", err)
	}
	sticker.ID = existingID
	sticker.CreatedAt = createdAt
	sticker.UpdatedAt = now
	return nil
}

// GetByProductID returns the product's stickers in insertion order.
func (r *StickerRepository) GetByProductID(ctx context.Context, productID string) ([]*entity.Sticker, error) {
	query := `SELECT ` + stickerColumns + ` FROM stickers WHERE product_id = ? ORDER BY id ASC`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, productID)
	if err != nil {
		r.logger.Error("Failed to get stickers", zap.String("product_id", productID), zap.Error(err))
		return nil, fmt.Errorf("failed to get stickers: %w", err)
	}
	defer rows.Close()

	return collectStickerRows(rows)
}

// List returns stickers across all products.
func (r *StickerRepository) List(ctx context.Context, limit, offset int) ([]*entity.Sticker, error) {
	query := `SELECT ` + stickerColumns + ` FROM stickers ORDER BY product_id ASC, id ASC LIMIT ? OFFSET ?`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list stickers", zap.Error(err))
		return nil, fmt.Errorf("failed to list stickers: %w", err)
	}
	defer rows.Close()

	return collectStickerRows(rows)
}

func collectStickerRows(rows *sql.Rows) ([]*entity.Sticker, error) {
	var stickers []*entity.Sticker
	for rows.Next() {
		var sticker entity.Sticker
		err := rows.Scan(
			&sticker.ID,
			&sticker.ProductID,
			&sticker.Name,
			&sticker.Size,
			&sticker.PDFURL,
			&sticker.LocalPDFPath,
			&sticker.PDFPublicURL,
			&sticker.PreviewPath,
			&sticker.PreviewPublicURL,
			&sticker.IsDefault,
			&sticker.CreatedAt,
			&sticker.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sticker: %w", err)
		}
		stickers = append(stickers, &sticker)
	}
	return stickers, rows.Err()
}

// Verify interface compliance
var _ port.StickerRepository = (*StickerRepository)(nil)
