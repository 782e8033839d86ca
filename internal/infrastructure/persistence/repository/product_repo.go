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

// ProductRepository implements port.ProductRepository on SQLite
type ProductRepository struct {
	db     *database.DB
	logger *zap.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *database.DB, logger *zap.Logger) port.ProductRepository {
	return &ProductRepository{
		db:     db,
		logger: logger,
	}
}

const productColumns = `id, name, sku, category, image_url, local_image_path, image_public_url, created_at, updated_at`

// CreateOrUpdate inserts the product or updates the row with the same ID.
// A row whose synced fields already match is left alone and reported
// unchanged, which keeps updated_at meaningful as a change marker.
func (r *ProductRepository) CreateOrUpdate(ctx context.Context, product *entity.Product) (port.UpsertOutcome, error) {
	existing, err := r.GetByID(ctx, product.ID)
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()

	if existing == nil {
		query := `
			INSERT INTO products (` + productColumns + `)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := r.db.Executor(ctx).ExecContext(ctx, query,
			product.ID,
			product.Name,
			product.SKU,
			product.Category,
			product.ImageURL,
			product.LocalImagePath,
			product.ImagePublicURL,
			now,
			now,
		)
		if err != nil {
			r.logger.Error("Failed to create product", zap.String("id", product.ID), zap.Error(err))
			return "", fmt.Errorf("failed to create product: %w", err)
		}
		product.CreatedAt = now
		product.UpdatedAt = now
		return port.UpsertCreated, nil
	}

	if productUnchanged(existing, product) {
		product.CreatedAt = existing.CreatedAt
		product.UpdatedAt = existing.UpdatedAt
		return port.UpsertUnchanged, nil
	}

	query := `
		UPDATE products
		SET name = ?, sku = ?, category = ?, image_url = ?,
			local_image_path = ?, image_public_url = ?, updated_at = ?
		WHERE id = ?
	`
	_, err = r.db.Executor(ctx).ExecContext(ctx, query,
		product.Name,
		product.SKU,
		product.Category,
		product.ImageURL,
		product.LocalImagePath,
		product.ImagePublicURL,
		now,
		product.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update product", zap.String("id", product.ID), zap.Error(err))
		return "", fmt.Errorf("failed to update product: %w", err)
	}
	product.CreatedAt = existing.CreatedAt
	product.UpdatedAt = now
	return port.UpsertUpdated, nil
}

// GetByID retrieves a product by its source page ID. Missing rows return
// nil without an error.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?`

	product, err := scanProduct(r.db.Executor(ctx).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get product", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return product, nil
}

// List returns products ordered by name.
func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]*entity.Product, error) {
	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY name COLLATE NOCASE ASC, id ASC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list products", zap.Error(err))
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []*entity.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, product)
	}
	return products, rows.Err()
}

// Count returns the number of product rows.
func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.Executor(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row rowScanner) (*entity.Product, error) {
	var product entity.Product
	err := row.Scan(
		&product.ID,
		&product.Name,
		&product.SKU,
		&product.Category,
		&product.ImageURL,
		&product.LocalImagePath,
		&product.ImagePublicURL,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// productUnchanged compares the fields the sync pass owns.
func productUnchanged(a, b *entity.Product) bool {
	return a.Name == b.Name &&
		a.SKU == b.SKU &&
		a.Category == b.Category &&
		a.ImageURL == b.ImageURL &&
		a.LocalImagePath == b.LocalImagePath &&
		a.ImagePublicURL == b.ImagePublicURL
}

// Verify interface compliance
var _ port.ProductRepository = (*ProductRepository)(nil)
