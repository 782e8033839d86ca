package export

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/printdock/labelsync/internal/application/port"
	"github.com/printdock/labelsync/internal/domain/entity"
)

const (
	productsSheet = "Products"
	stickersSheet = "Stickers"

	// Page size for walking the product table during export.
	exportPageSize = 200
)

var (
	productHeader = []interface{}{"Name", "SKU", "Category", "Image", "Stickers", "Last Synced"}
	stickerHeader = []interface{}{"Product", "Name", "Size", "PDF", "Preview"}
)

// CatalogExporter renders the synced catalog as an xlsx workbook with one
// sheet for products and one for their stickers.
type CatalogExporter struct {
	products port.ProductRepository
	stickers port.StickerRepository
	logger   *zap.Logger
}

// NewCatalogExporter creates a new CatalogExporter
func NewCatalogExporter(products port.ProductRepository, stickers port.StickerRepository, logger *zap.Logger) *CatalogExporter {
	return &CatalogExporter{
		products: products,
		stickers: stickers,
		logger:   logger,
	}
}

// Filename returns a timestamped download name for the workbook.
func (e *CatalogExporter) Filename() string {
	return fmt.Sprintf("catalog-%s.xlsx", time.Now().Format("20060102-150405"))
}

// WriteXLSX builds the workbook and streams it to w.
func (e *CatalogExporter) WriteXLSX(ctx context.Context, w io.Writer) error {
	file, err := e.BuildWorkbook(ctx)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := file.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// BuildWorkbook assembles the catalog workbook from the current database
// contents. The caller owns the returned file and must close it.
func (e *CatalogExporter) BuildWorkbook(ctx context.Context) (*excelize.File, error) {
	products, err := e.listAllProducts(ctx)
	if err != nil {
		return nil, err
	}

	file := excelize.NewFile()
	if err := file.SetSheetName("Sheet1", productsSheet); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to name products sheet: %w", err)
	}
	if _, err := file.NewSheet(stickersSheet); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create stickers sheet: %w", err)
	}

	e.styleSheets(file)
	e.setRow(file, productsSheet, 1, productHeader)
	e.setRow(file, stickersSheet, 1, stickerHeader)

	stickerRow := 2
	for i, product := range products {
		stickers, err := e.stickers.GetByProductID(ctx, product.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list stickers for product %s: %w", product.ID, err)
		}

		e.setRow(file, productsSheet, i+2, []interface{}{
			product.Name,
			product.SKU,
			product.Category,
			imageStatus(product),
			len(stickers),
			product.UpdatedAt.UTC().Format(time.RFC3339),
		})

		for _, sticker := range stickers {
			e.setRow(file, stickersSheet, stickerRow, []interface{}{
				product.Name,
				sticker.Name,
				sticker.Size,
				pdfStatus(sticker),
				previewStatus(sticker),
			})
			stickerRow++
		}
	}

	e.logger.Debug("Catalog workbook assembled",
		zap.Int("products", len(products)),
		zap.Int("stickers", stickerRow-2))

	return file, nil
}

// listAllProducts pages through the product table to exhaustion.
func (e *CatalogExporter) listAllProducts(ctx context.Context) ([]*entity.Product, error) {
	var all []*entity.Product
	for offset := 0; ; offset += exportPageSize {
		page, err := e.products.List(ctx, exportPageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list products: %w", err)
		}
		all = append(all, page...)
		if len(page) < exportPageSize {
			return all, nil
		}
	}
}

// setRow writes one row of values starting at column A.
func (e *CatalogExporter) setRow(file *excelize.File, sheet string, row int, values []interface{}) {
	for i, value := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			e.logger.Warn("Failed to compute cell name",
				zap.String("sheet", sheet),
				zap.Int("row", row),
				zap.Int("col", i+1),
				zap.Error(err))
			continue
		}
		if err := file.SetCellValue(sheet, cell, value); err != nil {
			e.logger.Warn("Failed to set cell value",
				zap.String("sheet", sheet),
				zap.String("cell", cell),
				zap.Error(err))
		}
	}
}

// styleSheets applies bold headers and readable column widths. Styling
// failures degrade to a plain workbook.
func (e *CatalogExporter) styleSheets(file *excelize.File) {
	style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		e.logger.Warn("Failed to create header style", zap.Error(err))
		return
	}
	if err := file.SetCellStyle(productsSheet, "A1", "F1", style); err != nil {
		e.logger.Warn("Failed to style products header", zap.Error(err))
	}
	if err := file.SetCellStyle(stickersSheet, "A1", "E1", style); err != nil {
		e.logger.Warn("Failed to style stickers header", zap.Error(err))
	}
	if err := file.SetColWidth(productsSheet, "A", "F", 24); err != nil {
		e.logger.Warn("Failed to size products columns", zap.Error(err))
	}
	if err := file.SetColWidth(stickersSheet, "A", "E", 24); err != nil {
		e.logger.Warn("Failed to size stickers columns", zap.Error(err))
	}
}

// imageStatus summarizes the product's image pipeline state for the sheet.
func imageStatus(product *entity.Product) string {
	switch {
	case product.ImageURL == "":
		return "none"
	case product.LocalImagePath != "":
		return "cached"
	default:
		return "missing"
	}
}

func pdfStatus(sticker *entity.Sticker) string {
	switch {
	case sticker.PDFURL == "":
		return "none"
	case sticker.LocalPDFPath != "":
		return "cached"
	default:
		return "missing"
	}
}

func previewStatus(sticker *entity.Sticker) string {
	if sticker.PreviewPath != "" {
		return "generated"
	}
	return "none"
}
