package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/printdock/labelsync/internal/application/port"
	"github.com/printdock/labelsync/internal/application/sync"
	"github.com/printdock/labelsync/internal/domain/entity"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SyncService is the slice of the sync orchestrator the API exposes.
type SyncService interface {
	Trigger() (string, error)
	State() string
}

// Exporter produces the catalog workbook download.
type Exporter interface {
	Filename() string
	WriteXLSX(ctx context.Context, w io.Writer) error
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	syncService SyncService
	products    port.ProductRepository
	stickers    port.StickerRepository
	runs        port.SyncRunRepository
	store       port.AssetStore
	exporter    Exporter
	logger      *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	syncService SyncService,
	products port.ProductRepository,
	stickers port.StickerRepository,
	runs port.SyncRunRepository,
	store port.AssetStore,
	exporter Exporter,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		syncService: syncService,
		products:    products,
		stickers:    stickers,
		runs:        runs,
		store:       store,
		exporter:    exporter,
		logger:      logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
}

// TriggerSyncResponse reports the run started by POST /sync
type TriggerSyncResponse struct {
	RunID string `json:"run_id"`
	State string `json:"state"`
}

// SyncRunResponse represents a sync run in API responses
type SyncRunResponse struct {
	ID         string  `json:"id"`
	State      string  `json:"state"`
	Created    int     `json:"created"`
	Updated    int     `json:"updated"`
	Skipped    int     `json:"skipped"`
	Errors     int     `json:"errors"`
	Message    string  `json:"message,omitempty"`
	StartedAt  string  `json:"started_at"`
	FinishedAt *string `json:"finished_at,omitempty"`
}

// SyncStatusResponse represents the pipeline status in API responses
type SyncStatusResponse struct {
	State        string           `json:"state"`
	LastRun      *SyncRunResponse `json:"last_run,omitempty"`
	LastSyncedAt *string          `json:"last_synced_at,omitempty"`
}

// StickerResponse represents a sticker in API responses
type StickerResponse struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Size             string `json:"size,omitempty"`
	PDFURL           string `json:"pdf_url,omitempty"`
	PDFPublicURL     string `json:"pdf_public_url,omitempty"`
	PreviewPublicURL string `json:"preview_public_url,omitempty"`
	IsDefault        bool   `json:"is_default"`
}

// ProductResponse represents a product with its stickers in API responses
type ProductResponse struct {
	ID             string            `json:"id"`
	Name           string            `json:"name"`
	SKU            string            `json:"sku,omitempty"`
	Category       string            `json:"category,omitempty"`
	ImageURL       string            `json:"image_url,omitempty"`
	ImagePublicURL string            `json:"image_public_url,omitempty"`
	Stickers       []StickerResponse `json:"stickers"`
	UpdatedAt      string            `json:"updated_at"`
}

// ListProductsResponse wraps a product page with its total count
type ListProductsResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// ListProductsRequest represents query parameters for listing products
type ListProductsRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Service:   "labelsync",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// TriggerSync handles POST /api/v1/sync. The pass runs in the background;
// a pass already in flight answers 409.
func (h *Handlers) TriggerSync(c *gin.Context) {
	runID, err := h.syncService.Trigger()
	if err != nil {
		if errors.Is(err, sync.ErrSyncInProgress) {
			c.JSON(http.StatusConflict, Response{
				Success: false,
				Error:   "sync already in progress",
			})
			return
		}
		h.logger.Error("Failed to trigger sync", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to trigger sync",
		})
		return
	}

	c.JSON(http.StatusAccepted, Response{
		Success: true,
		Data: TriggerSyncResponse{
			RunID: runID,
			State: h.syncService.State(),
		},
	})
}

// SyncStatus handles GET /api/v1/sync/status
func (h *Handlers) SyncStatus(c *gin.Context) {
	status := SyncStatusResponse{State: h.syncService.State()}

	run, err := h.runs.GetLatest(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get latest sync run", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve sync status",
		})
		return
	}
	if run != nil {
		lastRun := toSyncRunResponse(run)
		status.LastRun = &lastRun
	}

	if lastSynced, err := h.runs.LastSyncedAt(c.Request.Context()); err != nil {
		h.logger.Warn("Failed to get last synced time", zap.Error(err))
	} else if lastSynced != nil {
		formatted := lastSynced.UTC().Format(time.RFC3339)
		status.LastSyncedAt = &formatted
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: status})
}

// ListProducts handles GET /api/v1/products
func (h *Handlers) ListProducts(c *gin.Context) {
	var req ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	products, err := h.products.List(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve products",
		})
		return
	}

	total, err := h.products.Count(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to count products", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve products",
		})
		return
	}

	responses := make([]ProductResponse, 0, len(products))
	for _, product := range products {
		stickers, err := h.stickers.GetByProductID(c.Request.Context(), product.ID)
		if err != nil {
			h.logger.Error("Failed to get stickers", zap.String("product_id", product.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, Response{
				Success: false,
				Error:   "failed to retrieve products",
			})
			return
		}
		responses = append(responses, toProductResponse(product, stickers))
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: ListProductsResponse{
			Products: responses,
			Total:    total,
			Limit:    req.Limit,
			Offset:   req.Offset,
		},
	})
}

// GetProduct handles GET /api/v1/products/:id
func (h *Handlers) GetProduct(c *gin.Context) {
	id := c.Param("id")

	product, err := h.products.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get product", zap.String("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve product",
		})
		return
	}
	if product == nil {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "product not found",
		})
		return
	}

	stickers, err := h.stickers.GetByProductID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("Failed to get stickers", zap.String("product_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve product",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    toProductResponse(product, stickers),
	})
}

// ServeAsset handles GET /assets/:kind/:filename, resolving app:// asset
// URLs for the rendering layer. Only the known asset directories are
// reachable and the filename must not escape them.
func (h *Handlers) ServeAsset(c *gin.Context) {
	kind := c.Param("kind")
	filename := c.Param("filename")

	dir, ok := h.store.DirFor(kind)
	if !ok {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "unknown asset kind",
		})
		return
	}

	if !validAssetFilename(filename) {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid asset filename",
		})
		return
	}

	path := filepath.Join(dir, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "asset not found",
		})
		return
	}

	c.File(path)
}

// ExportCatalog handles GET /api/v1/export
func (h *Handlers) ExportCatalog(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.exporter.WriteXLSX(c.Request.Context(), &buf); err != nil {
		h.logger.Error("Failed to build catalog export", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to build export",
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", h.exporter.Filename()))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// validAssetFilename rejects names that could address anything outside the
// asset directory.
func validAssetFilename(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	return filepath.Base(name) == name
}

func toSyncRunResponse(run *entity.SyncRun) SyncRunResponse {
	resp := SyncRunResponse{
		ID:        run.ID,
		State:     run.State,
		Created:   run.Created,
		Updated:   run.Updated,
		Skipped:   run.Skipped,
		Errors:    run.Errors,
		Message:   run.Message,
		StartedAt: run.StartedAt.UTC().Format(time.RFC3339),
	}
	if run.FinishedAt != nil {
		finished := run.FinishedAt.UTC().Format(time.RFC3339)
		resp.FinishedAt = &finished
	}
	return resp
}

// toProductResponse converts domain entities to the API response shape
func toProductResponse(product *entity.Product, stickers []*entity.Sticker) ProductResponse {
	resp := ProductResponse{
		ID:             product.ID,
		Name:           product.Name,
		SKU:            product.SKU,
		Category:       product.Category,
		ImageURL:       product.ImageURL,
		ImagePublicURL: product.ImagePublicURL,
		Stickers:       make([]StickerResponse, 0, len(stickers)),
		UpdatedAt:      product.UpdatedAt.UTC().Format(time.RFC3339),
	}
	for _, sticker := range stickers {
		resp.Stickers = append(resp.Stickers, StickerResponse{
			ID:               sticker.ID,
			Name:             sticker.Name,
			Size:             sticker.Size,
			PDFURL:           sticker.PDFURL,
			PDFPublicURL:     sticker.PDFPublicURL,
			PreviewPublicURL: sticker.PreviewPublicURL,
			IsDefault:        sticker.IsDefault,
		})
	}
	return resp
}
