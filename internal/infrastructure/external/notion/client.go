// Package notion adapts the Notion API to the port.RecordSource interface.
// It owns pagination and transport; field extraction from the decoded
// records belongs to the sync layer.
package notion

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jomei/notionapi"
	"go.uber.org/zap"

	"github.com/printdock/labelsync/internal/application/port"
	"github.com/printdock/labelsync/internal/domain/entity"
)

// Notion caps query pages at 100 results.
const maxPageSize = 100

// Config holds Notion API configuration
type Config struct {
	Token      string
	DatabaseID string
	PageSize   int
	Timeout    time.Duration
}

// Client wraps the Notion API client for one product database
type Client struct {
	api      *notionapi.Client
	dbID     notionapi.DatabaseID
	pageSize int
	logger   *zap.Logger
}

// NewClient creates a new Notion client
func NewClient(cfg Config, logger *zap.Logger) *Client {
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	api := notionapi.NewClient(
		notionapi.Token(cfg.Token),
		notionapi.WithHTTPClient(&http.Client{Timeout: timeout}),
	)

	return &Client{
		api:      api,
		dbID:     notionapi.DatabaseID(cfg.DatabaseID),
		pageSize: pageSize,
		logger:   logger,
	}
}

// ListRecords fetches every row of the configured database, following the
// cursor to exhaustion. Any error here is fatal for the caller's sync pass;
// there is no partial listing.
func (c *Client) ListRecords(ctx context.Context) ([]entity.Record, error) {
	var records []entity.Record
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize:    c.pageSize,
			StartCursor: cursor,
		}

		resp, err := c.api.Database.Query(ctx, c.dbID, req)
		if err != nil {
			return nil, fmt.Errorf("failed to query database: %w", err)
		}

		for i := range resp.Results {
			records = append(records, decodePage(&resp.Results[i]))
		}

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	c.logger.Debug("Listed database records", zap.Int("count", len(records)))
	return records, nil
}

// GetRecord fetches a single page by ID. Used to resolve sticker relations
// into their own records.
func (c *Client) GetRecord(ctx context.Context, id string) (*entity.Record, error) {
	page, err := c.api.Page.Get(ctx, notionapi.PageID(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get page %s: %w", id, err)
	}

	record := decodePage(page)
	return &record, nil
}

// DatabaseTitle fetches the configured database's display title. Used by
// the connection probe.
func (c *Client) DatabaseTitle(ctx context.Context) (string, error) {
	db, err := c.api.Database.Get(ctx, c.dbID)
	if err != nil {
		return "", fmt.Errorf("failed to get database: %w", err)
	}
	return richTextPlain(db.Title), nil
}

var _ port.RecordSource = (*Client)(nil)
