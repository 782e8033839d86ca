package gdrive

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/printdock/labelsync/internal/application/port"
	"github.com/printdock/labelsync/internal/domain/entity"
)

// GenericStrategy performs a single browser-like GET against the original
// URL. It is the only applicable transport for non-Drive sources and the
// last resort for Drive ones.
type GenericStrategy struct {
	logger *zap.Logger
	client HTTPClient
}

// NewGenericStrategy creates a generic HTTP download strategy
func NewGenericStrategy(logger *zap.Logger, timeout time.Duration) *GenericStrategy {
	return &GenericStrategy{
		logger: logger,
		client: newHTTPClient(timeout),
	}
}

// Name identifies the strategy in logs and failure reports
func (s *GenericStrategy) Name() string { return "generic-http" }

// Fetch downloads the source URL as-is
func (s *GenericStrategy) Fetch(ctx context.Context, src entity.AssetSource) ([]byte, error) {
	if src.URL == "" {
		return nil, errors.New("source URL is empty")
	}

	data, err := fetchURL(ctx, s.client, src.URL, nil)
	if err != nil {
		s.logger.Debug("Generic fetch failed",
			zap.String("url", src.URL),
			zap.Error(err))
		return nil, err
	}

	s.logger.Debug("Generic fetch succeeded",
		zap.String("url", src.URL),
		zap.Int("size", len(data)))
	return data, nil
}

var _ port.DownloadStrategy = (*GenericStrategy)(nil)
