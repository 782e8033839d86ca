package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/printdock/labelsync/internal/application/port"
	"github.com/printdock/labelsync/internal/domain/entity"
)

// ErrNoCredential means no service account is configured. The chain treats
// this as a normal skip, not a transport fault.
var ErrNoCredential = errors.New("no Drive service account configured")

// APIStrategy downloads through the authenticated Drive API. It is the
// most reliable transport for arbitrary file types and sizes, but only
// applies when a service account with access to the file is configured.
type APIStrategy struct {
	logger      *zap.Logger
	credentials port.CredentialSource

	mu  sync.Mutex
	svc *drive.Service
}

// NewAPIStrategy creates an authenticated Drive API download strategy
func NewAPIStrategy(logger *zap.Logger, credentials port.CredentialSource) *APIStrategy {
	return &APIStrategy{
		logger:      logger,
		credentials: credentials,
	}
}

// Name identifies the strategy in logs and failure reports
func (s *APIStrategy) Name() string { return "drive-api" }

// Fetch downloads the file through the Drive media endpoint
func (s *APIStrategy) Fetch(ctx context.Context, src entity.AssetSource) ([]byte, error) {
	if src.FileID == "" {
		return nil, errNoFileID
	}

	svc, err := s.service(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := svc.Files.Get(src.FileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		s.logger.Debug("Drive API download failed",
			zap.String("file_id", src.FileID),
			zap.Error(err))
		return nil, fmt.Errorf("drive media download failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) == 0 {
		return nil, errors.New("empty response body")
	}
	if isHTMLPayload(body) {
		return nil, errHTMLPayload
	}

	s.logger.Debug("Drive API fetch succeeded",
		zap.String("file_id", src.FileID),
		zap.Int("size", len(body)))
	return body, nil
}

// service lazily builds the Drive client from the configured service
// account and caches it for the life of the process.
func (s *APIStrategy) service(ctx context.Context) (*drive.Service, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.svc != nil {
		return s.svc, nil
	}

	data, err := s.credentials.ServiceAccountJSON(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load service account: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoCredential
	}

	cfg, err := google.JWTConfigFromJSON(data, drive.DriveReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("invalid service account JSON: %w", err)
	}

	// The cached client outlives the request that triggered initialization
	client := cfg.Client(context.Background())
	svc, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to init drive service: %w", err)
	}

	s.logger.Info("Drive API client initialized")
	s.svc = svc
	return svc, nil
}

var _ port.DownloadStrategy = (*APIStrategy)(nil)
