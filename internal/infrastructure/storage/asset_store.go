// internal/infrastructure/storage/asset_store.go
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/printdock/labelsync/internal/application/port"
	"github.com/printdock/labelsync/internal/domain/entity"
)

// Public URL categories. Each maps 1:1 to a directory under the base dir
// and appears as the host segment of the app:// reference scheme.
const (
	CategoryImages   = "images"
	CategoryPDFs     = "pdfs"
	CategoryPreviews = "previews"
)

const previewSuffix = "_preview.png"

// LocalAssetStore implements port.AssetStore on the local filesystem.
// Layout under the base dir:
//
//	downloads/images/{name}.{ext}
//	downloads/pdfs/{name}.pdf
//	previews/{name}_preview.png
//
// The rendering layer addresses files through app://{category}/{filename}
// URLs, which DirFor maps back to the directories above.
type LocalAssetStore struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalAssetStore creates a new LocalAssetStore rooted at baseDir
func NewLocalAssetStore(baseDir string, logger *zap.Logger) *LocalAssetStore {
	return &LocalAssetStore{
		baseDir: baseDir,
		logger:  logger,
	}
}

// EnsureLayout creates the download and preview directories. Safe to call
// repeatedly; the store tolerates its directories being flushed between
// runs.
func (s *LocalAssetStore) EnsureLayout() error {
	for _, dir := range []string{
		s.imagesDir(),
		s.pdfsDir(),
		s.previewsDir(),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// AssetLocation maps (kind, base name, extension) to the local path and the
// app:// URL the file is served under.
func (s *LocalAssetStore) AssetLocation(kind entity.AssetKind, name, ext string) (string, string) {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	filename := name + ext

	switch kind {
	case entity.AssetKindPDF:
		return filepath.Join(s.pdfsDir(), filename), publicURL(CategoryPDFs, filename)
	default:
		return filepath.Join(s.imagesDir(), filename), publicURL(CategoryImages, filename)
	}
}

// PreviewLocation maps a base name to its preview path and URL
func (s *LocalAssetStore) PreviewLocation(name string) (string, string) {
	filename := name + previewSuffix
	return filepath.Join(s.previewsDir(), filename), publicURL(CategoryPreviews, filename)
}

// FileSize returns the size of the regular file at path, or -1 when the
// file is missing or not regular. The resolver's idempotent short-circuit
// and the preview regeneration check both key off this.
func (s *LocalAssetStore) FileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return -1
	}
	return info.Size()
}

// WriteFile writes content to path through a temp file in the same
// directory followed by a rename, so a failed write never leaves a
// truncated file at the final path.
func (s *LocalAssetStore) WriteFile(ctx context.Context, path string, content []byte) error {
	if err := s.validatePath(path); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		s.logger.Error("Failed to create parent directories",
			zap.String("path", dir),
			zap.Error(err))
		return fmt.Errorf("failed to create directories: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".labelsync-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set file mode: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		s.logger.Error("Failed to move file into place",
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("failed to move file into place: %w", err)
	}

	s.logger.Debug("File saved successfully",
		zap.String("path", path),
		zap.Int("size", len(content)))

	return nil
}

// WritePlaceholder writes an empty marker file at path. Placeholders mark
// assets whose every download attempt failed, so no reference ever points
// at a nonexistent file.
func (s *LocalAssetStore) WritePlaceholder(ctx context.Context, path string) error {
	return s.WriteFile(ctx, path, nil)
}

// DirFor resolves a public URL category back to the directory serving it
func (s *LocalAssetStore) DirFor(category string) (string, bool) {
	switch category {
	case CategoryImages:
		return s.imagesDir(), true
	case CategoryPDFs:
		return s.pdfsDir(), true
	case CategoryPreviews:
		return s.previewsDir(), true
	}
	return "", false
}

func (s *LocalAssetStore) imagesDir() string {
	return filepath.Join(s.baseDir, "downloads", "images")
}

func (s *LocalAssetStore) pdfsDir() string {
	return filepath.Join(s.baseDir, "downloads", "pdfs")
}

func (s *LocalAssetStore) previewsDir() string {
	return filepath.Join(s.baseDir, "previews")
}

// validatePath checks that the path is safe and within baseDir
func (s *LocalAssetStore) validatePath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return fmt.Errorf("path escapes base directory: %s", path)
	}

	return nil
}

func publicURL(category, filename string) string {
	return fmt.Sprintf("app://%s/%s", category, filename)
}

var _ port.AssetStore = (*LocalAssetStore)(nil)
