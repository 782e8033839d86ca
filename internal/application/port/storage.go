package port

import (
	"context"

	"github.com/printdock/labelsync/internal/domain/entity"
)

// AssetStore defines the local asset layout: where downloads and previews
// live on disk and the public URLs they are served under.
type AssetStore interface {
	// EnsureLayout creates the download and preview directories
	EnsureLayout() error

	// AssetLocation maps (kind, base name, extension) to an absolute local
	// path and the public URL the file will be served under
	AssetLocation(kind entity.AssetKind, name, ext string) (path string, publicURL string)

	// PreviewLocation maps a sticker base name to its preview path and URL
	PreviewLocation(name string) (path string, publicURL string)

	// FileSize returns the size of the file at path, or -1 if it does not
	// exist or is not a regular file
	FileSize(path string) int64

	// WriteFile writes content to path, replacing any existing file only
	// once the full payload is on disk
	WriteFile(ctx context.Context, path string, content []byte) error

	// WritePlaceholder writes an empty marker file at path
	WritePlaceholder(ctx context.Context, path string) error

	// DirFor resolves a public URL category (images, pdfs, previews) back
	// to the directory that backs it
	DirFor(category string) (string, bool)
}
