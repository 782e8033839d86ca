package port

import (
	"context"

	"github.com/printdock/labelsync/internal/domain/entity"
)

// DownloadStrategy is one way of turning an asset source into bytes.
// Strategies are tried in order until one returns a usable payload.
type DownloadStrategy interface {
	// Name identifies the strategy in logs and failure reports
	Name() string

	// Fetch downloads the asset. An error means the next strategy in the
	// chain should be tried.
	Fetch(ctx context.Context, src entity.AssetSource) ([]byte, error)
}

// StrategyChain plans the ordered strategy list for one asset reference.
type StrategyChain interface {
	Plan(ref entity.AssetReference) (entity.AssetSource, []DownloadStrategy)
}

// AssetResolver mirrors remote assets into local storage.
type AssetResolver interface {
	// Resolve ensures a local file exists for ref and returns it in every
	// case. When all download strategies fail the file is an empty
	// placeholder and the returned error lists each failed attempt.
	Resolve(ctx context.Context, ref entity.AssetReference) (entity.LocalAsset, error)
}

// PreviewGenerator renders first-page PNG previews for stored PDFs.
type PreviewGenerator interface {
	// GeneratePreview renders a preview for the PDF at pdfPath under the
	// given base name. A nil asset with nil error means the source PDF is
	// missing or empty and no preview applies.
	GeneratePreview(ctx context.Context, pdfPath, name string) (*entity.PreviewAsset, error)
}
