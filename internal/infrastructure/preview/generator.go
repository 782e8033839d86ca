package preview

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/printdock/labelsync/internal/application/port"
	"github.com/printdock/labelsync/internal/domain/entity"
	"github.com/printdock/labelsync/pkg/utils"
)

// Generator implements port.PreviewGenerator over an ordered converter
// chain with a guaranteed placeholder fallback.
type Generator struct {
	store      port.AssetStore
	converters []Converter
	logger     *zap.Logger
}

// NewGenerator creates a Generator with the default converter chain
func NewGenerator(store port.AssetStore, logger *zap.Logger) *Generator {
	return &Generator{
		store: store,
		converters: []Converter{
			&FitzConverter{DPI: 150},
			&PopplerConverter{},
			&GhostscriptConverter{},
		},
		logger: logger,
	}
}

// NewGeneratorWithConverters creates a Generator with a custom chain
func NewGeneratorWithConverters(store port.AssetStore, converters []Converter, logger *zap.Logger) *Generator {
	return &Generator{
		store:      store,
		converters: converters,
		logger:     logger,
	}
}

// GeneratePreview renders a first-page preview for the PDF at pdfPath
// under the given base name.
//
// Existing non-empty previews are returned as-is. Converters run in order,
// each judged by whether the output file exists with non-zero size. When
// all of them fail the placeholder card is written instead, so a valid PDF
// always ends up with a usable preview file. Only a missing or empty
// source PDF yields (nil, nil).
func (g *Generator) GeneratePreview(ctx context.Context, pdfPath, name string) (*entity.PreviewAsset, error) {
	if g.store.FileSize(pdfPath) <= 0 {
		g.logger.Warn("No preview possible, source PDF missing or empty",
			zap.String("pdf", pdfPath))
		return nil, nil
	}

	previewPath, publicURL := g.store.PreviewLocation(utils.SanitizeFileName(name))

	if size := g.store.FileSize(previewPath); size > 0 {
		g.logger.Debug("Preview already exists",
			zap.String("path", previewPath),
			zap.Int64("size", size))
		return &entity.PreviewAsset{
			LocalPath: previewPath,
			PublicURL: publicURL,
		}, nil
	}

	for _, conv := range g.converters {
		if err := conv.Convert(ctx, pdfPath, previewPath); err != nil {
			g.logger.Warn("Preview converter failed",
				zap.String("converter", conv.Name()),
				zap.String("pdf", pdfPath),
				zap.Error(err))
			continue
		}

		if size := g.store.FileSize(previewPath); size > 0 {
			g.logger.Info("Preview generated",
				zap.String("converter", conv.Name()),
				zap.String("path", previewPath),
				zap.Int64("size", size))
			return &entity.PreviewAsset{
				LocalPath: previewPath,
				PublicURL: publicURL,
				Converter: conv.Name(),
			}, nil
		}

		g.logger.Warn("Preview converter produced no output",
			zap.String("converter", conv.Name()),
			zap.String("pdf", pdfPath))
	}

	// Every converter failed: fall back to the placeholder card so the
	// PDF still has a preview path the rendering layer can load.
	data, err := renderPlaceholderPNG()
	if err != nil {
		return nil, fmt.Errorf("failed to render placeholder: %w", err)
	}
	if err := g.store.WriteFile(ctx, previewPath, data); err != nil {
		return nil, fmt.Errorf("failed to write placeholder preview: %w", err)
	}

	g.logger.Warn("All preview converters failed, wrote placeholder",
		zap.String("pdf", pdfPath),
		zap.String("path", previewPath))

	return &entity.PreviewAsset{
		LocalPath: previewPath,
		PublicURL: publicURL,
		Converter: "placeholder",
	}, nil
}

var _ port.PreviewGenerator = (*Generator)(nil)
