// Package resolver materializes remote asset references as local files.
// It owns the idempotent short-circuit, the ordered strategy fallback and
// the placeholder-on-total-failure policy; the transport details live in
// the strategy implementations.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/printdock/labelsync/internal/application/port"
	"github.com/printdock/labelsync/internal/domain/entity"
	"github.com/printdock/labelsync/pkg/utils"
)

// Attempt records one failed download strategy.
type Attempt struct {
	Strategy string
	Reason   string
}

// ResolutionError reports that every applicable strategy failed for a
// reference. A placeholder file exists at the asset's path when this error
// is returned, so the caller still holds a usable (if empty) local asset.
type ResolutionError struct {
	Reference entity.AssetReference
	Attempts  []Attempt
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("all %d download strategies failed for %q",
		len(e.Attempts), e.Reference.SourceURL)
}

// Image extensions trusted from a source URL; anything else falls back to
// .png, which is what the Drive thumbnail endpoints serve anyway.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// Resolver implements port.AssetResolver over a strategy chain and the
// local asset store.
type Resolver struct {
	chain  port.StrategyChain
	store  port.AssetStore
	logger *zap.Logger
}

// New creates a new Resolver
func New(chain port.StrategyChain, store port.AssetStore, logger *zap.Logger) *Resolver {
	return &Resolver{
		chain:  chain,
		store:  store,
		logger: logger,
	}
}

// Resolve ensures a local file exists for ref and returns its record.
//
// Existing non-empty files short-circuit with zero network calls. Otherwise
// the planned strategies run in order until one produces bytes; those bytes
// are written through the store exactly as fetched. When every strategy
// fails a zero-length placeholder is written and a *ResolutionError is
// returned alongside the placeholder's asset record, so callers can tally
// the failure without losing the path.
func (r *Resolver) Resolve(ctx context.Context, ref entity.AssetReference) (entity.LocalAsset, error) {
	name := utils.SanitizeFileName(ref.SuggestedName)
	localPath, publicURL := r.store.AssetLocation(ref.Kind, name, extensionFor(ref))

	if size := r.store.FileSize(localPath); size > 0 {
		r.logger.Debug("Asset already downloaded",
			zap.String("path", localPath),
			zap.Int64("size", size))
		return entity.LocalAsset{
			LocalPath: localPath,
			PublicURL: publicURL,
			SizeBytes: size,
		}, nil
	}

	src, strategies := r.chain.Plan(ref)

	var attempts []Attempt
	for _, strategy := range strategies {
		data, err := strategy.Fetch(ctx, src)
		if err != nil {
			attempts = append(attempts, Attempt{
				Strategy: strategy.Name(),
				Reason:   err.Error(),
			})
			r.logger.Warn("Download strategy failed",
				zap.String("strategy", strategy.Name()),
				zap.String("url", ref.SourceURL),
				zap.Error(err))
			continue
		}
		if len(data) == 0 {
			attempts = append(attempts, Attempt{
				Strategy: strategy.Name(),
				Reason:   "empty payload",
			})
			continue
		}

		if err := r.store.WriteFile(ctx, localPath, data); err != nil {
			return entity.LocalAsset{}, fmt.Errorf("failed to store asset %s: %w", name, err)
		}

		r.logger.Info("Asset downloaded",
			zap.String("strategy", strategy.Name()),
			zap.String("path", localPath),
			zap.Int("size", len(data)))

		return entity.LocalAsset{
			LocalPath: localPath,
			PublicURL: publicURL,
			SizeBytes: int64(len(data)),
		}, nil
	}

	// Total failure: leave a placeholder so nothing downstream dangles and
	// return the typed error for the caller's tally.
	if err := r.store.WritePlaceholder(ctx, localPath); err != nil {
		return entity.LocalAsset{}, fmt.Errorf("failed to write placeholder for %s: %w", name, err)
	}

	r.logger.Error("All download strategies failed",
		zap.String("url", ref.SourceURL),
		zap.String("kind", string(ref.Kind)),
		zap.Int("attempts", len(attempts)))

	return entity.LocalAsset{
			LocalPath: localPath,
			PublicURL: publicURL,
			SizeBytes: 0,
		}, &ResolutionError{
			Reference: ref,
			Attempts:  attempts,
		}
}

// IsResolutionError reports whether err is a total resolution failure.
func IsResolutionError(err error) bool {
	var re *ResolutionError
	return errors.As(err, &re)
}

// extensionFor picks the local file extension. PDFs are always .pdf;
// images keep a recognized extension from the source URL and default to
// .png otherwise.
func extensionFor(ref entity.AssetReference) string {
	if ref.Kind == entity.AssetKindPDF {
		return ".pdf"
	}

	if u, err := url.Parse(ref.SourceURL); err == nil {
		ext := strings.ToLower(path.Ext(u.Path))
		if imageExtensions[ext] {
			return ext
		}
	}
	return ".png"
}
