package gdrive

import (
	"time"

	"go.uber.org/zap"

	"github.com/printdock/labelsync/internal/application/port"
	"github.com/printdock/labelsync/internal/domain/entity"
)

// Chain plans the ordered download strategies for one asset reference.
// Images lead with the thumbnail endpoints, which are fast and never trip
// the scan interstitial. PDFs lead with the authenticated API, the only
// transport that handles large or flagged files cleanly. Non-Drive URLs
// get the generic fetch alone.
type Chain struct {
	thumbnail *ThumbnailStrategy
	direct    *DirectLinkStrategy
	cookie    *CookieBypassStrategy
	api       *APIStrategy
	generic   *GenericStrategy
}

// NewChain wires all five strategies with a shared request timeout
func NewChain(logger *zap.Logger, credentials port.CredentialSource, timeout time.Duration) *Chain {
	return &Chain{
		thumbnail: NewThumbnailStrategy(logger, timeout),
		direct:    NewDirectLinkStrategy(logger, timeout),
		cookie:    NewCookieBypassStrategy(logger, timeout),
		api:       NewAPIStrategy(logger, credentials),
		generic:   NewGenericStrategy(logger, timeout),
	}
}

// Plan extracts the Drive file ID (if any) and returns the ordered
// strategy list for ref
func (c *Chain) Plan(ref entity.AssetReference) (entity.AssetSource, []port.DownloadStrategy) {
	src := entity.AssetSource{
		URL:    ref.SourceURL,
		FileID: ExtractFileID(ref.SourceURL),
		Kind:   ref.Kind,
	}

	if src.FileID == "" {
		return src, []port.DownloadStrategy{c.generic}
	}

	if ref.Kind == entity.AssetKindImage {
		return src, []port.DownloadStrategy{c.thumbnail, c.direct, c.cookie, c.api, c.generic}
	}
	return src, []port.DownloadStrategy{c.api, c.direct, c.cookie, c.generic}
}

var _ port.StrategyChain = (*Chain)(nil)
