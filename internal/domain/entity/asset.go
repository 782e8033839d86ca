package entity

// AssetKind distinguishes the two downloadable asset categories.
type AssetKind string

const (
	AssetKindImage AssetKind = "image"
	AssetKindPDF   AssetKind = "pdf"
)

// AssetReference points at a remote asset that should be mirrored locally.
// SuggestedName seeds the local filename and may be empty.
type AssetReference struct {
	SourceURL     string
	Kind          AssetKind
	SuggestedName string
}

// AssetSource is a planned download target. FileID is non-empty only when
// the source URL was recognized as a Google Drive link.
type AssetSource struct {
	URL    string
	FileID string
	Kind   AssetKind
}

// LocalAsset describes an asset mirrored into local storage. A zero
// SizeBytes means every download strategy failed and a placeholder file
// marks the attempt.
type LocalAsset struct {
	LocalPath string `json:"local_path"`
	PublicURL string `json:"public_url"`
	SizeBytes int64  `json:"size_bytes"`
}

// IsPlaceholder reports whether the asset is an empty placeholder file.
func (a LocalAsset) IsPlaceholder() bool {
	return a.SizeBytes == 0
}

// PreviewAsset describes a generated first-page preview image.
type PreviewAsset struct {
	LocalPath string `json:"local_path"`
	PublicURL string `json:"public_url"`
	Converter string `json:"converter,omitempty"`
}
