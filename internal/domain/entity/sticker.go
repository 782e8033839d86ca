package entity

import "time"

// Sticker represents a printable label variant belonging to a product.
// Stickers are keyed by (product_id, name) so re-syncs update in place.
type Sticker struct {
	ID               int64     `json:"id"`
	ProductID        string    `json:"product_id"`
	Name             string    `json:"name"`
	Size             string    `json:"size,omitempty"`
	PDFURL           string    `json:"pdf_url,omitempty"`
	LocalPDFPath     string    `json:"local_pdf_path,omitempty"`
	PDFPublicURL     string    `json:"pdf_public_url,omitempty"`
	PreviewPath      string    `json:"preview_path,omitempty"`
	PreviewPublicURL string    `json:"preview_public_url,omitempty"`
	IsDefault        bool      `json:"is_default"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// StickerInput is sticker data extracted from a source record before any
// download or persistence has happened. A product with no sticker data at
// all still yields one default input named after the product.
type StickerInput struct {
	Name      string
	Size      string
	PDFURL    string
	IsDefault bool
}
