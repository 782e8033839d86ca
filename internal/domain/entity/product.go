package entity

import "time"

// Product represents one catalog row synced from the record source. ID is
// the source page ID, so repeated syncs address the same row.
type Product struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	SKU            string    `json:"sku,omitempty"`
	Category       string    `json:"category,omitempty"`
	ImageURL       string    `json:"image_url,omitempty"`
	LocalImagePath string    `json:"local_image_path,omitempty"`
	ImagePublicURL string    `json:"image_public_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasImage returns true when the source row referenced an image at all.
func (p *Product) HasImage() bool {
	return p.ImageURL != ""
}
