package sync

import (
	"regexp"
	"sort"
	"strings"

	"github.com/printdock/labelsync/internal/domain/entity"
	"github.com/printdock/labelsync/pkg/utils"
)

// Source schemas vary between workspaces, so every field lookup walks a
// prioritized list of plausible property names before giving up.
var (
	titleFields    = []string{"Name", "Title", "Product", "Product Name"}
	skuFields      = []string{"SKU", "Sku", "Code", "Product Code", "Item Code"}
	categoryFields = []string{"Category", "Type", "Product Type"}
	imageFields    = []string{"Image Link", "Image URL", "Image", "Photo", "Picture"}

	stickerRelationFields = []string{"Stickers", "Sticker", "Labels"}
	stickerNameFields     = []string{"Name", "Title", "Sticker Name"}
	stickerSizeFields     = []string{"Size", "Dimensions", "Format"}
	stickerPDFFields      = []string{"PDF", "PDF Link", "PDF URL", "File", "Label File"}
)

// Flat sticker declarations live in property names shaped like
// "Sticker: Shelf Label (100x50)".
var stickerFieldPattern = regexp.MustCompile(`^Sticker:\s*(.+?)\s*\((.+?)\)\s*$`)

// productFields is the flattened product data pulled out of one record.
type productFields struct {
	Name     string
	SKU      string
	Category string
	ImageURL string
}

// extractProductFields pulls the product-level fields out of a record
func extractProductFields(record entity.Record) productFields {
	return productFields{
		Name:     extractTitle(record, titleFields),
		SKU:      firstPlainText(record, skuFields),
		Category: firstPlainText(record, categoryFields),
		ImageURL: firstAssetURL(record, imageFields),
	}
}

// extractTitle finds the record's display name: a title property under one
// of the preferred names first, then any title property at all. Notion
// allows exactly one title property per database, so the fallback scan is
// unambiguous.
func extractTitle(record entity.Record, names []string) string {
	for _, name := range names {
		if p, ok := record.Property(name); ok && p.Kind == entity.PropertyKindTitle && p.Text != "" {
			return p.Text
		}
	}
	for _, p := range record.Properties {
		if p.Kind == entity.PropertyKindTitle && p.Text != "" {
			return p.Text
		}
	}
	return ""
}

// firstPlainText returns the first non-empty text-like value under the
// given property names.
func firstPlainText(record entity.Record, names []string) string {
	for _, name := range names {
		p, ok := record.Property(name)
		if !ok {
			continue
		}
		if text := p.PlainText(); text != "" {
			return text
		}
	}
	return ""
}

// firstAssetURL returns the first usable URL under the given property
// names. URL and rich-text values must parse as http(s) URLs; files
// properties contribute their first entry as-is, since Notion-hosted
// files come back as presigned URLs.
func firstAssetURL(record entity.Record, names []string) string {
	for _, name := range names {
		p, ok := record.Property(name)
		if !ok {
			continue
		}
		if url := assetURLFrom(p); url != "" {
			return url
		}
	}
	return ""
}

// assetURLFrom extracts a download URL from one property value
func assetURLFrom(p entity.PropertyValue) string {
	switch p.Kind {
	case entity.PropertyKindURL, entity.PropertyKindRichText:
		if utils.IsHTTPURL(p.Text) {
			return p.Text
		}
	case entity.PropertyKindFiles:
		if len(p.Files) > 0 {
			return p.Files[0].URL
		}
	}
	return ""
}

// relationIDs returns the sticker relation page IDs, if the record carries
// a sticker relation property at all.
func relationIDs(record entity.Record) []string {
	for _, name := range stickerRelationFields {
		p, ok := record.Property(name)
		if !ok || p.Kind != entity.PropertyKindRelation {
			continue
		}
		if len(p.Relation) > 0 {
			return p.Relation
		}
	}
	return nil
}

// flatStickers decodes "Sticker: {name} ({size})" flat fields. Property
// names are sorted so extraction order does not depend on map iteration.
func flatStickers(record entity.Record) []entity.StickerInput {
	names := make([]string, 0, len(record.Properties))
	for name := range record.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	var inputs []entity.StickerInput
	for _, name := range names {
		m := stickerFieldPattern.FindStringSubmatch(name)
		if m == nil {
			continue
		}
		inputs = append(inputs, entity.StickerInput{
			Name:   strings.TrimSpace(m[1]),
			Size:   strings.TrimSpace(m[2]),
			PDFURL: assetURLFrom(record.Properties[name]),
		})
	}
	return inputs
}

// stickerFromRecord flattens a sticker sub-record fetched through a
// relation. The PDF link is looked up by the preferred names first; failing
// that, any files property on the record serves.
func stickerFromRecord(record entity.Record) entity.StickerInput {
	in := entity.StickerInput{
		Name:   extractTitle(record, stickerNameFields),
		Size:   firstPlainText(record, stickerSizeFields),
		PDFURL: firstAssetURL(record, stickerPDFFields),
	}

	if in.PDFURL == "" {
		names := make([]string, 0, len(record.Properties))
		for name := range record.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			p := record.Properties[name]
			if p.Kind == entity.PropertyKindFiles && len(p.Files) > 0 {
				in.PDFURL = p.Files[0].URL
				break
			}
		}
	}

	return in
}
