package notion

import (
	"strings"

	"github.com/jomei/notionapi"

	"github.com/printdock/labelsync/internal/domain/entity"
)

// decodePage flattens a Notion page into a source-agnostic record with
// tagged-variant property values.
func decodePage(page *notionapi.Page) entity.Record {
	props := make(map[string]entity.PropertyValue, len(page.Properties))
	for name, prop := range page.Properties {
		if v, ok := decodeProperty(prop); ok {
			props[name] = v
		}
	}
	return entity.Record{
		ID:         page.ID.String(),
		Properties: props,
	}
}

// decodeProperty maps the SDK's concrete property types onto the variant
// the pipeline consumes. Property shapes it has no use for (people,
// checkboxes, rollups) are dropped rather than guessed at.
func decodeProperty(prop notionapi.Property) (entity.PropertyValue, bool) {
	switch p := prop.(type) {
	case *notionapi.TitleProperty:
		return entity.PropertyValue{
			Kind: entity.PropertyKindTitle,
			Text: richTextPlain(p.Title),
		}, true

	case *notionapi.RichTextProperty:
		return entity.PropertyValue{
			Kind: entity.PropertyKindRichText,
			Text: richTextPlain(p.RichText),
		}, true

	case *notionapi.TextProperty:
		return entity.PropertyValue{
			Kind: entity.PropertyKindRichText,
			Text: richTextPlain(p.Text),
		}, true

	case *notionapi.SelectProperty:
		return entity.PropertyValue{
			Kind: entity.PropertyKindSelect,
			Text: p.Select.Name,
		}, true

	case *notionapi.URLProperty:
		return entity.PropertyValue{
			Kind: entity.PropertyKindURL,
			Text: p.URL,
		}, true

	case *notionapi.FilesProperty:
		files := make([]entity.FileRef, 0, len(p.Files))
		for _, f := range p.Files {
			ref := entity.FileRef{Name: f.Name}
			switch {
			case f.External != nil && f.External.URL != "":
				ref.URL = f.External.URL
			case f.File != nil && f.File.URL != "":
				ref.URL = f.File.URL
			}
			if ref.URL != "" {
				files = append(files, ref)
			}
		}
		return entity.PropertyValue{
			Kind:  entity.PropertyKindFiles,
			Files: files,
		}, true

	case *notionapi.RelationProperty:
		ids := make([]string, 0, len(p.Relation))
		for _, rel := range p.Relation {
			ids = append(ids, string(rel.ID))
		}
		return entity.PropertyValue{
			Kind:     entity.PropertyKindRelation,
			Relation: ids,
		}, true

	case *notionapi.NumberProperty:
		return entity.PropertyValue{
			Kind:   entity.PropertyKindNumber,
			Number: p.Number,
		}, true
	}

	return entity.PropertyValue{}, false
}

// richTextPlain joins the plain-text runs of a rich text value
func richTextPlain(rts []notionapi.RichText) string {
	if len(rts) == 0 {
		return ""
	}
	var b strings.Builder
	for _, rt := range rts {
		b.WriteString(rt.PlainText)
	}
	return strings.TrimSpace(b.String())
}
