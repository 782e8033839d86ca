package entity

// PropertyKind enumerates the property variants a Record can carry.
type PropertyKind string

const (
	PropertyKindTitle    PropertyKind = "title"
	PropertyKindRichText PropertyKind = "rich_text"
	PropertyKindSelect   PropertyKind = "select"
	PropertyKindURL      PropertyKind = "url"
	PropertyKindFiles    PropertyKind = "files"
	PropertyKindRelation PropertyKind = "relation"
	PropertyKindNumber   PropertyKind = "number"
)

// FileRef is one entry of a files property.
type FileRef struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// PropertyValue is a tagged variant over the property types the sync
// pipeline consumes. Only the field matching Kind carries data.
type PropertyValue struct {
	Kind     PropertyKind `json:"kind"`
	Text     string       `json:"text,omitempty"`
	Files    []FileRef    `json:"files,omitempty"`
	Relation []string     `json:"relation,omitempty"`
	Number   float64      `json:"number,omitempty"`
}

// PlainText returns the textual payload for text-like variants and the
// empty string for everything else.
func (p PropertyValue) PlainText() string {
	switch p.Kind {
	case PropertyKindTitle, PropertyKindRichText, PropertyKindSelect, PropertyKindURL:
		return p.Text
	}
	return ""
}

// Record is a source-agnostic view of one database row.
type Record struct {
	ID         string
	Properties map[string]PropertyValue
}

// Property returns the named property value and whether it exists.
func (r Record) Property(name string) (PropertyValue, bool) {
	v, ok := r.Properties[name]
	return v, ok
}
