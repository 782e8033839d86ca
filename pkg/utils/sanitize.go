package utils

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._ \-]`)
	whitespace  = regexp.MustCompile(`\s+`)
)

// SanitizeFileName returns a filesystem-safe base name derived from a record
// name. Path separators and parent references are stripped to prevent
// directory traversal; whitespace collapses to single underscores.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")

	name = unsafeChars.ReplaceAllString(name, "")
	name = whitespace.ReplaceAllString(strings.TrimSpace(name), "_")

	if len(name) > 150 {
		name = name[:150]
	}
	if name == "" || strings.Trim(name, ".") == "" {
		return "asset"
	}
	return name
}

// IsHTTPURL reports whether s parses as an absolute http or https URL.
func IsHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
