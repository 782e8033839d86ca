package gdrive

import "regexp"

// Ordered Drive URL matchers. Earlier entries are more specific and win
// over the later heuristics. The long-token fallback exists because Drive
// IDs show up pasted into all kinds of URL shapes.
var fileIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]{20,})`),
	regexp.MustCompile(`/open\?id=([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`docs\.google\.com/(?:document|spreadsheets|presentation)/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/drive/folders/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`([a-zA-Z0-9_-]{28,})`),
}

// ExtractFileID returns the Google Drive file ID referenced by url, or the
// empty string when the URL does not look like a Drive reference. The
// matchers themselves are the membership test; there is no host allowlist.
// Malformed input never panics, it just yields the empty string.
func ExtractFileID(url string) string {
	if url == "" {
		return ""
	}
	for _, p := range fileIDPatterns {
		if m := p.FindStringSubmatch(url); len(m) == 2 {
			return m[1]
		}
	}
	return ""
}
