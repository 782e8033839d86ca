package gdrive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL   = "https://drive.google.com"
	thumbnailCDNBase = "https://lh3.googleusercontent.com"

	browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	maxRedirects = 5
)

var (
	// errHTMLPayload marks a 200 response that carried a Drive warning or
	// sign-in page instead of file bytes.
	errHTMLPayload = errors.New("received HTML instead of file data")

	// errNoFileID marks a source that was never a Drive reference.
	errNoFileID = errors.New("source has no Drive file ID")
)

// HTTPClient interface for testability
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// newHTTPClient builds the client shared by the unauthenticated
// strategies. Redirects are bounded because Drive bounces downloads
// through several hosts before serving bytes.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// applyBrowserHeaders makes the request look like an interactive browser.
// Drive serves interstitial pages to clients it does not recognize.
func applyBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
}

// isHTMLPayload inspects the leading bytes for an HTML document signature.
// Drive answers several failure modes with HTTP 200 and an HTML page, so
// status alone cannot be trusted.
func isHTMLPayload(data []byte) bool {
	head := data
	if len(head) > 100 {
		head = head[:100]
	}
	s := strings.ToLower(strings.TrimSpace(string(head)))
	return strings.HasPrefix(s, "<!doctype") || strings.HasPrefix(s, "<html")
}

// fetchURL performs one GET with browser headers and returns the body once
// it passes the status, non-empty and non-HTML checks.
func fetchURL(ctx context.Context, client HTTPClient, url string, cookies []*http.Cookie) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	applyBrowserHeaders(req)
	for _, c := range cookies {
		req.AddCookie(c)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) == 0 {
		return nil, errors.New("empty response body")
	}
	if isHTMLPayload(body) {
		return nil, errHTMLPayload
	}

	return body, nil
}
