// Package kumascript talks to the remote macro-expansion service. The
// pipeline only depends on the contract here: hand over a document, get back
// expanded HTML plus non-fatal diagnostics, or an error when rendering is
// impossible right now.
package kumascript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/chojar/kuma/internal/wiki"
)

// Client renders documents against the macro service over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a renderer client. timeout bounds every render call; a
// zero timeout disables on-demand rendering entirely (Enabled reports false).
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether on-demand rendering is configured at all.
func (c *Client) Enabled() bool {
	return c.baseURL != "" && c.client.Timeout > 0
}

type renderRequest struct {
	Locale  string `json:"locale"`
	Slug    string `json:"slug"`
	HTML    string `json:"html"`
	BaseURL string `json:"baseUrl"`
}

type renderResponse struct {
	HTML   string             `json:"html"`
	Errors []wiki.RenderError `json:"errors"`
}

// Render expands macros in doc's source HTML. cacheControl is forwarded so
// the service can bypass its own caches on an explicit "no-cache". Any
// transport or server failure maps to ErrRenderedContentUnavailable: the
// caller decides between stale rendered content and the raw fallback.
func (c *Client) Render(ctx context.Context, doc *wiki.Document, cacheControl, baseURL string) (*wiki.RenderResult, error) {
	if !c.Enabled() {
		return nil, wiki.ErrRenderedContentUnavailable
	}

	body, err := json.Marshal(renderRequest{
		Locale:  doc.Locale,
		Slug:    doc.Slug,
		HTML:    doc.HTML,
		BaseURL: baseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal render request: %w", err)
	}

	endpoint := c.baseURL + "/docs/" + doc.Locale + "/" + url.PathEscape(doc.Slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build render request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cacheControl != "" {
		req.Header.Set("Cache-Control", cacheControl)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", wiki.ErrRenderedContentUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: renderer returned %d", wiki.ErrRenderedContentUnavailable, resp.StatusCode)
	}

	var decoded renderResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", wiki.ErrRenderedContentUnavailable, err)
	}
	return &wiki.RenderResult{HTML: decoded.HTML, Errors: decoded.Errors}, nil
}

// ShouldUseRendered decides whether a request wants macro-expanded content.
// Raw views skip rendering unless macros are forced; ?nomacros always skips;
// a document without source HTML has nothing to render.
func ShouldUseRendered(c *Client, doc *wiki.Document, query url.Values) bool {
	if !c.Enabled() || doc.HTML == "" {
		return false
	}
	raw := query.Has("raw")
	noMacros := query.Has("nomacros")
	forceMacros := query.Has("macros")
	return !noMacros && (forceMacros || !raw)
}
