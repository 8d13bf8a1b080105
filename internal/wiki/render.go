package wiki

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/chojar/kuma/internal/observability"
)

// RenderError is a non-fatal diagnostic emitted by the macro renderer. It is
// surfaced to the UI, never treated as a failure.
type RenderError struct {
	Name    string `json:"name"`
	Level   string `json:"level"`
	Message string `json:"message"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// RenderResult is the transient outcome of one remote render.
type RenderResult struct {
	HTML   string
	Errors []RenderError
}

// ErrRenderedContentUnavailable signals that a document has never been
// rendered and an on-demand render is impossible right now.
var ErrRenderedContentUnavailable = errors.New("wiki: rendered content not available")

// Renderer is the contract of the remote macro-expansion service.
type Renderer interface {
	Render(ctx context.Context, doc *Document, cacheControl, baseURL string) (*RenderResult, error)
}

// RenderOptions carries the request-derived policy inputs for one render.
type RenderOptions struct {
	// UseRendered is false when the request wants stored source HTML.
	UseRendered bool
	// Authenticated gates the no-cache escape hatch below.
	Authenticated bool
	// CacheControl is the client's Cache-Control header value; an
	// authenticated "no-cache" (shift-reload) forces a fresh render.
	CacheControl string
	// BaseURL is the absolute base URL handed to the renderer for link
	// expansion.
	BaseURL string
}

// RenderPipeline obtains document HTML from cached content or a fresh remote
// render, falling back to raw stored content when the renderer cannot serve.
type RenderPipeline struct {
	renderer Renderer
}

// NewRenderPipeline wires the pipeline to its renderer.
func NewRenderPipeline(renderer Renderer) *RenderPipeline {
	return &RenderPipeline{renderer: renderer}
}

// HTML returns the HTML to display for doc, any render diagnostics, and
// whether the raw-content fallback was taken. The fallback is a normal,
// idempotent outcome: the request never fails because the renderer is down,
// and no synchronous retry is attempted.
func (p *RenderPipeline) HTML(ctx context.Context, doc *Document, opts RenderOptions) (html string, renderErrors []RenderError, rawFallback bool) {
	if !opts.UseRendered {
		return doc.HTML, nil, false
	}

	cacheControl := ""
	if opts.Authenticated && opts.CacheControl == "no-cache" {
		cacheControl = "no-cache"
	}

	// Pre-rendered content satisfies every request that does not force a
	// fresh render.
	if cacheControl != "no-cache" && doc.RenderedHTML != "" {
		return doc.RenderedHTML, nil, false
	}

	start := time.Now()
	result, err := p.renderer.Render(ctx, doc, cacheControl, opts.BaseURL)
	observability.ObserveRender(time.Since(start), err == nil)
	if err != nil {
		if doc.RenderedHTML != "" {
			// Stale but rendered beats raw.
			slog.Warn("render failed, serving stale rendered content",
				"locale", doc.Locale, "slug", doc.Slug, "error", err)
			return doc.RenderedHTML, nil, false
		}
		slog.Warn("render unavailable, falling back to raw content",
			"locale", doc.Locale, "slug", doc.Slug, "error", err)
		observability.CountRawFallback()
		return doc.HTML, nil, true
	}

	html = doc.HTML
	if result.HTML != "" {
		html = result.HTML
	}
	return html, result.Errors, false
}
