// Package wiki implements the document resolution and rendering pipeline:
// locating a document across locale fallbacks, soft deletion and redirects,
// selecting a content-experiment variant, obtaining rendered HTML, and
// assembling page or API responses.
package wiki

import (
	"regexp"
	"strings"
	"time"
)

// DefaultLocale is the canonical source locale for all content.
const DefaultLocale = "en-US"

// Document is a single wiki page in one locale. Parent links a translation
// to its source-locale document; ParentTopic links a page to its hierarchical
// parent. Both are weak references resolved through the Store; the copies
// attached here are shallow (their own references are left nil).
type Document struct {
	ID             int64
	Locale         string
	Slug           string
	Title          string
	HTML           string
	RenderedHTML   string
	RenderedAt     time.Time
	BodyHTML       string
	TOCHTML        string
	SummaryHTML    string
	SummaryText    string
	QuickLinksHTML string
	IsRedirect     bool
	IsLocalizable  bool
	ShowTOC        bool
	Deleted        bool

	ParentID      int64
	ParentTopicID int64

	Parent          *Document
	ParentTopic     *Document
	CurrentRevision *Revision
}

// Revision is the approved current revision of a Document.
type Revision struct {
	ID                     int64
	DocumentID             int64
	CreatorID              int64
	CreatorUsername        string
	CreatorActive          bool
	Created                time.Time
	TOCDepth               int
	TranslationAge         int
	LocalizationInProgress bool
}

// DeletionLogEntry records a soft deletion of a document. Several entries
// may exist for the same (locale, slug); the most recent one wins.
type DeletionLogEntry struct {
	ID      int64
	Locale  string
	Slug    string
	User    string
	Reason  string
	Created time.Time
}

// URL returns the site-relative URL of the document.
func (d *Document) URL() string {
	return "/" + d.Locale + "/docs/" + d.Slug
}

// redirect stubs carry their target as an anchor with class="redirect"
var redirectHrefRe = regexp.MustCompile(`<a[^>]+class="redirect"[^>]*>|<a[^>]+href="[^"]*"[^>]*class="redirect"[^>]*>`)

var hrefRe = regexp.MustCompile(`href="([^"]+)"`)

// RedirectURL returns the target URL of a redirect stub, or "" when the
// document is not a redirect or its target cannot be determined.
func (d *Document) RedirectURL() string {
	if !d.IsRedirect {
		return ""
	}
	anchor := redirectHrefRe.FindString(d.HTML)
	if anchor == "" {
		return ""
	}
	m := hrefRe.FindStringSubmatch(anchor)
	if m == nil {
		return ""
	}
	return m[1]
}

// HasLegacyNamespace reports whether the slug lives under one of the retired
// top-level namespaces that must never be indexed.
func (d *Document) HasLegacyNamespace() bool {
	for _, prefix := range []string{"Talk:", "User:", "User_talk:", "Template_talk:", "Project_talk:", "Experiment:"} {
		if strings.HasPrefix(d.Slug, prefix) {
			return true
		}
	}
	return false
}

// HasNoIndexSlug reports whether the slug is excluded from search indexing.
func (d *Document) HasNoIndexSlug() bool {
	return d.Slug == "Archive" || strings.HasPrefix(d.Slug, "Archive/")
}

// IsExperiment reports whether this page is an experiment variant page.
func (d *Document) IsExperiment() bool {
	return strings.HasPrefix(d.Slug, "Experiment:")
}

// LocaleAndSlugFromURL extracts (locale, slug) from a site-relative document
// URL of the form /{locale}/docs/{slug}. ok is false for any other shape.
func LocaleAndSlugFromURL(url string) (locale, slug string, ok bool) {
	trimmed := strings.TrimPrefix(url, "/")
	locale, rest, found := strings.Cut(trimmed, "/")
	if !found || locale == "" {
		return "", "", false
	}
	slug, found = strings.CutPrefix(rest, "docs/")
	if !found || slug == "" {
		return "", "", false
	}
	return locale, slug, true
}
