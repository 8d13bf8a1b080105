package wiki

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
)

// Fallback reasons annotate a document served from a different locale or
// approval state than the one requested. They are not errors.
const (
	FallbackTranslationNotApproved = "translation_not_approved"
	FallbackNoContent              = "no_content"
	FallbackNoTranslation          = "no_translation"
)

// Resolver locates documents across locale fallbacks and soft deletion.
type Resolver struct {
	store         Store
	defaultLocale string
}

// NewResolver creates a resolver over store. defaultLocale is the canonical
// source locale; DefaultLocale is used when it is empty.
func NewResolver(store Store, defaultLocale string) *Resolver {
	if defaultLocale == "" {
		defaultLocale = DefaultLocale
	}
	return &Resolver{store: store, defaultLocale: defaultLocale}
}

// DefaultLocaleName returns the resolver's canonical source locale.
func (r *Resolver) DefaultLocaleName() string { return r.defaultLocale }

// Resolve fetches the document at (locale, slug). When the document exists
// but carries no approved current revision, a fallback reason is returned
// alongside it. A miss returns (nil, "", nil); the caller then consults
// CheckDeleted, DefaultLocaleFallback and DeletedParentRedirect, whose
// outcomes differ (404 vs redirect) and are deliberately kept as separate
// steps.
func (r *Resolver) Resolve(ctx context.Context, locale, slug string) (*Document, string, error) {
	doc, err := r.store.Document(ctx, locale, slug)
	if errors.Is(err, ErrNotFound) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("resolve %s/%s: %w", locale, slug, err)
	}

	if doc.CurrentRevision == nil {
		if doc.Parent != nil && doc.Parent.CurrentRevision != nil {
			// A translation whose own revision is unapproved, with an
			// approved source document behind it.
			return doc, FallbackTranslationNotApproved, nil
		}
		return doc, FallbackNoContent, nil
	}
	return doc, "", nil
}

// DeletionState describes what the deletion subsystem knows about a slug.
type DeletionState struct {
	// Entries are the deletion-log entries, most recent first.
	Entries []DeletionLogEntry
	// Deleted is true when a soft-deleted document still backs the entries,
	// making the page restorable.
	Deleted bool
}

// CheckDeleted consults the deletion log for (locale, slug). The caller must
// treat a Deleted result as terminal: an opaque 404 for the public, a
// restore-capable 404 for privileged callers.
func (r *Resolver) CheckDeleted(ctx context.Context, locale, slug string) (DeletionState, error) {
	entries, err := r.store.DeletionLog(ctx, locale, slug)
	if err != nil {
		return DeletionState{}, fmt.Errorf("deletion log %s/%s: %w", locale, slug, err)
	}
	state := DeletionState{Entries: entries}
	if len(entries) == 0 {
		return state, nil
	}
	deleted, err := r.store.DeletedDocuments(ctx, locale, slug)
	if err != nil {
		return DeletionState{}, fmt.Errorf("deleted documents %s/%s: %w", locale, slug, err)
	}
	state.Deleted = len(deleted) > 0
	return state, nil
}

// DefaultLocaleFallback looks for the document at (defaultLocale, slug) when
// the requested locale has none. If an approved translation into the
// requested locale exists the result is a redirect to it, with query
// preserved. Otherwise the default-locale document itself is served, with a
// reason, but only when it is approved.
func (r *Resolver) DefaultLocaleFallback(ctx context.Context, locale, slug string, query url.Values) (doc *Document, reason, redirectURL string, err error) {
	fallback, err := r.store.Document(ctx, r.defaultLocale, slug)
	if errors.Is(err, ErrNotFound) {
		return nil, "", "", nil
	}
	if err != nil {
		return nil, "", "", fmt.Errorf("locale fallback %s/%s: %w", r.defaultLocale, slug, err)
	}

	translation, err := r.store.TranslatedTo(ctx, fallback, locale)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, "", "", fmt.Errorf("translation lookup %s: %w", locale, err)
	}

	switch {
	case translation != nil && translation.CurrentRevision != nil:
		return fallback, "", URLWithQuery(translation.URL(), query), nil
	case translation != nil && fallback.CurrentRevision != nil:
		return fallback, FallbackTranslationNotApproved, "", nil
	case fallback.CurrentRevision != nil:
		return fallback, FallbackNoTranslation, "", nil
	}
	// The default-locale document is itself unapproved; no fallback.
	return nil, "", "", nil
}

// DeletedParentRedirect covers a translated page that was soft-deleted while
// its source-locale parent lives on: the reader is sent to the parent's
// current URL. Only meaningful outside the default locale.
func (r *Resolver) DeletedParentRedirect(ctx context.Context, locale, slug string) (string, error) {
	deleted, err := r.store.DeletedDocuments(ctx, locale, slug)
	if err != nil {
		return "", fmt.Errorf("deleted documents %s/%s: %w", locale, slug, err)
	}
	for _, doc := range deleted {
		if doc.Parent != nil {
			return doc.Parent.URL(), nil
		}
	}
	return "", nil
}

// ErrNoCreatePath reports that a create-page redirect cannot be offered,
// typically because the parent slug is a redirect stub without a resolvable
// target.
var ErrNoCreatePath = errors.New("wiki: no create path for slug")

// CreateRedirectURL builds the URL of the page-creation form for a slug that
// resolved to nothing. For a child slug the parent document must exist; a
// parent that is itself a redirect is followed once.
func (r *Resolver) CreateRedirectURL(ctx context.Context, locale, slug string, parts SlugParts) (string, error) {
	createURL := "/" + locale + "/docs/new"
	if parts.Length <= 1 {
		return createURL + "?slug=" + url.QueryEscape(slug), nil
	}

	parent, err := r.store.Document(ctx, locale, parts.Parent)
	if errors.Is(err, ErrNotFound) {
		return "", ErrNoCreatePath
	}
	if err != nil {
		return "", fmt.Errorf("parent lookup %s/%s: %w", locale, parts.Parent, err)
	}
	if parent.IsRedirect {
		parent, err = r.RedirectDocument(ctx, parent)
		if err != nil {
			return "", err
		}
		if parent == nil {
			// Redirect does not point at a document; no subpage can hang
			// off it.
			return "", ErrNoCreatePath
		}
	}
	q := url.Values{}
	q.Set("parent", fmt.Sprint(parent.ID))
	q.Set("slug", parts.Specific)
	return createURL + "?" + q.Encode(), nil
}

// RedirectDocument resolves a redirect stub's target to a document, or nil
// when the target is not a document URL. At most one hop is taken.
func (r *Resolver) RedirectDocument(ctx context.Context, doc *Document) (*Document, error) {
	target := doc.RedirectURL()
	if target == "" {
		return nil, nil
	}
	locale, slug, ok := LocaleAndSlugFromURL(target)
	if !ok {
		return nil, nil
	}
	resolved, err := r.store.Document(ctx, locale, slug)
	if errors.Is(err, ErrNotFound) {
		slog.Debug("redirect target missing", "locale", locale, "slug", slug)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redirect target %s/%s: %w", locale, slug, err)
	}
	return resolved, nil
}
