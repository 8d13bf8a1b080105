package wiki

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// DocumentLink is an ancestor reference in the API payload.
type DocumentLink struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// TranslationData describes one sibling translation in the API payload.
type TranslationData struct {
	Language          string `json:"language"`
	HrefLang          string `json:"hrefLang"`
	LocalizedLanguage string `json:"localizedLanguage"`
	Locale            string `json:"locale"`
	URL               string `json:"url"`
	Title             string `json:"title"`
}

// DocumentData is the JSON document payload of the API surface.
type DocumentData struct {
	Locale            string            `json:"locale"`
	Slug              string            `json:"slug"`
	EnSlug            string            `json:"enSlug"`
	ID                int64             `json:"id"`
	Title             string            `json:"title"`
	Summary           string            `json:"summary"`
	Language          string            `json:"language"`
	HrefLang          string            `json:"hrefLang"`
	AbsoluteURL       string            `json:"absoluteURL"`
	WikiURL           string            `json:"wikiURL"`
	EditURL           string            `json:"editURL"`
	TranslateURL      *string           `json:"translateURL"`
	TranslationStatus *string           `json:"translationStatus"`
	BodyHTML          string            `json:"bodyHTML"`
	QuickLinksHTML    string            `json:"quickLinksHTML"`
	TOCHTML           string            `json:"tocHTML"`
	Raw               string            `json:"raw"`
	Parents           []DocumentLink    `json:"parents"`
	Translations      []TranslationData `json:"translations"`
	LastModified      *string           `json:"lastModified"`
}

// APIData is the top-level API payload. Exactly one of DocumentData and
// RedirectURL is set.
type APIData struct {
	DocumentData *DocumentData `json:"documentData"`
	RedirectURL  *string       `json:"redirectURL"`
}

// outdatedTranslationAge is the translation age, in days behind the source
// document, at which an in-progress translation is reported as outdated.
const outdatedTranslationAge = 10

// Assembler composes final response payloads from resolved documents.
type Assembler struct {
	store         Store
	defaultLocale string
	// siteBase and wikiBase absolutify URLs for the two serving domains.
	siteBase string
	wikiBase string
}

// NewAssembler creates an assembler. siteBase and wikiBase are origin URLs
// without trailing slash, e.g. "https://developer.example.org".
func NewAssembler(store Store, defaultLocale, siteBase, wikiBase string) *Assembler {
	if defaultLocale == "" {
		defaultLocale = DefaultLocale
	}
	return &Assembler{store: store, defaultLocale: defaultLocale, siteBase: siteBase, wikiBase: wikiBase}
}

// RedirectAPIData builds the redirect-only variant of the API payload.
func RedirectAPIData(redirectURL string) *APIData {
	return &APIData{RedirectURL: &redirectURL}
}

// DocumentAPIData assembles the JSON document payload for doc.
func (a *Assembler) DocumentAPIData(ctx context.Context, doc *Document) (*APIData, error) {
	translations, err := a.store.Translations(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("translations of %s/%s: %w", doc.Locale, doc.Slug, err)
	}

	available := map[string]bool{doc.Locale: true}
	for _, t := range translations {
		available[t.Locale] = true
	}

	parents, err := a.store.Parents(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("parents of %s/%s: %w", doc.Locale, doc.Slug, err)
	}
	parentLinks := make([]DocumentLink, 0, len(parents))
	for _, p := range parents {
		parentLinks = append(parentLinks, DocumentLink{URL: p.URL(), Title: p.Title})
	}

	translationData := make([]TranslationData, 0, len(translations))
	for _, t := range translations {
		translationData = append(translationData, TranslationData{
			Language:          NativeLanguageName(t.Locale),
			HrefLang:          HrefLang(t.Locale, available),
			LocalizedLanguage: EnglishLanguageName(t.Locale),
			Locale:            t.Locale,
			URL:               t.URL(),
			Title:             t.Title,
		})
	}

	var translateURL *string
	if doc.IsLocalizable {
		u := a.wikiBase + "/" + doc.Locale + "/docs/" + doc.Slug + "$locales"
		translateURL = &u
	}

	var translationStatus *string
	if doc.ParentID != 0 && doc.CurrentRevision != nil && doc.CurrentRevision.LocalizationInProgress {
		status := "in-progress"
		if doc.CurrentRevision.TranslationAge >= outdatedTranslationAge {
			status = "outdated"
		}
		translationStatus = &status
	}

	var lastModified *string
	if doc.CurrentRevision != nil {
		s := doc.CurrentRevision.Created.UTC().Format("2006-01-02T15:04:05")
		lastModified = &s
	}

	return &APIData{
		DocumentData: &DocumentData{
			Locale:            doc.Locale,
			Slug:              doc.Slug,
			EnSlug:            a.EnglishSlug(doc),
			ID:                doc.ID,
			Title:             doc.Title,
			Summary:           doc.SummaryHTML,
			Language:          NativeLanguageName(doc.Locale),
			HrefLang:          HrefLang(doc.Locale, available),
			AbsoluteURL:       a.siteBase + doc.URL(),
			WikiURL:           a.wikiBase + doc.URL(),
			EditURL:           a.wikiBase + doc.URL() + "$edit",
			TranslateURL:      translateURL,
			TranslationStatus: translationStatus,
			BodyHTML:          doc.BodyHTML,
			QuickLinksHTML:    doc.QuickLinksHTML,
			TOCHTML:           doc.TOCHTML,
			Raw:               doc.HTML,
			Parents:           parentLinks,
			Translations:      translationData,
			LastModified:      lastModified,
		},
	}, nil
}

// EnglishSlug returns the slug used to correlate translations in analytics:
// the document's own slug when it is in the default locale, its parent's
// slug when the parent is, else "".
func (a *Assembler) EnglishSlug(doc *Document) string {
	if doc.Locale == a.defaultLocale {
		return doc.Slug
	}
	if doc.Parent != nil && doc.Parent.Locale == a.defaultLocale {
		return doc.Parent.Slug
	}
	return ""
}

// SEOParentTitle returns the " - Ancestor" suffix appended to page titles,
// derived from the slug's SEO root in the document's locale. The preloaded
// parent-topic reference is used when it already matches, avoiding a store
// lookup.
func (a *Assembler) SEOParentTitle(ctx context.Context, doc *Document, parts SlugParts) (string, error) {
	if parts.SEORoot == "" {
		return "", nil
	}
	if doc.ParentTopic != nil && doc.ParentTopic.Slug == parts.SEORoot {
		return " - " + doc.ParentTopic.Title, nil
	}
	root, err := a.store.Document(ctx, doc.Locale, parts.SEORoot)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("seo root %s/%s: %w", doc.Locale, parts.SEORoot, err)
	}
	return " - " + root.Title, nil
}

// AllLocales returns the sorted set of locales in doc's translation family,
// doc's own included.
func (a *Assembler) AllLocales(ctx context.Context, doc *Document) ([]string, error) {
	translations, err := a.store.Translations(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("translations of %s/%s: %w", doc.Locale, doc.Slug, err)
	}
	seen := map[string]bool{doc.Locale: true}
	locales := []string{doc.Locale}
	for _, t := range translations {
		if !seen[t.Locale] {
			seen[t.Locale] = true
			locales = append(locales, t.Locale)
		}
	}
	sort.Strings(locales)
	return locales, nil
}

// HrefLang maps a locale to its hreflang attribute value: the bare language
// tag when it is unambiguous among the available locales, the full lowercase
// locale otherwise.
func HrefLang(locale string, available map[string]bool) string {
	base := baseLanguage(locale)
	for other := range available {
		if other != locale && baseLanguage(other) == base {
			return strings.ToLower(locale)
		}
	}
	return base
}

func baseLanguage(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		lang, _, _ := strings.Cut(locale, "-")
		return strings.ToLower(lang)
	}
	b, _ := tag.Base()
	return b.String()
}

// NativeLanguageName returns the locale's language name in that language.
func NativeLanguageName(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return locale
	}
	return display.Self.Name(tag)
}

// EnglishLanguageName returns the locale's language name in English.
func EnglishLanguageName(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return locale
	}
	return display.English.Languages().Name(tag)
}
