package wiki

import (
	"context"
	"fmt"
)

// contributorsLimit caps how many contributors the page shows inline.
const contributorsLimit = 6

// PageContext is everything the HTML page renderer needs for one document
// view. Original is the document that was resolved; Document is what is
// actually displayed (they differ under a content experiment).
type PageContext struct {
	Original *Document
	Document *Document

	DocumentHTML   string
	TOCHTML        string
	QuickLinksHTML string
	BodyHTML       string

	Contributors      []string
	ContributorsCount int
	ContributorsLimit int
	HasContributors   bool

	FallbackReason    string
	RenderErrors      []RenderError
	RenderRawFallback bool

	SEOSummary     string
	SEOParentTitle string
	ShareText      string

	AnalyticsPageRevision int64
	AnalyticsEnSlug       string

	Experiment        *ExperimentInfo
	OtherTranslations []*Document
	AllLocales        []string
}

// PageContextInputs carries the pipeline outputs feeding the page context.
type PageContextInputs struct {
	Original       *Document
	Document       *Document
	DocumentHTML   string
	TOCHTML        string
	FallbackReason string
	RenderErrors   []RenderError
	RawFallback    bool
	Experiment     *ExperimentInfo
	SlugParts      SlugParts
}

// PageContext assembles the HTML-page context for a resolved document.
func (a *Assembler) PageContext(ctx context.Context, in PageContextInputs) (*PageContext, error) {
	contributors, err := a.store.Contributors(ctx, in.Document)
	if err != nil {
		return nil, fmt.Errorf("contributors of %s/%s: %w", in.Document.Locale, in.Document.Slug, err)
	}

	seoParentTitle, err := a.SEOParentTitle(ctx, in.Original, in.SlugParts)
	if err != nil {
		return nil, err
	}

	translations, err := a.store.Translations(ctx, in.Original)
	if err != nil {
		return nil, fmt.Errorf("translations of %s/%s: %w", in.Original.Locale, in.Original.Slug, err)
	}
	locales, err := a.AllLocales(ctx, in.Original)
	if err != nil {
		return nil, err
	}

	var revisionID int64
	if in.Document.CurrentRevision != nil {
		revisionID = in.Document.CurrentRevision.ID
	}

	return &PageContext{
		Original:          in.Original,
		Document:          in.Document,
		DocumentHTML:      in.DocumentHTML,
		TOCHTML:           in.TOCHTML,
		QuickLinksHTML:    in.Document.QuickLinksHTML,
		BodyHTML:          in.Document.BodyHTML,
		Contributors:      contributors,
		ContributorsCount: len(contributors),
		ContributorsLimit: contributorsLimit,
		HasContributors:   len(contributors) > 0,
		FallbackReason:    in.FallbackReason,
		RenderErrors:      in.RenderErrors,
		RenderRawFallback: in.RawFallback,
		SEOSummary:        in.Document.SummaryText,
		SEOParentTitle:    seoParentTitle,
		ShareText:         fmt.Sprintf("I learned about %s on the wiki.", in.Document.Title),

		AnalyticsPageRevision: revisionID,
		AnalyticsEnSlug:       a.EnglishSlug(in.Original),

		Experiment:        in.Experiment,
		OtherTranslations: translations,
		AllLocales:        locales,
	}, nil
}
