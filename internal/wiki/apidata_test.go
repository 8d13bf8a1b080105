package wiki

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func testAssembler(store Store) *Assembler {
	return NewAssembler(store, "en-US", "https://docs.example.org", "https://wiki.example.org")
}

func TestEnglishSlug(t *testing.T) {
	a := testAssembler(newFakeStore())

	source := approvedDoc(1, "en-US", "Web/CSS")
	require.Equal(t, "Web/CSS", a.EnglishSlug(source))

	translation := approvedDoc(2, "fr", "Web/CSS_fr")
	translation.Parent = source
	require.Equal(t, "Web/CSS", a.EnglishSlug(translation))

	orphan := approvedDoc(3, "fr", "Divers")
	require.Empty(t, a.EnglishSlug(orphan))
}

func TestHrefLang(t *testing.T) {
	available := map[string]bool{"en-US": true, "fr": true}
	require.Equal(t, "en", HrefLang("en-US", available))
	require.Equal(t, "fr", HrefLang("fr", available))

	ambiguous := map[string]bool{"pt-PT": true, "pt-BR": true}
	require.Equal(t, "pt-pt", HrefLang("pt-PT", ambiguous))
	require.Equal(t, "pt-br", HrefLang("pt-BR", ambiguous))
}

func TestLanguageNames(t *testing.T) {
	require.Equal(t, "français", NativeLanguageName("fr"))
	require.Equal(t, "French", EnglishLanguageName("fr"))
	require.Equal(t, "not!a!locale", NativeLanguageName("not!a!locale"))
}

func TestAllLocales(t *testing.T) {
	doc := approvedDoc(1, "en-US", "Web/CSS")
	store := newFakeStore(doc)
	store.translations[1] = []*Document{
		approvedDoc(2, "fr", "Web/CSS"),
		approvedDoc(3, "de", "Web/CSS"),
	}

	locales, err := testAssembler(store).AllLocales(context.Background(), doc)
	require.NoError(t, err)
	require.Equal(t, []string{"de", "en-US", "fr"}, locales)
}

func TestSEOParentTitle(t *testing.T) {
	store := newFakeStore()
	a := testAssembler(store)

	doc := approvedDoc(1, "en-US", "Web/CSS/color")

	// No ancestor document resolves: no suffix.
	title, err := a.SEOParentTitle(context.Background(), doc, SplitSlug(doc.Slug))
	require.NoError(t, err)
	require.Empty(t, title)

	root := approvedDoc(2, "en-US", "Web/CSS")
	root.Title = "CSS"
	store.add(root)
	title, err = a.SEOParentTitle(context.Background(), doc, SplitSlug(doc.Slug))
	require.NoError(t, err)
	require.Equal(t, " - CSS", title)

	// A preloaded parent topic matching the SEO root wins without a lookup.
	doc.ParentTopic = &Document{Slug: "Web/CSS", Title: "Cascading Style Sheets"}
	title, err = a.SEOParentTitle(context.Background(), doc, SplitSlug(doc.Slug))
	require.NoError(t, err)
	require.Equal(t, " - Cascading Style Sheets", title)

	// Root slugs have no SEO root at all.
	title, err = a.SEOParentTitle(context.Background(), root, SplitSlug("CSS"))
	require.NoError(t, err)
	require.Empty(t, title)
}

func TestDocumentAPIData(t *testing.T) {
	doc := approvedDoc(1, "en-US", "Web/CSS")
	doc.Title = "CSS"
	doc.SummaryHTML = "<p>Styling.</p>"
	doc.BodyHTML = "<p>Body.</p>"
	doc.TOCHTML = "<li>Intro</li>"
	doc.HTML = "<h2>Intro</h2>"
	doc.IsLocalizable = true

	translation := approvedDoc(2, "fr", "Web/CSS")
	translation.Title = "CSS (fr)"

	parent := approvedDoc(3, "en-US", "Web")
	parent.Title = "Web"

	store := newFakeStore(doc, translation, parent)
	store.translations[1] = []*Document{translation}
	store.parents[1] = []*Document{parent}

	data, err := testAssembler(store).DocumentAPIData(context.Background(), doc)
	require.NoError(t, err)
	require.Nil(t, data.RedirectURL)

	d := data.DocumentData
	require.Equal(t, "Web/CSS", d.Slug)
	require.Equal(t, "Web/CSS", d.EnSlug)
	require.Equal(t, "https://docs.example.org/en-US/docs/Web/CSS", d.AbsoluteURL)
	require.Equal(t, "https://wiki.example.org/en-US/docs/Web/CSS", d.WikiURL)
	require.Equal(t, "https://wiki.example.org/en-US/docs/Web/CSS$edit", d.EditURL)
	require.NotNil(t, d.TranslateURL)
	require.Equal(t, "https://wiki.example.org/en-US/docs/Web/CSS$locales", *d.TranslateURL)
	require.Nil(t, d.TranslationStatus)
	require.NotNil(t, d.LastModified)
	require.Equal(t, "2024-05-01T12:00:00", *d.LastModified)
	require.Equal(t, []DocumentLink{{URL: "/en-US/docs/Web", Title: "Web"}}, d.Parents)
	require.Len(t, d.Translations, 1)
	require.Equal(t, "fr", d.Translations[0].Locale)
	require.Equal(t, "French", d.Translations[0].LocalizedLanguage)
}

func TestDocumentAPIDataTranslationStatus(t *testing.T) {
	source := approvedDoc(1, "en-US", "Web/CSS")
	translation := approvedDoc(2, "fr", "Web/CSS")
	translation.ParentID = 1
	translation.Parent = source
	translation.CurrentRevision.LocalizationInProgress = true
	translation.CurrentRevision.TranslationAge = 3

	store := newFakeStore(source, translation)
	a := testAssembler(store)

	data, err := a.DocumentAPIData(context.Background(), translation)
	require.NoError(t, err)
	require.NotNil(t, data.DocumentData.TranslationStatus)
	require.Equal(t, "in-progress", *data.DocumentData.TranslationStatus)

	translation.CurrentRevision.TranslationAge = 10
	data, err = a.DocumentAPIData(context.Background(), translation)
	require.NoError(t, err)
	require.Equal(t, "outdated", *data.DocumentData.TranslationStatus)
}

func TestRedirectAPIData(t *testing.T) {
	data := RedirectAPIData("/en-US/docs/New")
	require.Nil(t, data.DocumentData)
	require.NotNil(t, data.RedirectURL)
	require.Equal(t, "/en-US/docs/New", *data.RedirectURL)
}

func TestPageContext(t *testing.T) {
	doc := approvedDoc(1, "en-US", "Web/CSS")
	doc.Title = "CSS"
	doc.SummaryText = "Styling the web."
	doc.QuickLinksHTML = "<li>link</li>"

	store := newFakeStore(doc)
	store.contributors[1] = []string{"alice", "bob"}

	pc, err := testAssembler(store).PageContext(context.Background(), PageContextInputs{
		Original:     doc,
		Document:     doc,
		DocumentHTML: "<p>body</p>",
		SlugParts:    SplitSlug(doc.Slug),
	})
	require.NoError(t, err)
	require.Equal(t, []string{"alice", "bob"}, pc.Contributors)
	require.Equal(t, 2, pc.ContributorsCount)
	require.True(t, pc.HasContributors)
	require.Equal(t, "Styling the web.", pc.SEOSummary)
	require.Equal(t, int64(100), pc.AnalyticsPageRevision)
	require.Equal(t, "Web/CSS", pc.AnalyticsEnSlug)
	require.Equal(t, []string{"en-US"}, pc.AllLocales)
	require.Contains(t, pc.ShareText, "CSS")
}
