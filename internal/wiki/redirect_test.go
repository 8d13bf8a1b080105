package wiki

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func redirectStub(locale, slug, target string) *Document {
	return &Document{
		Locale:     locale,
		Slug:       slug,
		IsRedirect: true,
		HTML:       `<p>REDIRECT <a class="redirect" href="` + target + `">target</a></p>`,
	}
}

func TestRedirectURL(t *testing.T) {
	doc := redirectStub("en-US", "Old", "/en-US/docs/New")
	require.Equal(t, "/en-US/docs/New", doc.RedirectURL())

	// Attribute order does not matter.
	doc = &Document{
		IsRedirect: true,
		HTML:       `<a href="/en-US/docs/New" class="redirect">target</a>`,
	}
	require.Equal(t, "/en-US/docs/New", doc.RedirectURL())

	require.Empty(t, (&Document{HTML: `<a class="redirect" href="/x">x</a>`}).RedirectURL())
	require.Empty(t, (&Document{IsRedirect: true, HTML: "plain content"}).RedirectURL())
}

func TestDecideRedirect(t *testing.T) {
	doc := redirectStub("en-US", "Old", "/en-US/docs/New")

	decision := DecideRedirect(doc, true, nil)
	require.NotNil(t, decision)
	require.Equal(t, "/en-US/docs/New", decision.URL)
	require.Equal(t, "/en-US/docs/Old", decision.From)
}

func TestDecideRedirectHonorsRedirectNo(t *testing.T) {
	doc := redirectStub("en-US", "Old", "/en-US/docs/New")
	require.Nil(t, DecideRedirect(doc, false, nil))
}

func TestDecideRedirectIgnoresSelfTarget(t *testing.T) {
	doc := redirectStub("en-US", "Loop", "/en-US/docs/Loop")
	require.Nil(t, DecideRedirect(doc, true, nil))
}

func TestDecideRedirectPreservesQuery(t *testing.T) {
	doc := redirectStub("en-US", "Old", "/en-US/docs/New?x=1")

	decision := DecideRedirect(doc, true, url.Values{"raw": {"1"}})
	require.NotNil(t, decision)
	require.Equal(t, "/en-US/docs/New?raw=1&x=1", decision.URL)
}

func TestURLWithQuery(t *testing.T) {
	require.Equal(t, "/a/b", URLWithQuery("/a/b", nil))
	require.Equal(t, "/a/b?raw=1", URLWithQuery("/a/b", url.Values{"raw": {"1"}}))
	require.Equal(t, "/a/b?raw=1&x=2", URLWithQuery("/a/b?x=2", url.Values{"raw": {"1"}}))
}
