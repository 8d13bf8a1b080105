package wiki

import (
	"net/url"
	"strings"
)

// RedirectDecision is the outcome of the single-hop redirect policy.
type RedirectDecision struct {
	// URL is the target with the original query parameters applied.
	URL string
	// From is the canonical URL of the redirect stub, for the one-time
	// "redirected from" notice.
	From string
}

// DecideRedirect checks whether doc is a redirect stub that should be
// followed. follow is false when the request carries redirect=no, so editors
// can reach the stub itself. A target equal to the document's own canonical
// URL is never followed, which makes self-redirect loops impossible. Exactly
// one redirect decision is made per request; chains are not chased.
func DecideRedirect(doc *Document, follow bool, query url.Values) *RedirectDecision {
	if !follow {
		return nil
	}
	target := doc.RedirectURL()
	if target == "" || target == doc.URL() {
		return nil
	}
	return &RedirectDecision{
		URL:  URLWithQuery(target, query),
		From: doc.URL(),
	}
}

// URLWithQuery appends query parameters to u, merging with any it already
// carries.
func URLWithQuery(u string, query url.Values) string {
	if len(query) == 0 {
		return u
	}
	base, rawQuery, _ := strings.Cut(u, "?")
	merged, err := url.ParseQuery(rawQuery)
	if err != nil {
		merged = url.Values{}
	}
	for key, values := range query {
		for _, v := range values {
			merged.Add(key, v)
		}
	}
	return base + "?" + merged.Encode()
}
