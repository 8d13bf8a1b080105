package server

import (
	"net/http"
	"strconv"

	"github.com/chojar/kuma/internal/wiki"
)

// revisionHeader carries the id of the served revision on every document
// response that has one.
const revisionHeader = "X-Kuma-Revision"

func addRevisionHeader(w http.ResponseWriter, doc *wiki.Document) {
	if doc != nil && doc.CurrentRevision != nil {
		w.Header().Set(revisionHeader, strconv.FormatInt(doc.CurrentRevision.ID, 10))
	}
}

// addNeverCacheHeaders marks a response as uncacheable, used for
// error-diagnostic and user-specific responses.
func addNeverCacheHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "max-age=0, no-cache, no-store, must-revalidate, private")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Expires", "0")
}

// addVaryCookie keeps intermediate caches from serving cookie-dependent
// content across sessions.
func addVaryCookie(w http.ResponseWriter) {
	w.Header().Add("Vary", "Cookie")
}

// redirectedFromCookie carries the one-time "redirected from" notice across
// the permanent redirect.
const redirectedFromCookie = "wiki-redirected-from"

func setRedirectedFrom(w http.ResponseWriter, from string) {
	http.SetCookie(w, &http.Cookie{
		Name:     redirectedFromCookie,
		Value:    from,
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
	})
}

// popRedirectedFrom reads and clears the redirect notice.
func popRedirectedFrom(w http.ResponseWriter, r *http.Request) string {
	c, err := r.Cookie(redirectedFromCookie)
	if err != nil || c.Value == "" {
		return ""
	}
	http.SetCookie(w, &http.Cookie{Name: redirectedFromCookie, Path: "/", MaxAge: -1})
	return c.Value
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return accept == "application/json" || r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}
