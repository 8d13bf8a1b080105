package server

import (
	"errors"
	"net/http"

	"github.com/chojar/kuma/internal/wiki"
)

// handleSubscribe toggles edit notifications for the caller on a document,
// or on its whole subtree. The subscription bookkeeping itself belongs to
// the notification subsystem; this endpoint only flips the switch.
func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request, locale, slug string, tree bool) {
	ctx := r.Context()
	user := UserFrom(ctx)
	if !user.Authenticated {
		http.Error(w, "authentication required", http.StatusUnauthorized)
		return
	}

	doc, err := s.store.Document(ctx, locale, slug)
	if errors.Is(err, wiki.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	subscribed, err := s.store.ToggleSubscription(ctx, user.Username, doc.Locale, doc.Slug, tree)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	status := 0
	if subscribed {
		status = 1
	}
	addNeverCacheHeaders(w)
	if wantsJSON(r) {
		s.writeJSON(w, http.StatusOK, map[string]int{"status": status})
		return
	}
	http.Redirect(w, r, doc.URL(), http.StatusFound)
}
