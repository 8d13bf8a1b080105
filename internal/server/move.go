package server

import (
	"errors"
	"net/http"

	"github.com/chojar/kuma/internal/moves"
	"github.com/chojar/kuma/internal/observability"
	"github.com/chojar/kuma/internal/wiki"
)

// handleMoveForm returns the context a move form needs: the document, how
// big its subtree is, and the slug segment being renamed.
func (s *Server) handleMoveForm(w http.ResponseWriter, r *http.Request, locale, slug string) {
	ctx := r.Context()
	user := UserFrom(ctx)
	if !user.CanMove {
		http.Error(w, "forbidden", http.StatusForbidden)
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

	descendants, err := s.store.Descendants(ctx, doc)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	addNeverCacheHeaders(w)
	w.Header().Set("X-Robots-Tag", "noindex")
	s.writeJSON(w, http.StatusOK, map[string]any{
		"document": map[string]any{
			"locale": doc.Locale,
			"slug":   doc.Slug,
			"title":  doc.Title,
			"url":    doc.URL(),
		},
		"descendantsCount": len(descendants),
		"specificSlug":     wiki.SplitSlug(doc.Slug).Specific,
	})
}

// handleMoveSubmit validates a move target, reports structural conflicts
// without moving anything, or hands the move to the async executor. The
// request's responsibility ends at submission.
func (s *Server) handleMoveSubmit(w http.ResponseWriter, r *http.Request, locale, slug string) {
	ctx := r.Context()
	user := UserFrom(ctx)
	if !user.CanMove {
		http.Error(w, "forbidden", http.StatusForbidden)
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

	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return
	}
	newSlug := r.PostForm.Get("slug")
	if err := moves.ValidateSlug(newSlug); err != nil {
		http.Error(w, "invalid target slug", http.StatusBadRequest)
		return
	}

	conflicts, err := moves.Conflicts(ctx, s.store, doc, newSlug)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	addNeverCacheHeaders(w)
	if len(conflicts) > 0 {
		s.writeJSON(w, http.StatusOK, map[string]any{
			"moveRequested": false,
			"conflicts":     conflicts,
		})
		return
	}

	job := moves.NewJob(doc.Locale, doc.Slug, newSlug, user.ID)
	if err := s.moveQueue.Enqueue(ctx, job); err != nil {
		s.serverError(w, r, err)
		return
	}
	observability.InfoContext(ctx, "page move submitted")
	s.writeJSON(w, http.StatusOK, map[string]any{
		"moveRequested": true,
		"jobId":         job.ID,
	})
}
