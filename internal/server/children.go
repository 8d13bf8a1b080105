package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/chojar/kuma/internal/wiki"
)

// handleChildren returns a document's descendants as a JSON tree. Missing
// and moved documents are reported in the body, not via HTTP status, so
// embedding clients get a uniform shape.
func (s *Server) handleChildren(w http.ResponseWriter, r *http.Request, locale, slug string) {
	ctx := r.Context()
	query := r.URL.Query()

	expand := query.Has("expand")
	depth := wiki.MaxTreeDepth
	if v := query.Get("depth"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid depth", http.StatusBadRequest)
			return
		}
		depth = parsed
	}
	if depth > wiki.MaxTreeDepth {
		depth = wiki.MaxTreeDepth
	}

	doc, err := s.store.Document(ctx, locale, slug)
	if errors.Is(err, wiki.ErrNotFound) {
		s.writeJSON(w, http.StatusOK, map[string]string{"error": "Document does not exist."})
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	node, err := s.tree.Build(ctx, doc, 0, depth, expand)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if node == nil {
		s.writeJSON(w, http.StatusOK, map[string]string{"error": "Document has moved."})
		return
	}
	s.writeJSON(w, http.StatusOK, node)
}
