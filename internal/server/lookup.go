package server

import (
	"errors"
	"net/http"

	"github.com/chojar/kuma/internal/wiki"
)

// lookupDocument finds an approved document by the ?title= or ?slug= query
// form. A request with neither parameter is a BadRequest.
func (s *Server) lookupDocument(w http.ResponseWriter, r *http.Request) (*wiki.Document, bool) {
	ctx := r.Context()
	query := r.URL.Query()

	locale := query.Get("locale")
	if locale == "" {
		locale = s.resolver.DefaultLocaleName()
	}

	var doc *wiki.Document
	var err error
	switch {
	case query.Get("title") != "":
		doc, err = s.store.DocumentByTitle(ctx, locale, query.Get("title"))
	case query.Get("slug") != "":
		doc, err = s.store.Document(ctx, locale, query.Get("slug"))
	default:
		http.Error(w, "title or slug parameter required", http.StatusBadRequest)
		return nil, false
	}

	if errors.Is(err, wiki.ErrNotFound) {
		http.NotFound(w, r)
		return nil, false
	}
	if err != nil {
		s.serverError(w, r, err)
		return nil, false
	}
	if doc.CurrentRevision == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return doc, true
}

// handleLookupJSON serves the document summary payload for the query form.
func (s *Server) handleLookupJSON(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.lookupDocument(w, r)
	if !ok {
		return
	}
	s.respondJSONData(w, r, doc)
}

// handleJSON serves the document summary payload for the path form.
func (s *Server) handleJSON(w http.ResponseWriter, r *http.Request, locale, slug string) {
	doc, err := s.store.Document(r.Context(), locale, slug)
	if errors.Is(err, wiki.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if doc.CurrentRevision == nil {
		http.NotFound(w, r)
		return
	}
	s.respondJSONData(w, r, doc)
}

func (s *Server) respondJSONData(w http.ResponseWriter, r *http.Request, doc *wiki.Document) {
	// A logged-in shift-reload (Cache-Control: no-cache) demands data that
	// was not served from any cache.
	stale := true
	user := UserFrom(r.Context())
	if user.Authenticated && r.Header.Get("Cache-Control") == "no-cache" {
		stale = false
	}

	data, err := s.assembler.DocumentAPIData(r.Context(), doc)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if !stale {
		addNeverCacheHeaders(w)
	}
	addRevisionHeader(w, doc)
	s.writeJSON(w, http.StatusOK, data.DocumentData)
}

// handleLookupTOC serves the TOC fragment for the query form.
func (s *Server) handleLookupTOC(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.lookupDocument(w, r)
	if !ok {
		return
	}
	writeTOC(w, doc)
}

// handleTOC serves the TOC fragment for the path form.
func (s *Server) handleTOC(w http.ResponseWriter, r *http.Request, locale, slug string) {
	doc, err := s.store.Document(r.Context(), locale, slug)
	if errors.Is(err, wiki.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if doc.CurrentRevision == nil {
		http.NotFound(w, r)
		return
	}
	writeTOC(w, doc)
}

func writeTOC(w http.ResponseWriter, doc *wiki.Document) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Robots-Tag", "noindex")
	if doc.TOCHTML == "" {
		return
	}
	_, _ = w.Write([]byte("<ol>" + doc.TOCHTML + "</ol>"))
}
