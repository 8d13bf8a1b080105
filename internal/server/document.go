package server

import (
	"net/http"

	"github.com/chojar/kuma/internal/content"
	"github.com/chojar/kuma/internal/kumascript"
	"github.com/chojar/kuma/internal/observability"
	"github.com/chojar/kuma/internal/wiki"
)

// wikiOnlyParams are understood by the wiki view alone; the API view
// redirects requests carrying any of them to the wiki domain.
var wikiOnlyParams = []string{
	"raw", "summary", "include", "edit_links", "section", "redirect",
	"nocreate", "macros", "nomacros",
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request, locale, slug string) {
	ctx := observability.WithDocument(r.Context(), locale, slug)
	r = r.WithContext(ctx)

	if s.cfg.Mode == "api" && !wantsHTML(r) {
		s.apiDocument(w, r, locale, slug)
		return
	}
	s.wikiDocument(w, r, locale, slug)
}

// wantsHTML lets a JSON-mode deployment still serve HTML to browsers that
// ask for it explicitly.
func wantsHTML(r *http.Request) bool {
	return r.Header.Get("Accept") == "text/html"
}

// wikiDocument serves the HTML document view.
func (s *Server) wikiDocument(w http.ResponseWriter, r *http.Request, locale, slug string) {
	ctx := r.Context()
	user := UserFrom(ctx)
	query := r.URL.Query()
	parts := wiki.SplitSlug(slug)

	doc, fallbackReason, err := s.resolver.Resolve(ctx, locale, slug)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	if doc == nil {
		state, err := s.resolver.CheckDeleted(ctx, locale, slug)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		if state.Deleted {
			s.documentDeleted(w, r, state)
			return
		}

		// Nothing more to say about a HEAD request for a missing page.
		if r.Method == http.MethodHead {
			observability.CountResolution("not_found")
			http.NotFound(w, r)
			return
		}

		fallbackDoc, reason, redirectURL, err := s.resolver.DefaultLocaleFallback(ctx, locale, slug, query)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		if fallbackDoc == nil {
			if query.Has("raw") || query.Has("include") || query.Has("nocreate") || !user.Authenticated {
				observability.CountResolution("not_found")
				http.NotFound(w, r)
				return
			}
			createURL, err := s.resolver.CreateRedirectURL(ctx, locale, slug, parts)
			if err != nil {
				observability.CountResolution("not_found")
				http.NotFound(w, r)
				return
			}
			observability.CountResolution("create")
			addNeverCacheHeaders(w)
			http.Redirect(w, r, createURL, http.StatusFound)
			return
		}
		if redirectURL != "" {
			observability.CountResolution("redirect")
			http.Redirect(w, r, redirectURL, http.StatusFound)
			return
		}
		doc, fallbackReason = fallbackDoc, reason
	}

	// Obey explicit redirect stubs, unless redirect=no lets an editor reach
	// the stub itself.
	if dec := wiki.DecideRedirect(doc, query.Get("redirect") != "no", query); dec != nil {
		observability.CountResolution("redirect")
		setRedirectedFrom(w, s.cfg.BaseURL+dec.From)
		http.Redirect(w, r, dec.URL, http.StatusMovedPermanently)
		return
	}

	params := contentParams(r, user.Authenticated)

	original := doc
	doc, expInfo, err := s.experiments.Select(ctx, doc, r.URL.Path, query.Get)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	if expInfo != nil && query.Get(expInfo.Param) != "" {
		observability.CountExperimentSelection(expInfo.ID, expInfo.SelectionIsValid)
	}

	docHTML, renderErrors, rawFallback := s.pipeline.HTML(ctx, doc, wiki.RenderOptions{
		UseRendered:   kumascript.ShouldUseRendered(s.renderer, doc, query),
		Authenticated: user.Authenticated,
		CacheControl:  r.Header.Get("Cache-Control"),
		BaseURL:       s.cfg.BaseURL,
	})

	var tocHTML string
	if doc.ShowTOC && !params.Raw {
		tocHTML = doc.TOCHTML
	}

	docHTML, err = content.Filter(doc, docHTML, params)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	if fallbackReason != "" {
		observability.CountResolution("fallback")
	} else {
		observability.CountResolution("ok")
	}

	if len(renderErrors) > 0 || user.Authenticated {
		addNeverCacheHeaders(w)
	}
	addVaryCookie(w)
	addRevisionHeader(w, doc)

	if params.Raw {
		s.rawDocument(w, docHTML)
		return
	}

	pageCtx, err := s.assembler.PageContext(ctx, wiki.PageContextInputs{
		Original:       original,
		Document:       doc,
		DocumentHTML:   docHTML,
		TOCHTML:        tocHTML,
		FallbackReason: fallbackReason,
		RenderErrors:   renderErrors,
		RawFallback:    rawFallback,
		Experiment:     expInfo,
		SlugParts:      parts,
	})
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	s.renderPage(w, r, pageCtx)
}

// rawDocument writes bare document HTML, embeddable but never indexed.
func (s *Server) rawDocument(w http.ResponseWriter, docHTML string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Frame-Options", "Allow")
	w.Header().Set("X-Robots-Tag", "noindex")
	_, _ = w.Write([]byte(docHTML))
}

// documentDeleted answers for a soft-deleted page: an opaque 404 for the
// public, the restorable deletion log for privileged callers. Deletion
// metadata never leaks to unprivileged callers.
func (s *Server) documentDeleted(w http.ResponseWriter, r *http.Request, state wiki.DeletionState) {
	observability.CountResolution("deleted")
	user := UserFrom(r.Context())
	if !user.CanRestore {
		http.NotFound(w, r)
		return
	}

	addNeverCacheHeaders(w)
	latest := state.Entries[0]
	s.writeJSON(w, http.StatusNotFound, map[string]any{
		"deleted": true,
		"deletionLog": map[string]any{
			"locale":  latest.Locale,
			"slug":    latest.Slug,
			"user":    latest.User,
			"reason":  latest.Reason,
			"created": latest.Created.UTC().Format("2006-01-02T15:04:05"),
		},
		"restoreURL": "/" + latest.Locale + "/docs/" + latest.Slug + "$restore",
	})
}

type apiDocumentResponse struct {
	DocumentData   *wiki.DocumentData `json:"documentData"`
	RedirectURL    *string            `json:"redirectURL"`
	SEOSummary     string             `json:"seoSummary,omitempty"`
	SEOParentTitle string             `json:"seoParentTitle,omitempty"`
	RobotsMeta     string             `json:"robotsMeta,omitempty"`
}

// apiDocument serves the JSON document payload the API surface is built on.
func (s *Server) apiDocument(w http.ResponseWriter, r *http.Request, locale, slug string) {
	ctx := r.Context()
	query := r.URL.Query()

	for _, p := range wikiOnlyParams {
		if query.Has(p) {
			http.Redirect(w, r, s.cfg.WikiBaseURL+r.URL.RequestURI(), http.StatusFound)
			return
		}
	}

	parts := wiki.SplitSlug(slug)
	doc, fallbackReason, err := s.resolver.Resolve(ctx, locale, slug)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	if doc == nil {
		if r.Method == http.MethodHead {
			observability.CountResolution("not_found")
			http.NotFound(w, r)
			return
		}
		fallbackDoc, reason, redirectURL, err := s.resolver.DefaultLocaleFallback(ctx, locale, slug, query)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		if fallbackDoc == nil {
			// The page may have been soft-deleted under this locale while
			// its source-locale parent lives on.
			if locale != s.resolver.DefaultLocaleName() {
				parentURL, err := s.resolver.DeletedParentRedirect(ctx, locale, slug)
				if err != nil {
					s.serverError(w, r, err)
					return
				}
				if parentURL != "" {
					observability.CountResolution("redirect")
					http.Redirect(w, r, parentURL, http.StatusFound)
					return
				}
			}
			observability.CountResolution("not_found")
			http.NotFound(w, r)
			return
		}
		if redirectURL != "" {
			observability.CountResolution("redirect")
			http.Redirect(w, r, redirectURL, http.StatusFound)
			return
		}
		doc, fallbackReason = fallbackDoc, reason
	}

	// Redirect stubs come back as a payload with a null document so API
	// clients can follow the target themselves.
	if dec := wiki.DecideRedirect(doc, query.Get("redirect") != "no", query); dec != nil {
		observability.CountResolution("redirect")
		s.writeJSON(w, http.StatusOK, wiki.RedirectAPIData(dec.URL))
		return
	}

	data, err := s.assembler.DocumentAPIData(ctx, doc)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	seoParentTitle, err := s.assembler.SEOParentTitle(ctx, doc, parts)
	if err != nil {
		s.serverError(w, r, err)
		return
	}

	if fallbackReason != "" {
		observability.CountResolution("fallback")
	} else {
		observability.CountResolution("ok")
	}

	addRevisionHeader(w, doc)
	s.writeJSON(w, http.StatusOK, apiDocumentResponse{
		DocumentData:   data.DocumentData,
		RedirectURL:    data.RedirectURL,
		SEOSummary:     doc.SummaryText,
		SEOParentTitle: seoParentTitle,
		RobotsMeta:     robotsMeta(doc, fallbackReason),
	})
}

// robotsMeta decides whether search engines may index the page.
func robotsMeta(doc *wiki.Document, fallbackReason string) string {
	index := fallbackReason == "" &&
		doc.HTML != "" &&
		!doc.IsExperiment() &&
		!doc.HasLegacyNamespace() &&
		!doc.HasNoIndexSlug()
	if index {
		return "index, follow"
	}
	return "noindex, nofollow"
}
