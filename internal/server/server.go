// Package server exposes the document pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chojar/kuma/internal/config"
	"github.com/chojar/kuma/internal/content"
	"github.com/chojar/kuma/internal/kumascript"
	"github.com/chojar/kuma/internal/moves"
	"github.com/chojar/kuma/internal/wiki"
)

// Server wires the resolution pipeline to its HTTP surface.
type Server struct {
	cfg         config.ServerConfig
	router      *chi.Mux
	server      *http.Server
	store       wiki.Store
	resolver    *wiki.Resolver
	experiments *wiki.ExperimentSelector
	pipeline    *wiki.RenderPipeline
	renderer    *kumascript.Client
	tree        *wiki.TreeBuilder
	assembler   *wiki.Assembler
	moveQueue   moves.Queue
	auth        *Authenticator
}

// Options bundles the collaborators a Server needs.
type Options struct {
	Config      *config.Config
	Store       wiki.Store
	Renderer    *kumascript.Client
	Experiments []wiki.Experiment
	MoveQueue   moves.Queue
}

// New builds a fully routed server.
func New(opts Options) *Server {
	cfg := opts.Config
	assembler := wiki.NewAssembler(opts.Store, cfg.Locale.Default, cfg.Server.BaseURL, cfg.Server.WikiBaseURL)
	s := &Server{
		cfg:         cfg.Server,
		router:      chi.NewRouter(),
		store:       opts.Store,
		resolver:    wiki.NewResolver(opts.Store, cfg.Locale.Default),
		experiments: wiki.NewExperimentSelector(opts.Store, opts.Experiments),
		pipeline:    wiki.NewRenderPipeline(opts.Renderer),
		renderer:    opts.Renderer,
		tree:        wiki.NewTreeBuilder(opts.Store, assembler),
		assembler:   assembler,
		moveQueue:   opts.MoveQueue,
		auth:        NewAuthenticator(cfg.Auth),
	}
	s.setupRoutes()
	s.server = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(30 * time.Second))
	s.router.Use(s.auth.Middleware)
	s.router.Use(logContextMiddleware)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Lookup-by-title/slug forms.
	s.router.Get("/docs.json", s.handleLookupJSON)
	s.router.Get("/docs.toc", s.handleLookupTOC)

	// Document paths. The slug is hierarchical, so everything after /docs/
	// is captured and the $-suffixed endpoints are dispatched by hand.
	s.router.Route("/{locale}/docs", func(r chi.Router) {
		r.Get("/*", s.dispatchDocumentGet)
		r.Head("/*", s.dispatchDocumentGet)
		r.Post("/*", s.dispatchDocumentPost)
	})
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler { return s.router }

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// dispatchDocumentGet fans a document path out to the view endpoints.
func (s *Server) dispatchDocumentGet(w http.ResponseWriter, r *http.Request) {
	locale := chi.URLParam(r, "locale")
	rest := chi.URLParam(r, "*")

	slug, endpoint, _ := strings.Cut(rest, "$")
	if slug == "" {
		http.NotFound(w, r)
		return
	}

	switch endpoint {
	case "":
		s.handleDocument(w, r, locale, slug)
	case "children":
		s.handleChildren(w, r, locale, slug)
	case "json":
		s.handleJSON(w, r, locale, slug)
	case "toc":
		s.handleTOC(w, r, locale, slug)
	case "move":
		s.handleMoveForm(w, r, locale, slug)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) dispatchDocumentPost(w http.ResponseWriter, r *http.Request) {
	locale := chi.URLParam(r, "locale")
	rest := chi.URLParam(r, "*")

	slug, endpoint, _ := strings.Cut(rest, "$")
	if slug == "" {
		http.NotFound(w, r)
		return
	}

	switch endpoint {
	case "subscribe":
		s.handleSubscribe(w, r, locale, slug, false)
	case "subscribe_tree":
		s.handleSubscribe(w, r, locale, slug, true)
	case "move":
		s.handleMoveSubmit(w, r, locale, slug)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	logError(r, "internal error", err)
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

// contentParams reads the request-driven filtering switches.
func contentParams(r *http.Request, authenticated bool) content.Params {
	q := r.URL.Query()
	return content.Params{
		Summary:       q.Has("summary"),
		Raw:           q.Has("raw"),
		Section:       q.Get("section"),
		EditLinks:     q.Has("edit_links"),
		Include:       q.Has("include"),
		Authenticated: authenticated,
	}
}
