// Package scheduler keeps rendered document HTML fresh in the background, so
// most requests are served from pre-rendered content instead of blocking on
// the remote renderer.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/chojar/kuma/internal/wiki"
)

// renderedUpdater is the slice of the store the refresher writes through.
type renderedUpdater interface {
	StaleDocuments(ctx context.Context, maxAge time.Duration, limit int) ([]*wiki.Document, error)
	UpdateRendered(ctx context.Context, id int64, html string, renderedAt time.Time) error
}

// Scheduler periodically re-renders documents whose cached HTML has gone
// stale.
type Scheduler struct {
	scheduler gocron.Scheduler
	store     renderedUpdater
	renderer  wiki.Renderer
	baseURL   string
	staleAge  time.Duration
	batchSize int
}

// New creates a scheduler re-rendering up to batchSize documents older than
// staleAge on every tick.
func New(store renderedUpdater, renderer wiki.Renderer, baseURL string, staleAge time.Duration, batchSize int) (*Scheduler, error) {
	gs, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create gocron scheduler: %w", err)
	}
	return &Scheduler{
		scheduler: gs,
		store:     store,
		renderer:  renderer,
		baseURL:   baseURL,
		staleAge:  staleAge,
		batchSize: batchSize,
	}, nil
}

// Start schedules the refresh job and begins ticking.
func (s *Scheduler) Start(interval time.Duration) error {
	_, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(s.refresh),
		gocron.WithName("render-refresh"),
	)
	if err != nil {
		return fmt.Errorf("create render-refresh job: %w", err)
	}
	s.scheduler.Start()
	slog.Info("render refresh scheduler started", "interval", interval, "stale_age", s.staleAge)
	return nil
}

// Stop shuts the scheduler down.
func (s *Scheduler) Stop() error {
	return s.scheduler.Shutdown()
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	docs, err := s.store.StaleDocuments(ctx, s.staleAge, s.batchSize)
	if err != nil {
		slog.Error("stale document query failed", "error", err)
		return
	}
	refreshed := 0
	for _, doc := range docs {
		result, err := s.renderer.Render(ctx, doc, "", s.baseURL)
		if err != nil {
			// The request path has its own fallback; leave stale content in
			// place and let the next tick retry.
			slog.Warn("background render failed",
				"locale", doc.Locale, "slug", doc.Slug, "error", err)
			continue
		}
		if result.HTML == "" {
			continue
		}
		if err := s.store.UpdateRendered(ctx, doc.ID, result.HTML, time.Now()); err != nil {
			slog.Error("store rendered html failed",
				"locale", doc.Locale, "slug", doc.Slug, "error", err)
			continue
		}
		refreshed++
	}
	if len(docs) > 0 {
		slog.Debug("render refresh tick", "candidates", len(docs), "refreshed", refreshed)
	}
}
