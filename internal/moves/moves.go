// Package moves handles tree-move requests: synchronous conflict detection
// followed by asynchronous submission. The pipeline's responsibility ends at
// submission; completion is tracked by the external move executor.
package moves

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chojar/kuma/internal/wiki"
)

// Job is one queued page-tree move.
type Job struct {
	ID        string    `json:"id"`
	Locale    string    `json:"locale"`
	Slug      string    `json:"slug"`
	NewSlug   string    `json:"newSlug"`
	UserID    int64     `json:"userId"`
	Requested time.Time `json:"requested"`
}

// Queue accepts move jobs for asynchronous execution.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}

// ErrInvalidSlug rejects a move target that is not a plain document slug.
var ErrInvalidSlug = errors.New("moves: invalid target slug")

var slugSegmentRe = regexp.MustCompile(`^[^/$?%+ ]+$`)

// ValidateSlug checks that slug is usable as a move target: non-empty
// segments, no reserved characters, no locale or docs prefix smuggled in.
func ValidateSlug(slug string) error {
	if slug == "" || strings.HasPrefix(slug, "/") || strings.HasSuffix(slug, "/") {
		return ErrInvalidSlug
	}
	if strings.HasPrefix(slug, "docs/") {
		return ErrInvalidSlug
	}
	for _, segment := range strings.Split(slug, "/") {
		if !slugSegmentRe.MatchString(segment) {
			return ErrInvalidSlug
		}
	}
	return nil
}

// Conflicts returns the slugs that moving doc's tree to newSlug would
// collide with: existing non-deleted documents already holding a target
// slug. An empty result means the move may be submitted.
func Conflicts(ctx context.Context, store wiki.Store, doc *wiki.Document, newSlug string) ([]string, error) {
	descendants, err := store.Descendants(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("descendants of %s/%s: %w", doc.Locale, doc.Slug, err)
	}

	targets := []string{newSlug}
	for _, d := range descendants {
		if rest, ok := strings.CutPrefix(d.Slug, doc.Slug+"/"); ok {
			targets = append(targets, newSlug+"/"+rest)
		}
	}

	var conflicts []string
	for _, target := range targets {
		existing, err := store.Document(ctx, doc.Locale, target)
		if errors.Is(err, wiki.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("conflict check %s/%s: %w", doc.Locale, target, err)
		}
		if existing.ID != doc.ID {
			conflicts = append(conflicts, target)
		}
	}
	return conflicts, nil
}

// NewJob builds a move job with a fresh id.
func NewJob(locale, slug, newSlug string, userID int64) Job {
	return Job{
		ID:        uuid.NewString(),
		Locale:    locale,
		Slug:      slug,
		NewSlug:   newSlug,
		UserID:    userID,
		Requested: time.Now().UTC(),
	}
}
