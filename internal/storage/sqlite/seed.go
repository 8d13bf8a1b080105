package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/chojar/kuma/internal/wiki"
)

// The write surface below belongs to the external editing subsystem in
// production. It lives here so fixtures, tests and the import tooling can
// populate a store.

// CreateDocument inserts doc and returns its id. Parent and parent-topic
// links come from ParentID/ParentTopicID; no revision is attached.
func (s *Store) CreateDocument(ctx context.Context, doc *wiki.Document) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var parentID, parentTopicID any
	if doc.ParentID != 0 {
		parentID = doc.ParentID
	}
	if doc.ParentTopicID != 0 {
		parentTopicID = doc.ParentTopicID
	}
	var renderedAt any
	if !doc.RenderedAt.IsZero() {
		renderedAt = doc.RenderedAt.Unix()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (locale, slug, title, html, rendered_html, rendered_at,
			body_html, toc_html, summary_html, summary_text, quick_links_html,
			is_redirect, is_localizable, show_toc, deleted, parent_id, parent_topic_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.Locale, doc.Slug, doc.Title, doc.HTML, doc.RenderedHTML, renderedAt,
		doc.BodyHTML, doc.TOCHTML, doc.SummaryHTML, doc.SummaryText, doc.QuickLinksHTML,
		doc.IsRedirect, doc.IsLocalizable, doc.ShowTOC, doc.Deleted, parentID, parentTopicID)
	if err != nil {
		return 0, fmt.Errorf("insert document %s/%s: %w", doc.Locale, doc.Slug, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("document id: %w", err)
	}
	doc.ID = id
	return id, nil
}

// CreateRevision inserts rev for its document and makes it the document's
// current revision.
func (s *Store) CreateRevision(ctx context.Context, rev *wiki.Revision) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	created := rev.Created
	if created.IsZero() {
		created = time.Now()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO revisions (document_id, creator_id, creator_username, creator_active,
			created, toc_depth, translation_age, localization_in_progress)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rev.DocumentID, rev.CreatorID, rev.CreatorUsername, rev.CreatorActive,
		created.Unix(), rev.TOCDepth, rev.TranslationAge, rev.LocalizationInProgress)
	if err != nil {
		return 0, fmt.Errorf("insert revision for document %d: %w", rev.DocumentID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("revision id: %w", err)
	}
	rev.ID = id

	if _, err := s.db.ExecContext(ctx,
		"UPDATE documents SET current_revision_id = ? WHERE id = ?",
		id, rev.DocumentID); err != nil {
		return 0, fmt.Errorf("set current revision: %w", err)
	}
	return id, nil
}

// SoftDelete marks the document at (locale, slug) deleted and appends a
// deletion-log entry.
func (s *Store) SoftDelete(ctx context.Context, locale, slug, user, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx,
		"UPDATE documents SET deleted = 1 WHERE locale = ? AND slug = ? AND deleted = 0",
		locale, slug); err != nil {
		return fmt.Errorf("soft delete %s/%s: %w", locale, slug, err)
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO deletion_log (locale, slug, user, reason, created) VALUES (?, ?, ?, ?, ?)",
		locale, slug, user, reason, time.Now().Unix()); err != nil {
		return fmt.Errorf("log deletion %s/%s: %w", locale, slug, err)
	}
	return nil
}

// LogDeletion appends a deletion-log entry without touching any document,
// for the case where the document row was purged outright.
func (s *Store) LogDeletion(ctx context.Context, locale, slug, user, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO deletion_log (locale, slug, user, reason, created) VALUES (?, ?, ?, ?, ?)",
		locale, slug, user, reason, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("log deletion %s/%s: %w", locale, slug, err)
	}
	return nil
}
