// Package sqlite implements the wiki document store on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/chojar/kuma/internal/wiki"
)

// Store implements wiki.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite-backed document store. Use ":memory:" for an
// in-memory database, or a file path for persistent storage.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		locale TEXT NOT NULL,
		slug TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		html TEXT NOT NULL DEFAULT '',
		rendered_html TEXT NOT NULL DEFAULT '',
		rendered_at INTEGER,
		body_html TEXT NOT NULL DEFAULT '',
		toc_html TEXT NOT NULL DEFAULT '',
		summary_html TEXT NOT NULL DEFAULT '',
		summary_text TEXT NOT NULL DEFAULT '',
		quick_links_html TEXT NOT NULL DEFAULT '',
		is_redirect INTEGER NOT NULL DEFAULT 0,
		is_localizable INTEGER NOT NULL DEFAULT 1,
		show_toc INTEGER NOT NULL DEFAULT 1,
		deleted INTEGER NOT NULL DEFAULT 0,
		parent_id INTEGER,
		parent_topic_id INTEGER,
		current_revision_id INTEGER
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_documents_locale_slug
		ON documents(locale, slug) WHERE deleted = 0;
	CREATE INDEX IF NOT EXISTS idx_documents_parent ON documents(parent_id);
	CREATE INDEX IF NOT EXISTS idx_documents_parent_topic ON documents(parent_topic_id);

	CREATE TABLE IF NOT EXISTS revisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		document_id INTEGER NOT NULL,
		creator_id INTEGER NOT NULL DEFAULT 0,
		creator_username TEXT NOT NULL DEFAULT '',
		creator_active INTEGER NOT NULL DEFAULT 1,
		created INTEGER NOT NULL,
		toc_depth INTEGER NOT NULL DEFAULT 1,
		translation_age INTEGER NOT NULL DEFAULT 0,
		localization_in_progress INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_revisions_document ON revisions(document_id);

	CREATE TABLE IF NOT EXISTS deletion_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		locale TEXT NOT NULL,
		slug TEXT NOT NULL,
		user TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '',
		created INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_deletion_log_locale_slug ON deletion_log(locale, slug);

	CREATE TABLE IF NOT EXISTS subscriptions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL,
		locale TEXT NOT NULL,
		slug TEXT NOT NULL,
		tree INTEGER NOT NULL DEFAULT 0,
		UNIQUE(username, locale, slug, tree)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

const documentColumns = `id, locale, slug, title, html, rendered_html, rendered_at,
	body_html, toc_html, summary_html, summary_text, quick_links_html,
	is_redirect, is_localizable, show_toc, deleted,
	parent_id, parent_topic_id, current_revision_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*wiki.Document, error) {
	var d wiki.Document
	var renderedAt, parentID, parentTopicID, currentRevisionID sql.NullInt64
	err := row.Scan(
		&d.ID, &d.Locale, &d.Slug, &d.Title, &d.HTML, &d.RenderedHTML, &renderedAt,
		&d.BodyHTML, &d.TOCHTML, &d.SummaryHTML, &d.SummaryText, &d.QuickLinksHTML,
		&d.IsRedirect, &d.IsLocalizable, &d.ShowTOC, &d.Deleted,
		&parentID, &parentTopicID, &currentRevisionID,
	)
	if err != nil {
		return nil, err
	}
	if renderedAt.Valid {
		d.RenderedAt = time.Unix(renderedAt.Int64, 0)
	}
	d.ParentID = parentID.Int64
	d.ParentTopicID = parentTopicID.Int64
	if currentRevisionID.Valid {
		// Revision loaded separately by attach.
		d.CurrentRevision = &wiki.Revision{ID: currentRevisionID.Int64}
	}
	return &d, nil
}

// fetchShallow loads a document row by id without following references.
func (s *Store) fetchShallow(ctx context.Context, id int64) (*wiki.Document, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE id = ?", id)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wiki.ErrNotFound
	}
	return doc, err
}

func (s *Store) fetchRevision(ctx context.Context, id int64) (*wiki.Revision, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, document_id, creator_id, creator_username, creator_active,
			created, toc_depth, translation_age, localization_in_progress
		FROM revisions WHERE id = ?`, id)
	var rev wiki.Revision
	var created int64
	err := row.Scan(&rev.ID, &rev.DocumentID, &rev.CreatorID, &rev.CreatorUsername,
		&rev.CreatorActive, &created, &rev.TOCDepth, &rev.TranslationAge,
		&rev.LocalizationInProgress)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rev.Created = time.Unix(created, 0).UTC()
	return &rev, nil
}

// attach resolves a document's current revision and shallow parent and
// parent-topic references. Shallow copies keep their own references nil so
// traversal stays explicitly bounded at one hop.
func (s *Store) attach(ctx context.Context, doc *wiki.Document) error {
	if doc.CurrentRevision != nil {
		rev, err := s.fetchRevision(ctx, doc.CurrentRevision.ID)
		if err != nil {
			return fmt.Errorf("fetch revision %d: %w", doc.CurrentRevision.ID, err)
		}
		doc.CurrentRevision = rev
	}
	if doc.ParentID != 0 {
		parent, err := s.fetchShallow(ctx, doc.ParentID)
		if err != nil && !errors.Is(err, wiki.ErrNotFound) {
			return fmt.Errorf("fetch parent %d: %w", doc.ParentID, err)
		}
		if parent != nil && parent.CurrentRevision != nil {
			rev, err := s.fetchRevision(ctx, parent.CurrentRevision.ID)
			if err != nil {
				return fmt.Errorf("fetch parent revision: %w", err)
			}
			parent.CurrentRevision = rev
		}
		doc.Parent = parent
	}
	if doc.ParentTopicID != 0 {
		topic, err := s.fetchShallow(ctx, doc.ParentTopicID)
		if err != nil && !errors.Is(err, wiki.ErrNotFound) {
			return fmt.Errorf("fetch parent topic %d: %w", doc.ParentTopicID, err)
		}
		if topic != nil {
			topic.CurrentRevision = nil
		}
		doc.ParentTopic = topic
	}
	return nil
}

// Document implements wiki.Store.
func (s *Store) Document(ctx context.Context, locale, slug string) (*wiki.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE locale = ? AND slug = ? AND deleted = 0",
		locale, slug)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wiki.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query document %s/%s: %w", locale, slug, err)
	}
	if err := s.attach(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// DocumentByTitle implements wiki.Store.
func (s *Store) DocumentByTitle(ctx context.Context, locale, title string) (*wiki.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+` FROM documents
		WHERE locale = ? AND title = ? AND deleted = 0 AND current_revision_id IS NOT NULL`,
		locale, title)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wiki.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query document by title %s/%q: %w", locale, title, err)
	}
	if err := s.attach(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// TranslatedTo implements wiki.Store.
func (s *Store) TranslatedTo(ctx context.Context, doc *wiki.Document, locale string) (*wiki.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE parent_id = ? AND locale = ? AND deleted = 0",
		doc.ID, locale)
	translation, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, wiki.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query translation %d→%s: %w", doc.ID, locale, err)
	}
	if err := s.attach(ctx, translation); err != nil {
		return nil, err
	}
	return translation, nil
}

func (s *Store) queryDocuments(ctx context.Context, query string, args ...any) ([]*wiki.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []*wiki.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	for _, doc := range docs {
		if err := s.attach(ctx, doc); err != nil {
			return nil, err
		}
	}
	return docs, nil
}

// Translations implements wiki.Store.
func (s *Store) Translations(ctx context.Context, doc *wiki.Document) ([]*wiki.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	root := doc.ID
	if doc.ParentID != 0 {
		root = doc.ParentID
	}
	return s.queryDocuments(ctx,
		"SELECT "+documentColumns+` FROM documents
		WHERE deleted = 0 AND (id = ? OR parent_id = ?) AND id != ?
		ORDER BY locale`,
		root, root, doc.ID)
}

// Children implements wiki.Store.
func (s *Store) Children(ctx context.Context, doc *wiki.Document) ([]*wiki.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryDocuments(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE parent_topic_id = ? AND deleted = 0",
		doc.ID)
}

// Descendants implements wiki.Store.
func (s *Store) Descendants(ctx context.Context, doc *wiki.Document) ([]*wiki.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryDocuments(ctx,
		`WITH RECURSIVE tree(id) AS (
			SELECT id FROM documents WHERE parent_topic_id = ? AND deleted = 0
			UNION ALL
			SELECT d.id FROM documents d JOIN tree t ON d.parent_topic_id = t.id
			WHERE d.deleted = 0
		)
		SELECT `+documentColumns+` FROM documents WHERE id IN (SELECT id FROM tree)`,
		doc.ID)
}

// Parents implements wiki.Store. The walk up the topic chain is bounded to
// guard against cycles in the weak-reference graph.
func (s *Store) Parents(ctx context.Context, doc *wiki.Document) ([]*wiki.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	const maxAncestors = 10
	var chain []*wiki.Document
	id := doc.ParentTopicID
	for hops := 0; id != 0 && hops < maxAncestors; hops++ {
		ancestor, err := s.fetchShallow(ctx, id)
		if errors.Is(err, wiki.ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		chain = append([]*wiki.Document{ancestor}, chain...)
		id = ancestor.ParentTopicID
	}
	return chain, nil
}

// Contributors implements wiki.Store.
func (s *Store) Contributors(ctx context.Context, doc *wiki.Document) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT creator_username FROM revisions
		WHERE document_id = ? AND creator_active = 1 AND creator_username != ''
		GROUP BY creator_username ORDER BY MAX(id) DESC`,
		doc.ID)
	if err != nil {
		return nil, fmt.Errorf("query contributors: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan contributor: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeletionLog implements wiki.Store.
func (s *Store) DeletionLog(ctx context.Context, locale, slug string) ([]wiki.DeletionLogEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, locale, slug, user, reason, created FROM deletion_log
		WHERE locale = ? AND slug = ? ORDER BY id DESC`,
		locale, slug)
	if err != nil {
		return nil, fmt.Errorf("query deletion log: %w", err)
	}
	defer rows.Close()

	var entries []wiki.DeletionLogEntry
	for rows.Next() {
		var e wiki.DeletionLogEntry
		var created int64
		if err := rows.Scan(&e.ID, &e.Locale, &e.Slug, &e.User, &e.Reason, &created); err != nil {
			return nil, fmt.Errorf("scan deletion log entry: %w", err)
		}
		e.Created = time.Unix(created, 0).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeletedDocuments implements wiki.Store.
func (s *Store) DeletedDocuments(ctx context.Context, locale, slug string) ([]*wiki.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryDocuments(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE locale = ? AND slug = ? AND deleted = 1 ORDER BY id DESC",
		locale, slug)
}

// StaleDocuments implements wiki.Store.
func (s *Store) StaleDocuments(ctx context.Context, maxAge time.Duration, limit int) ([]*wiki.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := time.Now().Add(-maxAge).Unix()
	return s.queryDocuments(ctx,
		"SELECT "+documentColumns+` FROM documents
		WHERE deleted = 0 AND html != '' AND is_redirect = 0
			AND (rendered_at IS NULL OR rendered_at < ?)
		ORDER BY rendered_at ASC LIMIT ?`,
		cutoff, limit)
}

// UpdateRendered implements wiki.Store.
func (s *Store) UpdateRendered(ctx context.Context, id int64, html string, renderedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"UPDATE documents SET rendered_html = ?, rendered_at = ? WHERE id = ?",
		html, renderedAt.Unix(), id)
	if err != nil {
		return fmt.Errorf("update rendered html %d: %w", id, err)
	}
	return nil
}

// ToggleSubscription implements wiki.Store.
func (s *Store) ToggleSubscription(ctx context.Context, user, locale, slug string, tree bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM subscriptions WHERE username = ? AND locale = ? AND slug = ? AND tree = ?",
		user, locale, slug, tree)
	if err != nil {
		return false, fmt.Errorf("delete subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO subscriptions (username, locale, slug, tree) VALUES (?, ?, ?, ?)",
		user, locale, slug, tree)
	if err != nil {
		return false, fmt.Errorf("insert subscription: %w", err)
	}
	return true, nil
}
