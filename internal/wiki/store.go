package wiki

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Store lookups when no matching document exists.
var ErrNotFound = errors.New("wiki: document not found")

// Store is the read surface the pipeline requires from the document storage
// layer. Documents and revisions are created and mutated by an external
// editing subsystem; the pipeline treats them as committed, immutable reads.
type Store interface {
	// Document fetches a non-deleted document by (locale, slug), with its
	// current revision and shallow Parent/ParentTopic references attached.
	Document(ctx context.Context, locale, slug string) (*Document, error)

	// DocumentByTitle fetches a non-deleted document with an approved
	// current revision by (locale, title).
	DocumentByTitle(ctx context.Context, locale, title string) (*Document, error)

	// TranslatedTo returns the translation of doc into locale, or
	// ErrNotFound when no such translation exists.
	TranslatedTo(ctx context.Context, doc *Document, locale string) (*Document, error)

	// Translations returns the other members of doc's translation family,
	// excluding doc itself.
	Translations(ctx context.Context, doc *Document) ([]*Document, error)

	// Children returns the immediate non-deleted descendants of doc.
	Children(ctx context.Context, doc *Document) ([]*Document, error)

	// Descendants returns every non-deleted descendant of doc, to any depth.
	Descendants(ctx context.Context, doc *Document) ([]*Document, error)

	// Parents returns doc's ancestor chain, topmost first, doc excluded.
	Parents(ctx context.Context, doc *Document) ([]*Document, error)

	// Contributors returns usernames of everyone with a revision on doc,
	// most recent contributor first.
	Contributors(ctx context.Context, doc *Document) ([]string, error)

	// DeletionLog returns deletion-log entries for (locale, slug), most
	// recent first. An empty slice means the page never existed as far as
	// the deletion subsystem knows.
	DeletionLog(ctx context.Context, locale, slug string) ([]DeletionLogEntry, error)

	// DeletedDocuments returns soft-deleted documents at (locale, slug).
	DeletedDocuments(ctx context.Context, locale, slug string) ([]*Document, error)

	// StaleDocuments returns up to limit documents whose rendered HTML is
	// older than maxAge, oldest first.
	StaleDocuments(ctx context.Context, maxAge time.Duration, limit int) ([]*Document, error)

	// UpdateRendered stores freshly rendered HTML for a document.
	UpdateRendered(ctx context.Context, id int64, html string, renderedAt time.Time) error

	// ToggleSubscription flips the edit-notification subscription of user
	// on (locale, slug) and reports whether the user is now subscribed.
	// tree toggles the whole-subtree subscription instead.
	ToggleSubscription(ctx context.Context, user, locale, slug string, tree bool) (bool, error)
}
