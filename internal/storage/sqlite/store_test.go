package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chojar/kuma/internal/wiki"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedDocument(t *testing.T, store *Store, doc *wiki.Document, creator string) *wiki.Document {
	t.Helper()
	ctx := context.Background()
	_, err := store.CreateDocument(ctx, doc)
	require.NoError(t, err)
	if creator != "" {
		_, err = store.CreateRevision(ctx, &wiki.Revision{
			DocumentID:      doc.ID,
			CreatorUsername: creator,
			CreatorActive:   true,
			Created:         time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
	}
	return doc
}

func TestDocumentRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedDocument(t, store, &wiki.Document{
		Locale:      "en-US",
		Slug:        "Web/CSS",
		Title:       "CSS",
		HTML:        "<h2>Intro</h2>",
		SummaryText: "Styling.",
		ShowTOC:     true,
	}, "alice")

	doc, err := store.Document(ctx, "en-US", "Web/CSS")
	require.NoError(t, err)
	require.Equal(t, "CSS", doc.Title)
	require.Equal(t, "<h2>Intro</h2>", doc.HTML)
	require.True(t, doc.ShowTOC)
	require.NotNil(t, doc.CurrentRevision)
	require.Equal(t, "alice", doc.CurrentRevision.CreatorUsername)
	require.Equal(t, doc.ID, doc.CurrentRevision.DocumentID)

	_, err = store.Document(ctx, "en-US", "Missing")
	require.ErrorIs(t, err, wiki.ErrNotFound)
}

func TestDocumentWithoutRevision(t *testing.T) {
	store := newTestStore(t)
	seedDocument(t, store, &wiki.Document{Locale: "en-US", Slug: "Draft"}, "")

	doc, err := store.Document(context.Background(), "en-US", "Draft")
	require.NoError(t, err)
	require.Nil(t, doc.CurrentRevision)
}

func TestDocumentAttachesParent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	source := seedDocument(t, store, &wiki.Document{Locale: "en-US", Slug: "Web/CSS", Title: "CSS"}, "alice")
	seedDocument(t, store, &wiki.Document{
		Locale: "fr", Slug: "Web/CSS", Title: "CSS (fr)", ParentID: source.ID,
	}, "")

	doc, err := store.Document(ctx, "fr", "Web/CSS")
	require.NoError(t, err)
	require.Nil(t, doc.CurrentRevision)
	require.NotNil(t, doc.Parent)
	require.Equal(t, source.ID, doc.Parent.ID)
	require.NotNil(t, doc.Parent.CurrentRevision, "parent revision drives the fallback reason")
}

func TestDocumentByTitle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedDocument(t, store, &wiki.Document{Locale: "en-US", Slug: "Web/CSS", Title: "CSS"}, "alice")
	seedDocument(t, store, &wiki.Document{Locale: "en-US", Slug: "Drafts/New", Title: "Unapproved"}, "")

	doc, err := store.DocumentByTitle(ctx, "en-US", "CSS")
	require.NoError(t, err)
	require.Equal(t, "Web/CSS", doc.Slug)

	// Documents without an approved revision are not found by title.
	_, err = store.DocumentByTitle(ctx, "en-US", "Unapproved")
	require.ErrorIs(t, err, wiki.ErrNotFound)
}

func TestTranslations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	source := seedDocument(t, store, &wiki.Document{Locale: "en-US", Slug: "Web/CSS"}, "alice")
	fr := seedDocument(t, store, &wiki.Document{Locale: "fr", Slug: "Web/CSS", ParentID: source.ID}, "bob")
	seedDocument(t, store, &wiki.Document{Locale: "de", Slug: "Web/CSS", ParentID: source.ID}, "carol")

	got, err := store.TranslatedTo(ctx, source, "fr")
	require.NoError(t, err)
	require.Equal(t, fr.ID, got.ID)

	_, err = store.TranslatedTo(ctx, source, "ja")
	require.ErrorIs(t, err, wiki.ErrNotFound)

	// The family seen from the source excludes the source itself.
	family, err := store.Translations(ctx, source)
	require.NoError(t, err)
	require.Len(t, family, 2)
	require.Equal(t, "de", family[0].Locale)
	require.Equal(t, "fr", family[1].Locale)

	// Seen from a translation it includes the source and the sibling.
	family, err = store.Translations(ctx, fr)
	require.NoError(t, err)
	require.Len(t, family, 2)
	require.Equal(t, "de", family[0].Locale)
	require.Equal(t, "en-US", family[1].Locale)
}

func TestChildrenAndDescendants(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	root := seedDocument(t, store, &wiki.Document{Locale: "en-US", Slug: "Web"}, "alice")
	child := seedDocument(t, store, &wiki.Document{Locale: "en-US", Slug: "Web/CSS", ParentTopicID: root.ID}, "alice")
	grandchild := seedDocument(t, store, &wiki.Document{Locale: "en-US", Slug: "Web/CSS/color", ParentTopicID: child.ID}, "alice")

	children, err := store.Children(ctx, root)
	require.NoError(t, err)
	require.Len(t, children, 1)
	require.Equal(t, child.ID, children[0].ID)

	descendants, err := store.Descendants(ctx, root)
	require.NoError(t, err)
	require.Len(t, descendants, 2)

	parents, err := store.Parents(ctx, grandchild)
	require.NoError(t, err)
	require.Len(t, parents, 2)
	require.Equal(t, "Web", parents[0].Slug)
	require.Equal(t, "Web/CSS", parents[1].Slug)
}

func TestContributorsOrderedByRecency(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	doc := seedDocument(t, store, &wiki.Document{Locale: "en-US", Slug: "Web/CSS"}, "")
	for _, name := range []string{"alice", "bob", "alice", "carol"} {
		_, err := store.CreateRevision(ctx, &wiki.Revision{
			DocumentID: doc.ID, CreatorUsername: name, CreatorActive: true,
		})
		require.NoError(t, err)
	}
	_, err := store.CreateRevision(ctx, &wiki.Revision{
		DocumentID: doc.ID, CreatorUsername: "banned", CreatorActive: false,
	})
	require.NoError(t, err)

	names, err := store.Contributors(ctx, doc)
	require.NoError(t, err)
	require.Equal(t, []string{"carol", "alice", "bob"}, names)
}

func TestSoftDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	seedDocument(t, store, &wiki.Document{Locale: "en-US", Slug: "Spam"}, "alice")
	require.NoError(t, store.SoftDelete(ctx, "en-US", "Spam", "mod", "spam page"))

	_, err := store.Document(ctx, "en-US", "Spam")
	require.ErrorIs(t, err, wiki.ErrNotFound)

	entries, err := store.DeletionLog(ctx, "en-US", "Spam")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "mod", entries[0].User)
	require.Equal(t, "spam page", entries[0].Reason)

	deleted, err := store.DeletedDocuments(ctx, "en-US", "Spam")
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	require.True(t, deleted[0].Deleted)

	// The slug can be reused after deletion.
	seedDocument(t, store, &wiki.Document{Locale: "en-US", Slug: "Spam", Title: "Fresh"}, "alice")
	doc, err := store.Document(ctx, "en-US", "Spam")
	require.NoError(t, err)
	require.Equal(t, "Fresh", doc.Title)
}

func TestStaleDocumentsAndUpdateRendered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	fresh := seedDocument(t, store, &wiki.Document{
		Locale: "en-US", Slug: "Fresh", HTML: "<p>x</p>",
		RenderedHTML: "<p>x</p>", RenderedAt: time.Now(),
	}, "alice")
	stale := seedDocument(t, store, &wiki.Document{
		Locale: "en-US", Slug: "Stale", HTML: "<p>y</p>",
		RenderedHTML: "<p>old</p>", RenderedAt: time.Now().Add(-48 * time.Hour),
	}, "alice")
	never := seedDocument(t, store, &wiki.Document{
		Locale: "en-US", Slug: "Never", HTML: "<p>z</p>",
	}, "alice")
	seedDocument(t, store, &wiki.Document{Locale: "en-US", Slug: "Empty"}, "alice")

	docs, err := store.StaleDocuments(ctx, 24*time.Hour, 10)
	require.NoError(t, err)
	ids := make([]int64, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
	}
	require.Contains(t, ids, stale.ID)
	require.Contains(t, ids, never.ID)
	require.NotContains(t, ids, fresh.ID)

	require.NoError(t, store.UpdateRendered(ctx, stale.ID, "<p>new</p>", time.Now()))
	docs, err = store.StaleDocuments(ctx, 24*time.Hour, 10)
	require.NoError(t, err)
	for _, d := range docs {
		require.NotEqual(t, stale.ID, d.ID)
	}

	doc, err := store.Document(ctx, "en-US", "Stale")
	require.NoError(t, err)
	require.Equal(t, "<p>new</p>", doc.RenderedHTML)
}

func TestToggleSubscription(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	on, err := store.ToggleSubscription(ctx, "alice", "en-US", "Web/CSS", false)
	require.NoError(t, err)
	require.True(t, on)

	// Page and tree subscriptions are independent.
	on, err = store.ToggleSubscription(ctx, "alice", "en-US", "Web/CSS", true)
	require.NoError(t, err)
	require.True(t, on)

	on, err = store.ToggleSubscription(ctx, "alice", "en-US", "Web/CSS", false)
	require.NoError(t, err)
	require.False(t, on)
}
