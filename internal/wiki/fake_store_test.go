package wiki

import (
	"context"
	"time"
)

// fakeStore is an in-memory Store for pipeline tests.
type fakeStore struct {
	docs         map[string]*Document // "{locale}:{slug}"
	byTitle      map[string]*Document // "{locale}:{title}"
	translations map[int64][]*Document
	children     map[int64][]*Document
	parents      map[int64][]*Document
	contributors map[int64][]string
	deletionLog  map[string][]DeletionLogEntry
	deletedDocs  map[string][]*Document
	subscribed   map[string]bool
}

func newFakeStore(docs ...*Document) *fakeStore {
	s := &fakeStore{
		docs:         map[string]*Document{},
		byTitle:      map[string]*Document{},
		translations: map[int64][]*Document{},
		children:     map[int64][]*Document{},
		parents:      map[int64][]*Document{},
		contributors: map[int64][]string{},
		deletionLog:  map[string][]DeletionLogEntry{},
		deletedDocs:  map[string][]*Document{},
		subscribed:   map[string]bool{},
	}
	for _, d := range docs {
		s.add(d)
	}
	return s
}

func (s *fakeStore) add(d *Document) {
	s.docs[d.Locale+":"+d.Slug] = d
	s.byTitle[d.Locale+":"+d.Title] = d
}

func (s *fakeStore) Document(_ context.Context, locale, slug string) (*Document, error) {
	d, ok := s.docs[locale+":"+slug]
	if !ok {
		return nil, ErrNotFound
	}
	return d, nil
}

func (s *fakeStore) DocumentByTitle(_ context.Context, locale, title string) (*Document, error) {
	d, ok := s.byTitle[locale+":"+title]
	if !ok || d.CurrentRevision == nil {
		return nil, ErrNotFound
	}
	return d, nil
}

func (s *fakeStore) TranslatedTo(_ context.Context, doc *Document, locale string) (*Document, error) {
	for _, t := range s.translations[doc.ID] {
		if t.Locale == locale {
			return t, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) Translations(_ context.Context, doc *Document) ([]*Document, error) {
	return s.translations[doc.ID], nil
}

func (s *fakeStore) Children(_ context.Context, doc *Document) ([]*Document, error) {
	return s.children[doc.ID], nil
}

func (s *fakeStore) Descendants(ctx context.Context, doc *Document) ([]*Document, error) {
	var all []*Document
	for _, c := range s.children[doc.ID] {
		all = append(all, c)
		sub, _ := s.Descendants(ctx, c)
		all = append(all, sub...)
	}
	return all, nil
}

func (s *fakeStore) Parents(_ context.Context, doc *Document) ([]*Document, error) {
	return s.parents[doc.ID], nil
}

func (s *fakeStore) Contributors(_ context.Context, doc *Document) ([]string, error) {
	return s.contributors[doc.ID], nil
}

func (s *fakeStore) DeletionLog(_ context.Context, locale, slug string) ([]DeletionLogEntry, error) {
	return s.deletionLog[locale+":"+slug], nil
}

func (s *fakeStore) DeletedDocuments(_ context.Context, locale, slug string) ([]*Document, error) {
	return s.deletedDocs[locale+":"+slug], nil
}

func (s *fakeStore) StaleDocuments(_ context.Context, _ time.Duration, _ int) ([]*Document, error) {
	return nil, nil
}

func (s *fakeStore) UpdateRendered(_ context.Context, _ int64, _ string, _ time.Time) error {
	return nil
}

func (s *fakeStore) ToggleSubscription(_ context.Context, user, locale, slug string, tree bool) (bool, error) {
	key := user + ":" + locale + ":" + slug
	if tree {
		key += ":tree"
	}
	s.subscribed[key] = !s.subscribed[key]
	return s.subscribed[key], nil
}
