package wiki

import (
	"context"
	"errors"
	"fmt"
)

// Experiment is one configured content experiment. Pages maps
// "{locale}:{slug}" keys to variant-name → variant-slug tables. The set of
// experiments is loaded once at startup and never mutated afterwards.
type Experiment struct {
	ID     string                       `yaml:"id"`
	GAName string                       `yaml:"ga_name"`
	Param  string                       `yaml:"param"`
	Pages  map[string]map[string]string `yaml:"pages"`
}

// ExperimentInfo describes the experiment state of one request, for
// analytics and UI.
type ExperimentInfo struct {
	ID               string            `json:"id"`
	GAName           string            `json:"gaName"`
	Param            string            `json:"param"`
	OriginalPath     string            `json:"originalPath"`
	Variants         map[string]string `json:"variants"`
	Selected         string            `json:"selected,omitempty"`
	SelectionIsValid bool              `json:"selectionIsValid"`
}

// ExperimentSelector swaps in A/B variant documents for pages under a
// content experiment.
type ExperimentSelector struct {
	store       Store
	experiments []Experiment
}

// NewExperimentSelector builds a selector over the immutable experiment
// configuration.
func NewExperimentSelector(store Store, experiments []Experiment) *ExperimentSelector {
	return &ExperimentSelector{store: store, experiments: experiments}
}

// Select resolves the experiment variant for doc. When doc is not under any
// experiment the info result is nil. When it is, the requested variant (the
// experiment's query param) is validated against the declared variant names
// and the variant document must exist in the same locale; anything else
// falls back to the original document with SelectionIsValid false.
func (s *ExperimentSelector) Select(ctx context.Context, doc *Document, path string, param func(string) string) (*Document, *ExperimentInfo, error) {
	key := doc.Locale + ":" + doc.Slug
	for _, exp := range s.experiments {
		variants, ok := exp.Pages[key]
		if !ok {
			continue
		}
		info := &ExperimentInfo{
			ID:           exp.ID,
			GAName:       exp.GAName,
			Param:        exp.Param,
			OriginalPath: path,
			Variants:     variants,
		}
		selected := param(exp.Param)
		if selected == "" {
			return doc, info, nil
		}
		variantSlug, declared := variants[selected]
		if !declared {
			return doc, info, nil
		}
		variantDoc, err := s.store.Document(ctx, doc.Locale, variantSlug)
		if errors.Is(err, ErrNotFound) {
			// Declared variant without a backing document.
			return doc, info, nil
		}
		if err != nil {
			return nil, nil, fmt.Errorf("experiment variant %s/%s: %w", doc.Locale, variantSlug, err)
		}
		info.Selected = selected
		info.SelectionIsValid = true
		return variantDoc, info, nil
	}
	return doc, nil, nil
}
