package wiki

import (
	"context"
	"fmt"
	"sort"
)

// MaxTreeDepth is the hard ceiling on descendant-tree recursion, regardless
// of the depth a caller asks for.
const MaxTreeDepth = 5

// TreeNode is one document in a descendant tree. In expand mode every node
// additionally carries the full document payload, flattened into the node.
type TreeNode struct {
	Title    string      `json:"title"`
	Slug     string      `json:"slug"`
	Locale   string      `json:"locale"`
	URL      string      `json:"url"`
	Subpages []*TreeNode `json:"subpages"`

	*DocumentData
}

// TreeBuilder builds depth-bounded, title-sorted descendant trees.
type TreeBuilder struct {
	store     Store
	assembler *Assembler
}

// NewTreeBuilder creates a builder over store. assembler supplies the
// per-node document payload in expand mode.
func NewTreeBuilder(store Store, assembler *Assembler) *TreeBuilder {
	return &TreeBuilder{store: store, assembler: assembler}
}

// Build returns the subtree rooted at doc, or nil when doc is a redirect
// stub (redirects contribute no node). Recursion stops at min(maxDepth,
// MaxTreeDepth); level is the current depth, 0 at the root. Children are
// sorted by title; a child that is itself a redirect is omitted.
func (b *TreeBuilder) Build(ctx context.Context, doc *Document, level, maxDepth int, expand bool) (*TreeNode, error) {
	if doc.IsRedirect {
		return nil, nil
	}
	if maxDepth > MaxTreeDepth {
		maxDepth = MaxTreeDepth
	}

	node := &TreeNode{
		Title:    doc.Title,
		Slug:     doc.Slug,
		Locale:   doc.Locale,
		URL:      doc.URL(),
		Subpages: []*TreeNode{},
	}
	if expand {
		data, err := b.assembler.DocumentAPIData(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("payload for %s/%s: %w", doc.Locale, doc.Slug, err)
		}
		node.DocumentData = data.DocumentData
	}

	if level < maxDepth {
		children, err := b.store.Children(ctx, doc)
		if err != nil {
			return nil, fmt.Errorf("children of %s/%s: %w", doc.Locale, doc.Slug, err)
		}
		sort.Slice(children, func(i, j int) bool { return children[i].Title < children[j].Title })
		for _, child := range children {
			sub, err := b.Build(ctx, child, level+1, maxDepth, expand)
			if err != nil {
				return nil, err
			}
			if sub != nil {
				node.Subpages = append(node.Subpages, sub)
			}
		}
	}
	return node, nil
}
