package wiki

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildSortsChildrenByTitle(t *testing.T) {
	root := approvedDoc(1, "en-US", "Web")
	zebra := approvedDoc(2, "en-US", "Web/Zebra")
	zebra.Title = "Zebra"
	alpha := approvedDoc(3, "en-US", "Web/Alpha")
	alpha.Title = "Alpha"

	store := newFakeStore(root, zebra, alpha)
	store.children[1] = []*Document{zebra, alpha}

	node, err := NewTreeBuilder(store, testAssembler(store)).Build(context.Background(), root, 0, MaxTreeDepth, false)
	require.NoError(t, err)
	require.Len(t, node.Subpages, 2)
	require.Equal(t, "Alpha", node.Subpages[0].Title)
	require.Equal(t, "Zebra", node.Subpages[1].Title)
	require.Equal(t, "/en-US/docs/Web/Alpha", node.Subpages[0].URL)
}

func TestBuildOmitsRedirects(t *testing.T) {
	stub := redirectStub("en-US", "Old", "/en-US/docs/New")

	stubStore := newFakeStore(stub)
	node, err := NewTreeBuilder(stubStore, testAssembler(stubStore)).Build(context.Background(), stub, 0, MaxTreeDepth, false)
	require.NoError(t, err)
	require.Nil(t, node)

	root := approvedDoc(1, "en-US", "Web")
	child := approvedDoc(2, "en-US", "Web/Keep")
	store := newFakeStore(root, child, stub)
	store.children[1] = []*Document{stub, child}

	node, err = NewTreeBuilder(store, testAssembler(store)).Build(context.Background(), root, 0, MaxTreeDepth, false)
	require.NoError(t, err)
	require.Len(t, node.Subpages, 1)
	require.Equal(t, "Web/Keep", node.Subpages[0].Slug)
}

func TestBuildClampsDepth(t *testing.T) {
	store := newFakeStore()
	docs := make([]*Document, 8)
	slug := "Root"
	for i := range docs {
		docs[i] = approvedDoc(int64(i+1), "en-US", slug)
		store.add(docs[i])
		if i > 0 {
			store.children[docs[i-1].ID] = []*Document{docs[i]}
		}
		slug += "/Sub"
	}

	node, err := NewTreeBuilder(store, testAssembler(store)).Build(context.Background(), docs[0], 0, 100, false)
	require.NoError(t, err)

	depth := 0
	for len(node.Subpages) > 0 {
		node = node.Subpages[0]
		depth++
	}
	require.Equal(t, MaxTreeDepth, depth)
}

func TestBuildExpand(t *testing.T) {
	root := approvedDoc(1, "en-US", "Web")
	root.SummaryHTML = "<p>About the web.</p>"
	root.BodyHTML = "<p>The web.</p>"
	child := approvedDoc(2, "en-US", "Web/HTTP")
	child.Title = "HTTP"
	store := newFakeStore(root, child)
	store.children[1] = []*Document{child}

	node, err := NewTreeBuilder(store, testAssembler(store)).Build(context.Background(), root, 0, MaxTreeDepth, true)
	require.NoError(t, err)
	require.NotNil(t, node.DocumentData)
	require.Equal(t, "<p>About the web.</p>", node.Summary)
	require.Equal(t, "<p>The web.</p>", node.BodyHTML)
	require.NotNil(t, node.LastModified)
	require.Equal(t, "2024-05-01T12:00:00", *node.LastModified)
	require.Len(t, node.Subpages, 1)
	require.NotNil(t, node.Subpages[0].DocumentData)
	require.Equal(t, "Web/HTTP", node.Subpages[0].DocumentData.Slug)

	node, err = NewTreeBuilder(store, testAssembler(store)).Build(context.Background(), root, 0, MaxTreeDepth, false)
	require.NoError(t, err)
	require.Nil(t, node.DocumentData)
	require.Nil(t, node.Subpages[0].DocumentData)
}

func TestTreeNodeJSONFlattensPayload(t *testing.T) {
	root := approvedDoc(1, "en-US", "Web")
	root.BodyHTML = "<p>The web.</p>"
	store := newFakeStore(root)

	node, err := NewTreeBuilder(store, testAssembler(store)).Build(context.Background(), root, 0, 0, true)
	require.NoError(t, err)

	raw, err := json.Marshal(node)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, "Web", decoded["slug"])
	require.Equal(t, "<p>The web.</p>", decoded["bodyHTML"])
	require.Equal(t, "2024-05-01T12:00:00", decoded["lastModified"])
}
