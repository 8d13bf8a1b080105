// Package content implements the request-scoped HTML transformations applied
// to document content: section anchor ids, section extraction, edit-link
// injection, editor-safety filtering and noinclude stripping. Every call
// builds a fresh mutable tree and discards it after serialization.
package content

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Tool wraps a parsed content fragment for in-place transformation. Methods
// return the receiver so steps can be chained.
type Tool struct {
	container *html.Node
}

// Parse parses an HTML fragment into a mutable tree.
func Parse(fragment string) (*Tool, error) {
	container := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), container)
	if err != nil {
		return nil, err
	}
	for _, n := range nodes {
		container.AppendChild(n)
	}
	return &Tool{container: container}, nil
}

// Serialize renders the tree back to an HTML fragment.
func (t *Tool) Serialize() string {
	var b strings.Builder
	for c := t.container.FirstChild; c != nil; c = c.NextSibling {
		_ = html.Render(&b, c)
	}
	return b.String()
}

var headingLevels = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3, atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

func isHeading(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	_, ok := headingLevels[n.DataAtom]
	return ok
}

func getAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// walk visits every node depth-first. Returning false from fn skips the
// node's children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func textContent(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

// anchorID derives a stable anchor id from heading text: runs of anything
// but letters and digits collapse to single underscores.
func anchorID(text string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.TrimSpace(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r > 127:
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}

// existingIDs collects every id already present in the tree.
func (t *Tool) existingIDs() map[string]bool {
	ids := map[string]bool{}
	walk(t.container, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			if id, ok := getAttr(n, "id"); ok && id != "" {
				ids[id] = true
			}
		}
		return true
	})
	return ids
}

func (t *Tool) ensureHeadingID(n *html.Node, seen map[string]bool) string {
	if id, ok := getAttr(n, "id"); ok && id != "" {
		return id
	}
	if name, ok := getAttr(n, "name"); ok && name != "" {
		setAttr(n, "id", name)
		seen[name] = true
		return name
	}
	base := anchorID(textContent(n))
	if base == "" {
		base = "sect"
	}
	id := base
	for i := 2; seen[id]; i++ {
		id = base + "_" + strconv.Itoa(i)
	}
	setAttr(n, "id", id)
	seen[id] = true
	return id
}

// InjectSectionIDs gives every heading a stable anchor id, preserving ids
// and names already present.
func (t *Tool) InjectSectionIDs() *Tool {
	seen := t.existingIDs()
	walk(t.container, func(n *html.Node) bool {
		if isHeading(n) {
			t.ensureHeadingID(n, seen)
		}
		return true
	})
	return t
}

// ExtractSection narrows the tree to the section identified by id: a heading
// with that id plus everything up to the next heading of the same or a
// higher level, or a single non-heading element carrying the id. An unknown
// id empties the tree.
func (t *Tool) ExtractSection(id string) *Tool {
	var start *html.Node
	walk(t.container, func(n *html.Node) bool {
		if start != nil {
			return false
		}
		if n.Type == html.ElementNode {
			if v, ok := getAttr(n, "id"); ok && v == id {
				start = n
				return false
			}
		}
		return true
	})

	if start == nil {
		t.removeChildren()
		return t
	}

	var section []*html.Node
	if level, heading := headingLevels[start.DataAtom], isHeading(start); heading {
		for n := start; n != nil; n = n.NextSibling {
			if n != start && isHeading(n) && headingLevels[n.DataAtom] <= level {
				break
			}
			section = append(section, n)
		}
	} else {
		section = append(section, start)
	}

	for _, n := range section {
		n.Parent.RemoveChild(n)
	}
	t.removeChildren()
	for _, n := range section {
		t.container.AppendChild(n)
	}
	return t
}

func (t *Tool) removeChildren() {
	for t.container.FirstChild != nil {
		t.container.RemoveChild(t.container.FirstChild)
	}
}

// InjectSectionEditingLinks inserts an inline "edit this section" affordance
// at the front of every heading. Headings without an anchor id get one, so
// the links stay stable.
func (t *Tool) InjectSectionEditingLinks(locale, slug string) *Tool {
	seen := t.existingIDs()
	docURL := "/" + locale + "/docs/" + slug
	walk(t.container, func(n *html.Node) bool {
		if !isHeading(n) {
			return true
		}
		id := t.ensureHeadingID(n, seen)
		link := &html.Node{
			Type:     html.ElementNode,
			Data:     "a",
			DataAtom: atom.A,
			Attr: []html.Attribute{
				{Key: "class", Val: "edit-section"},
				{Key: "data-section-id", Val: id},
				{Key: "data-section-src-url", Val: docURL + "$raw?section=" + id},
				{Key: "href", Val: docURL + "$edit?section=" + id},
			},
		}
		link.AppendChild(&html.Node{Type: html.TextNode, Data: "Edit"})
		n.InsertBefore(link, n.FirstChild)
		return false
	})
	return t
}
