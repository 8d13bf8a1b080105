package content

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// editorPolicy keeps the markup an editor legitimately produces while
// stripping script vectors. Anchor ids must survive so section extraction
// still works on sanitized content.
var editorPolicy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("id", "name", "class").Globally()
	p.AllowAttrs("style").Globally()
	p.AllowDataAttributes()
	p.AllowTables()
	p.AllowImages()
	p.AllowLists()
	return p
}()

// FilterEditorSafety neutralizes editor-unsafe markup: event-handler
// attributes and scriptable URL schemes go first, then the whole fragment is
// run through the sanitizer policy and re-parsed in place.
func (t *Tool) FilterEditorSafety() *Tool {
	walk(t.container, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		kept := n.Attr[:0]
		for _, a := range n.Attr {
			if strings.HasPrefix(strings.ToLower(a.Key), "on") {
				continue
			}
			if (a.Key == "href" || a.Key == "src" || a.Key == "action") && unsafeScheme(a.Val) {
				continue
			}
			kept = append(kept, a)
		}
		n.Attr = kept
		return true
	})

	sanitized := editorPolicy.Sanitize(t.Serialize())
	clean, err := Parse(sanitized)
	if err != nil {
		// Sanitizer output always reparses; leave the tree as filtered
		// above if it somehow does not.
		return t
	}
	t.container = clean.container
	return t
}

func unsafeScheme(val string) bool {
	v := strings.ToLower(strings.TrimSpace(val))
	return strings.HasPrefix(v, "javascript:") || strings.HasPrefix(v, "vbscript:")
}
