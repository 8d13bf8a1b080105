package content

import (
	"strings"

	"golang.org/x/net/html"
)

// FilterOutNoinclude strips blocks marked class="noinclude" from serialized
// HTML. These blocks appear in normal page views but must not survive
// transclusion into another page. The operation is idempotent.
func FilterOutNoinclude(fragment string) string {
	tool, err := Parse(fragment)
	if err != nil {
		return fragment
	}

	var doomed []*html.Node
	walk(tool.container, func(n *html.Node) bool {
		if n.Type == html.ElementNode && hasClass(n, "noinclude") {
			doomed = append(doomed, n)
			return false
		}
		return true
	})
	for _, n := range doomed {
		n.Parent.RemoveChild(n)
	}
	return tool.Serialize()
}

func hasClass(n *html.Node, class string) bool {
	v, ok := getAttr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}
