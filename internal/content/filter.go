package content

import (
	"github.com/chojar/kuma/internal/wiki"
)

// Params are the request-driven switches controlling document filtering.
type Params struct {
	Summary       bool
	Raw           bool
	Section       string
	EditLinks     bool
	Include       bool
	Authenticated bool
}

// active reports whether any step needs the parsed tree.
func (p Params) active() bool {
	return p.Section != "" || p.Raw || p.EditLinks || p.Include
}

// Filter applies the content transformations to docHTML in their fixed
// order. Safety filtering runs before section extraction so an extracted
// section is already sanitized; edit links go in after extraction so they
// reference the narrowed section; noinclude stripping is last because it
// works on serialized text.
func Filter(doc *wiki.Document, docHTML string, p Params) (string, error) {
	// A summary request serves the stored summary and nothing else.
	if p.Summary {
		return doc.SummaryHTML, nil
	}

	// Fast path: skip the parse entirely when no step needs it.
	if !p.active() {
		return docHTML, nil
	}

	tool, err := Parse(docHTML)
	if err != nil {
		return "", err
	}

	// Raw views feed editors; anchor every section and strip unsafe markup
	// before anything is handed back.
	if p.Raw {
		tool.InjectSectionIDs()
		tool.FilterEditorSafety()
	}

	if p.Section != "" {
		tool.ExtractSection(p.Section)
	}

	if (p.EditLinks || !p.Raw) && p.Authenticated {
		tool.InjectSectionEditingLinks(doc.Locale, doc.Slug)
	}

	out := tool.Serialize()

	if p.Include {
		out = FilterOutNoinclude(out)
	}
	return out, nil
}
