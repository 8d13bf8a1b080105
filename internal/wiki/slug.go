package wiki

import "strings"

// SlugParts is the decomposition of a hierarchical slug.
type SlugParts struct {
	// Parent is everything before the last separator, "" for a root slug.
	Parent string
	// Specific is the last path segment.
	Specific string
	// Length is the number of path segments.
	Length int
	// SEORoot is the ancestor slug used for SEO title chains. Top-level
	// container namespaces ("Web") are too generic on their own, so the
	// root descends one extra level below them.
	SEORoot string
}

// genericSEORoots are top-level segments that carry no SEO value by themselves.
var genericSEORoots = map[string]bool{"Web": true}

// SplitSlug splits a slug on "/" boundaries. It never fails; an empty slug
// yields one empty segment.
func SplitSlug(slug string) SlugParts {
	segments := strings.Split(slug, "/")
	length := len(segments)

	var seoRoot string
	if length > 1 {
		root := segments[0]
		if genericSEORoots[root] {
			if length > 2 {
				seoRoot = root + "/" + segments[1]
			}
		} else {
			seoRoot = root
		}
	}

	specific := segments[length-1]
	parent := strings.Join(segments[:length-1], "/")

	return SlugParts{
		Parent:   parent,
		Specific: specific,
		Length:   length,
		SEORoot:  seoRoot,
	}
}
