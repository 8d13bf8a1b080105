package server

import (
	"html/template"
	"net/http"

	"github.com/chojar/kuma/internal/wiki"
)

// pageTemplate is the document page shell. The stored HTML hunks are
// already-rendered wiki content, so they pass through unescaped.
var pageTemplate = template.Must(template.New("document").Funcs(template.FuncMap{
	"safe": func(s string) template.HTML { return template.HTML(s) },
}).Parse(`<!DOCTYPE html>
<html lang="{{.Page.Document.Locale}}">
<head>
<meta charset="utf-8">
<title>{{.Page.Document.Title}}{{.Page.SEOParentTitle}}</title>
{{if .Page.SEOSummary}}<meta name="description" content="{{.Page.SEOSummary}}">{{end}}
</head>
<body data-slug="{{.Page.Document.Slug}}" data-revision="{{.Page.AnalyticsPageRevision}}" data-en-slug="{{.Page.AnalyticsEnSlug}}">
{{if .RedirectedFrom}}<div class="notice wiki-redirect">Redirected from <a href="{{.RedirectedFrom}}?redirect=no">{{.RedirectedFrom}}</a></div>{{end}}
{{if eq .Page.FallbackReason "no_translation"}}<div class="notice fallback">This page is not available in your language yet.</div>
{{else if eq .Page.FallbackReason "translation_not_approved"}}<div class="notice fallback">The translation of this page is awaiting review.</div>
{{else if eq .Page.FallbackReason "no_content"}}<div class="notice fallback">This page has no approved content yet.</div>{{end}}
{{if .Page.RenderRawFallback}}<div class="notice render-fallback">Showing unrendered content while the renderer is unavailable.</div>{{end}}
{{range .Page.RenderErrors}}<div class="notice render-error">{{.Name}}: {{.Message}}</div>{{end}}
<h1>{{.Page.Document.Title}}</h1>
{{if .Page.TOCHTML}}<nav class="toc"><ol>{{safe .Page.TOCHTML}}</ol></nav>{{end}}
<main id="wikiArticle">{{safe .Page.DocumentHTML}}</main>
{{if .Page.QuickLinksHTML}}<aside class="quick-links">{{safe .Page.QuickLinksHTML}}</aside>{{end}}
{{if .Page.HasContributors}}<footer class="contributors">
<span>{{.Page.ContributorsCount}} contributors:</span>
<ul>{{range $i, $c := .Page.Contributors}}{{if lt $i $.Page.ContributorsLimit}}<li>{{$c}}</li>{{end}}{{end}}</ul>
</footer>{{end}}
{{if .Page.OtherTranslations}}<nav class="translations"><ul>
{{range .Page.OtherTranslations}}<li><a href="{{.URL}}" hreflang="{{.Locale}}">{{.Title}}</a></li>{{end}}
</ul></nav>{{end}}
</body>
</html>
`))

type pageData struct {
	Page           *wiki.PageContext
	RedirectedFrom string
}

// renderPage writes the HTML document view.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, page *wiki.PageContext) {
	data := pageData{
		Page:           page,
		RedirectedFrom: popRedirectedFrom(w, r),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, data); err != nil {
		logError(r, "render page template", err)
	}
}
