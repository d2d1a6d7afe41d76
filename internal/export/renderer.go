package export

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	ghtml "github.com/yuin/goldmark/renderer/html"

	"github.com/goliatone/go-knowledge/internal/document"
	"github.com/goliatone/go-knowledge/internal/domain"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="zh">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{if .StylesheetHref}}<link rel="stylesheet" href="{{.StylesheetHref}}">
{{end}}</head>
<body>
<article class="document document-{{.Kind}}">
<header>
<h1>{{.Title}}</h1>
{{if .PublishedOn}}<p class="published-on"><time datetime="{{.PublishedOn}}">{{.PublishedOn}}</time></p>
{{end}}{{if .Tags}}<ul class="tags">{{range .Tags}}<li>{{.}}</li>{{end}}</ul>
{{end}}{{if .Summary}}<p class="summary">{{.Summary}}</p>
{{end}}</header>
{{.Body}}
</article>
</body>
</html>
`

const indexTemplate = `<!DOCTYPE html>
<html lang="zh">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
{{if .StylesheetHref}}<link rel="stylesheet" href="{{.StylesheetHref}}">
{{end}}</head>
<body>
<main class="document-index">
<h1>{{.Title}}</h1>
<ul>
{{range .Entries}}<li class="document-{{.Kind}}"><a href="{{.Href}}">{{.Title}}</a>{{if .PublishedOn}} <time datetime="{{.PublishedOn}}">{{.PublishedOn}}</time>{{end}}</li>
{{end}}</ul>
</main>
</body>
</html>
`

type pageData struct {
	Title          string
	Kind           string
	Summary        string
	Tags           []string
	PublishedOn    string
	StylesheetHref string
	Body           template.HTML
}

type indexEntry struct {
	Title       string
	Href        string
	Kind        string
	PublishedOn string
}

type indexData struct {
	Title          string
	StylesheetHref string
	Entries        []indexEntry
}

// pageRenderer turns published versions into standalone HTML pages. It is
// stateless after construction so one instance serves a whole export run.
type pageRenderer struct {
	md    goldmark.Markdown
	page  *template.Template
	index *template.Template
	style string
}

func newPageRenderer(styleName string) *pageRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			ghtml.WithXHTML(),
		),
	)
	return &pageRenderer{
		md:    md,
		page:  template.Must(template.New("page").Parse(pageTemplate)),
		index: template.Must(template.New("index").Parse(indexTemplate)),
		style: styleName,
	}
}

// RenderDocument renders one published version into a full HTML page.
func (r *pageRenderer) RenderDocument(version *document.Version, stylesheetHref string) ([]byte, error) {
	body, err := r.convert(composeMarkdown(version))
	if err != nil {
		return nil, fmt.Errorf("export: render %s: %w", version.ID, err)
	}

	data := pageData{
		Title:          version.Title,
		Kind:           string(version.Kind),
		Summary:        version.Summary,
		Tags:           version.Tags,
		StylesheetHref: stylesheetHref,
		Body:           template.HTML(body),
	}
	if version.PublishedAt != nil {
		data.PublishedOn = version.PublishedAt.UTC().Format("2006-01-02")
	}

	var buf bytes.Buffer
	if err := r.page.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("export: page template: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderIndex renders the listing page linking every exported document.
func (r *pageRenderer) RenderIndex(title string, entries []indexEntry, stylesheetHref string) ([]byte, error) {
	var buf bytes.Buffer
	err := r.index.Execute(&buf, indexData{
		Title:          title,
		StylesheetHref: stylesheetHref,
		Entries:        entries,
	})
	if err != nil {
		return nil, fmt.Errorf("export: index template: %w", err)
	}
	return buf.Bytes(), nil
}

// StylesheetCSS emits the chroma stylesheet matching the class-based
// highlighting the renderer produces.
func (r *pageRenderer) StylesheetCSS() ([]byte, error) {
	style := styles.Get(r.style)
	if style == nil {
		style = styles.Fallback
	}
	formatter := chromahtml.New(chromahtml.WithClasses(true))

	var buf bytes.Buffer
	if err := formatter.WriteCSS(&buf, style); err != nil {
		return nil, fmt.Errorf("export: highlight stylesheet: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *pageRenderer) convert(markdown string) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// composeMarkdown flattens a version into one markdown body. Standard
// documents carry it verbatim; emergency documents interleave the populated
// section titles as second-level headings in canonical order.
func composeMarkdown(version *document.Version) string {
	if version == nil {
		return ""
	}
	if version.Kind != domain.KindEmergency {
		return version.Content
	}

	sections := version.SectionList()
	blocks := make([]string, 0, len(sections))
	for _, section := range sections {
		blocks = append(blocks, "## "+section.Title+"\n\n"+strings.TrimSpace(section.Body))
	}
	return strings.Join(blocks, "\n\n")
}
