// Package render — HTML renderer.
// Renders the assembled Markdown transcript as a standalone HTML page with
// goldmark, for previewing a transcript in a browser.
package render

import (
	"bytes"
	"fmt"
	stdhtml "html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/gaurav-prasanna/chatmark/core"
)

// htmlPage wraps goldmark's fragment output in a complete HTML5 document.
const htmlPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { max-width: 50rem; margin: 2rem auto; padding: 0 1rem; font-family: sans-serif; line-height: 1.5; }
pre { background: #f5f5f5; padding: .75rem; overflow-x: auto; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ddd; padding: .25rem .5rem; }
</style>
</head>
<body>
%s</body>
</html>
`

// HTMLRenderer renders a transcript as an HTML page.
type HTMLRenderer struct {
	Labels Labels
	md     goldmark.Markdown
}

// NewHTMLRenderer creates an HTMLRenderer with GFM extensions.
func NewHTMLRenderer(labels Labels) *HTMLRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
		),
	)
	return &HTMLRenderer{Labels: labels, md: md}
}

// Render converts the assembled transcript into an HTML document.
func (r *HTMLRenderer) Render(t core.Transcript) ([]byte, error) {
	var body bytes.Buffer
	if err := r.md.Convert([]byte(Assemble(t.Title, t.Turns, r.Labels)), &body); err != nil {
		return nil, fmt.Errorf("rendering HTML: %w", err)
	}
	return fmt.Appendf(nil, htmlPage, stdhtml.EscapeString(t.Title), body.String()), nil
}

// Extension returns the file extension for HTML output.
func (r *HTMLRenderer) Extension() string {
	return ".html"
}
