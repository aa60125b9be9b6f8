// Package preview serves a live browser preview of one note: a
// localhost-only HTTP endpoint that renders the note's markdown to HTML,
// and a WebSocket endpoint that tells the page to reload when the note
// changes on disk.
package preview

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// Renderer converts note markdown into the standalone HTML page served to
// the browser. Theme names become CSS classes on <body> so the page picks
// up the same markdown and code themes the app uses.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer builds a GFM renderer: tables, strikethrough, task lists,
// and autolinks, matching what the in-app viewer supports.
func NewRenderer() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
	}
}

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
</head>
<body class="theme-%s code-%s">
<main class="markdown-body">
%s</main>
<script>
(function () {
  var ws = new WebSocket("ws://" + location.host + "/ws");
  ws.onmessage = function () { location.reload(); };
})();
</script>
</body>
</html>
`

// Page renders markdown into a complete HTML document. title and the theme
// names are HTML-escaped; the rendered markdown is inserted as-is.
func (r *Renderer) Page(title, markdown, markdownTheme, codeTheme string) (string, error) {
	var body bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &body); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return fmt.Sprintf(pageTemplate,
		html.EscapeString(title),
		html.EscapeString(markdownTheme),
		html.EscapeString(codeTheme),
		body.String(),
	), nil
}
