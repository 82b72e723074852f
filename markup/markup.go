package markup

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer/html"
)

// documentShell wraps rendered markup in a minimal self-contained page so
// it can be displayed without inheriting host styles.
const documentShell = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; margin: 16px; color: #1f2328; line-height: 1.5; }
pre { background: #f6f8fa; padding: 12px; border-radius: 6px; overflow-x: auto; }
code { background: #f6f8fa; padding: 2px 4px; border-radius: 4px; font-size: 0.9em; }
pre code { background: none; padding: 0; }
a { color: #0969da; }
h1, h2, h3 { margin-top: 1em; margin-bottom: 0.4em; }
</style>
</head>
<body>
%s</body>
</html>
`

// converter renders the constrained prose subset: headings, emphasis,
// fenced and inline code, links, paragraphs and line breaks. Raw HTML in
// the source is never passed through, so prose cannot inject active
// markup; text content is entity-escaped on output.
var converter = goldmark.New(
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// Render converts prose markup to a self-contained display document.
func Render(text string) (string, error) {
	var buf bytes.Buffer
	if err := converter.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("markup: render: %w", err)
	}
	return fmt.Sprintf(documentShell, buf.String()), nil
}
