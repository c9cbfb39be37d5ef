package markdown

import (
	"bytes"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
	)

	// policy allows the usual user-generated-content tags and nothing that
	// could carry script. Rendered output must be printable without further
	// escaping, so every render goes through it.
	policy = bluemonday.UGCPolicy()
)

// Render converts Markdown source into sanitized HTML.
//
// This is the only place text_rendered values may be produced. Code
// elsewhere assumes the result is safe to display without further escaping.
func Render(source string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return "", err
	}
	return policy.Sanitize(buf.String()), nil
}

// Sanitize strips unsafe markup from an HTML fragment without interpreting
// it as Markdown.
func Sanitize(html string) string {
	return policy.Sanitize(html)
}
