// Package render turns user-authored post text into safe HTML.
package render

import (
	"bytes"
	"html"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
		goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
	)
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// Markdown renders post content to sanitized HTML. Raw HTML in the source is dropped.
func Markdown(src string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "<p>" + html.EscapeString(src) + "</p>"
	}
	return ugcPolicy.Sanitize(buf.String())
}

// PlainText strips every tag and returns the unescaped text, for titles and other
// single-line fields.
func PlainText(s string) string {
	return html.UnescapeString(strictPolicy.Sanitize(s))
}
