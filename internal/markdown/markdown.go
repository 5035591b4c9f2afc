// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown renders article bodies to HTML using goldmark. Raw
// HTML in a body is passed through so that bodies written with a rich
// text editor render unchanged.
package markdown

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var md = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		extension.Typographer,
		highlighting.NewHighlighting(
			highlighting.WithStyle("monokai"),
		),
	),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		gmhtml.WithUnsafe(),
	),
)

// ToHTML converts an article body to HTML.
func ToHTML(body string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(body), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// MustHTML is ToHTML for response building: on a render failure it falls
// back to the escaped body in a paragraph.
func MustHTML(body string) string {
	out, err := ToHTML(body)
	if err != nil {
		return "<p>" + html.EscapeString(body) + "</p>\n"
	}
	return out
}
