// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package markdown renders lesson content. Besides HTML it extracts the
// heading outline a player shows as a table of contents and an estimated
// reading time. Raw HTML in the source is not rendered, so instructor
// content cannot inject markup into a learner's page.
package markdown

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// wordsPerMinute is the reading speed used for ReadingMinutes.
const wordsPerMinute = 200

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
)

// Heading is one entry of a lesson outline.
type Heading struct {
	Level int    `json:"level"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

// Document is rendered lesson content.
type Document struct {
	HTML           string
	Outline        []Heading
	ReadingMinutes int
}

// Render parses source once and produces HTML, the heading outline
// (levels 1 to 3) and the reading time. Empty content reads in 0 minutes.
func Render(source string) (*Document, error) {
	src := []byte(source)
	root := md.Parser().Parse(text.NewReader(src))

	doc := &Document{}
	words := 0
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if node.Level <= 3 {
				doc.Outline = append(doc.Outline, Heading{
					Level: node.Level,
					ID:    headingID(node),
					Text:  plainText(node, src),
				})
			}
		case *ast.Text:
			words += len(strings.Fields(string(node.Segment.Value(src))))
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk markdown: %w", err)
	}

	var buf bytes.Buffer
	if err := md.Renderer().Render(&buf, src, root); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}
	doc.HTML = buf.String()
	doc.ReadingMinutes = (words + wordsPerMinute - 1) / wordsPerMinute
	return doc, nil
}

func headingID(h *ast.Heading) string {
	v, ok := h.AttributeString("id")
	if !ok {
		return ""
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return ""
}

// plainText concatenates the text below n, dropping inline markup.
func plainText(n ast.Node, src []byte) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		default:
			sb.WriteString(plainText(c, src))
		}
	}
	return sb.String()
}
