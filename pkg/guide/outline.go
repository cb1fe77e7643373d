package guide

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// OutlineEntry is a heading found in guide markdown without rendering it.
type OutlineEntry struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// ExtractOutline parses the body of a guide and returns its h3 and h4 headings
// in document order. It is a cheap preview of the index; ids are not assigned.
func ExtractOutline(raw []byte) []OutlineEntry {
	body := []byte(SplitHeader(string(raw)).Body)
	md := goldmark.New(goldmark.WithParserOptions(parser.WithAttribute()))
	doc := md.Parser().Parse(text.NewReader(body))

	var outline []OutlineEntry
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok || heading.Level < 3 || heading.Level > 4 {
			return ast.WalkContinue, nil
		}
		var buf bytes.Buffer
		for child := heading.FirstChild(); child != nil; child = child.NextSibling() {
			if textNode, ok := child.(*ast.Text); ok {
				buf.Write(textNode.Segment.Value(body))
			}
		}
		if buf.Len() > 0 {
			outline = append(outline, OutlineEntry{Level: heading.Level, Text: buf.String()})
		}
		return ast.WalkSkipChildren, nil
	})

	return outline
}
