package markup

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/Sriram-PR/guidegen/pkg/utils"
)

// Renderer converts guide markdown into HTML. The same configuration renders
// headers, bodies and generated indexes.
type Renderer struct {
	md goldmark.Markdown
}

// NewRenderer creates a Renderer with tables, strikethrough, autolinks,
// footnotes, superscript, heading attributes and raw HTML passthrough.
// Neither * nor _ emphasizes inside a word.
// Headings only carry an id when one is given explicitly ({#id}).
func NewRenderer() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.Linkify,
			extension.Footnote,
			Superscript,
			NoIntraEmphasis,
		),
		goldmark.WithParserOptions(
			parser.WithAttribute(),
		),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
	return &Renderer{md: md}
}

// Render converts markdown text to an HTML fragment.
func (r *Renderer) Render(text string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(text), &buf); err != nil {
		return "", utils.WrapErrorf(utils.ErrRender, "%v", err)
	}
	return buf.String(), nil
}
