package markup

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// SuperscriptNode is an inline <sup> element written as ^word or ^(several words).
type SuperscriptNode struct {
	ast.BaseInline
}

// KindSuperscript is the NodeKind of SuperscriptNode.
var KindSuperscript = ast.NewNodeKind("Superscript")

// Kind implements Node.Kind.
func (n *SuperscriptNode) Kind() ast.NodeKind {
	return KindSuperscript
}

// Dump implements Node.Dump.
func (n *SuperscriptNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

type superscriptParser struct{}

func (p *superscriptParser) Trigger() []byte {
	return []byte{'^'}
}

func (p *superscriptParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	// [^label] is a footnote reference
	if block.PrecendingCharacter() == '[' {
		return nil
	}
	line, segment := block.PeekLine()
	if len(line) < 2 {
		return nil
	}

	var start, stop, consumed int
	if line[1] == '(' {
		end := bytes.IndexByte(line[2:], ')')
		if end < 1 {
			return nil
		}
		start, stop = 2, 2+end
		consumed = stop + 1
	} else {
		i := 1
		for i < len(line) && !util.IsSpace(line[i]) && line[i] != ']' && line[i] != '^' {
			i++
		}
		if i == 1 {
			return nil
		}
		start, stop = 1, i
		consumed = i
	}

	node := &SuperscriptNode{}
	node.AppendChild(node, ast.NewTextSegment(text.NewSegment(segment.Start+start, segment.Start+stop)))
	block.Advance(consumed)
	return node
}

type superscriptHTMLRenderer struct{}

func (r *superscriptHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindSuperscript, r.renderSuperscript)
}

func (r *superscriptHTMLRenderer) renderSuperscript(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<sup>")
	} else {
		_, _ = w.WriteString("</sup>")
	}
	return ast.WalkContinue, nil
}

type superscript struct{}

// Superscript is an extension that renders ^word and ^(several words) as <sup>.
var Superscript = &superscript{}

func (e *superscript) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithInlineParsers(
			util.Prioritized(&superscriptParser{}, 600),
		),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(
			util.Prioritized(&superscriptHTMLRenderer{}, 600),
		),
	)
}
