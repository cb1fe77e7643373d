package markup

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

type starDelimiterProcessor struct{}

func (p *starDelimiterProcessor) IsDelimiter(b byte) bool {
	return b == '*'
}

func (p *starDelimiterProcessor) CanOpenCloser(opener, closer *parser.Delimiter) bool {
	return opener.Char == closer.Char
}

func (p *starDelimiterProcessor) OnMatch(consumes int) ast.Node {
	return ast.NewEmphasis(consumes)
}

var defaultStarDelimiterProcessor = &starDelimiterProcessor{}

// starParser scans * runs with the flanking rules CommonMark applies to _,
// so a * run wedged between two word characters neither opens nor closes.
type starParser struct{}

func (s *starParser) Trigger() []byte {
	return []byte{'*'}
}

func (s *starParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	before := block.PrecendingCharacter()
	line, segment := block.PeekLine()
	node := parser.ScanDelimiter(line, before, 1, defaultStarDelimiterProcessor)
	if node == nil {
		return nil
	}

	after := ' '
	if node.OriginalLength < len(line) {
		after = util.ToRune(line, node.OriginalLength)
	}
	leftFlanking, rightFlanking := node.CanOpen, node.CanClose
	node.CanOpen = leftFlanking && (!rightFlanking || util.IsPunctRune(before))
	node.CanClose = rightFlanking && (!leftFlanking || util.IsPunctRune(after))

	node.Segment = segment.WithStop(segment.Start + node.OriginalLength)
	block.Advance(node.OriginalLength)
	pc.PushDelimiter(node)
	return node
}

type noIntraEmphasis struct{}

// NoIntraEmphasis is an extension that keeps * from emphasizing inside a word,
// matching what CommonMark already does for _.
var NoIntraEmphasis = &noIntraEmphasis{}

func (e *noIntraEmphasis) Extend(m goldmark.Markdown) {
	// Ahead of the built-in emphasis parser (500), which still handles _.
	m.Parser().AddOptions(
		parser.WithInlineParsers(
			util.Prioritized(&starParser{}, 499),
		),
	)
}
