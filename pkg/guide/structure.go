package guide

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Sriram-PR/guidegen/pkg/models"
	"github.com/Sriram-PR/guidegen/pkg/report"
	"github.com/Sriram-PR/guidegen/pkg/utils"
)

const maxDepth = 4 // h3 through h6

// Heading is a structured h3-h6 element of a rendered body.
type Heading struct {
	Level    int    // 3..6
	Text     string // Text content before numbering
	ID       string
	Number   []int
	Explicit bool // ID was supplied by the author

	node *goquery.Selection
}

// NumberString returns the dot-joined section number, e.g. "2.1".
func (h *Heading) NumberString() string {
	parts := make([]string, len(h.Number))
	for i, n := range h.Number {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ".")
}

func (h *Heading) setID(id string) {
	h.ID = id
	h.node.SetAttr("id", id)
}

// IndexEntry is an h3 (level 1) or h4 (level 2) heading collected for the index.
type IndexEntry struct {
	Level   int
	Heading *Heading
	Label   string // Inner HTML captured before numbering
}

// Session holds the structuring state of one document: the hierarchy stack,
// section counters and anchor registry. A Session must not be reused across documents.
type Session struct {
	source    string
	collector *report.Collector

	stack     []*Heading
	counters  [maxDepth]int
	registry  map[string][]*Heading // id -> stack snapshot that claimed it
	qualified map[string]bool       // slugs already split into parent-prefixed ids
	headings  []*Heading
	index     []IndexEntry
}

// NewSession creates a fresh structuring session. Diagnostics go to collector, which may be nil.
func NewSession(source string, collector *report.Collector) *Session {
	return &Session{
		source:    source,
		collector: collector,
		registry:  make(map[string][]*Heading),
		qualified: make(map[string]bool),
	}
}

// Headings returns every structured heading in document order.
func (s *Session) Headings() []*Heading {
	return s.headings
}

// IndexEntries returns the h3/h4 headings collected for the index, in document order.
func (s *Session) IndexEntries() []IndexEntry {
	return s.index
}

// Structure assigns ids and section numbers to the top-level h3-h6 elements of a
// rendered body, then prefixes every identified h3-h6 with an anchor link.
// It returns the modified HTML.
func (s *Session) Structure(body string) (string, error) {
	if strings.TrimSpace(body) == "" {
		return body, nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", utils.WrapErrorf(utils.ErrParsing, "reading rendered HTML of %s: %v", s.source, err)
	}
	root := doc.Find("body")

	root.Children().Each(func(_ int, sel *goquery.Selection) {
		level := headingLevel(sel)
		if level == 0 {
			return
		}
		s.structureHeading(sel, level)
	})

	root.Find("h3, h4, h5, h6").Each(func(_ int, sel *goquery.Selection) {
		id, ok := sel.Attr("id")
		if !ok || id == "" {
			return
		}
		sel.PrependHtml(fmt.Sprintf(`<a class="anchorlink" href="#%s"></a>`, html.EscapeString(id)))
	})

	out, err := root.Html()
	if err != nil {
		return "", utils.WrapErrorf(utils.ErrParsing, "serializing HTML of %s: %v", s.source, err)
	}
	return out, nil
}

func headingLevel(sel *goquery.Selection) int {
	switch goquery.NodeName(sel) {
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func (s *Session) structureHeading(sel *goquery.Selection, level int) {
	inner, _ := sel.Html()
	h := &Heading{
		Level: level,
		Text:  sel.Text(),
		node:  sel,
	}

	keep := level - 3
	if keep > len(s.stack) {
		keep = len(s.stack)
	}
	s.stack = append(s.stack[:keep:keep], h)

	h.Number = s.nextNumber(len(s.stack))

	if id, ok := sel.Attr("id"); ok && id != "" {
		h.ID = id
		h.Explicit = true
	} else {
		candidate := Slug(h.Text)
		if candidate == "" {
			candidate = "section-" + strings.ReplaceAll(h.NumberString(), ".", "-")
			s.report(models.DiagnosticEmptySlug, fmt.Sprintf("heading %q has no usable text for an anchor, using #%s", h.Text, candidate))
		}
		s.assignID(h, candidate)
	}

	sel.SetHtml(h.NumberString() + " " + inner)
	s.headings = append(s.headings, h)

	switch level {
	case 3:
		s.index = append(s.index, IndexEntry{Level: 1, Heading: h, Label: inner})
	case 4:
		s.index = append(s.index, IndexEntry{Level: 2, Heading: h, Label: inner})
	}
}

// nextNumber increments the counter at the given depth, resets deeper counters
// and returns the number path down to that depth.
func (s *Session) nextNumber(depth int) []int {
	s.counters[depth-1]++
	for i := depth; i < maxDepth; i++ {
		s.counters[i] = 0
	}
	number := make([]int, depth)
	copy(number, s.counters[:depth])
	return number
}

// assignID resolves collisions by prefixing with the parent heading's id. When the
// previous claimant of the id had a parent it is renamed as well, so both headings
// end up qualified, and later headings with the same slug are qualified too.
func (s *Session) assignID(h *Heading, candidate string) {
	previous, taken := s.registry[candidate]
	if taken || s.qualified[candidate] {
		if taken && len(previous) > 1 {
			delete(s.registry, candidate)
			s.qualified[candidate] = true
			claimant := previous[len(previous)-1]
			renamed := s.unusedID(previous[len(previous)-2].ID + "-" + claimant.ID)
			claimant.setID(renamed)
			s.registry[renamed] = previous
		}
		if len(s.stack) > 1 {
			candidate = s.unusedID(s.stack[len(s.stack)-2].ID + "-" + candidate)
		} else {
			candidate = s.unusedID(candidate)
		}
	}

	h.setID(candidate)
	snapshot := make([]*Heading, len(s.stack))
	copy(snapshot, s.stack)
	s.registry[candidate] = snapshot
}

func (s *Session) unusedID(id string) string {
	if _, taken := s.registry[id]; !taken {
		return id
	}
	for n := 2; ; n++ {
		next := fmt.Sprintf("%s-%d", id, n)
		if _, taken := s.registry[next]; !taken {
			return next
		}
	}
}

func (s *Session) report(kind models.DiagnosticKind, msg string) {
	if s.collector == nil {
		return
	}
	s.collector.Add(models.Diagnostic{Source: s.source, Kind: kind, Message: msg})
}
