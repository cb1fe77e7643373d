package guide

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/guidegen/pkg/models"
	"github.com/Sriram-PR/guidegen/pkg/report"
)

// Markup converts markdown text to an HTML fragment.
type Markup interface {
	Render(text string) (string, error)
}

// Document is the structured result of rendering one guide source.
type Document struct {
	Source      string
	RawText     string
	Header      string // Raw header text
	Body        string // Raw body text
	Title       string
	Description string
	HeaderH2    string
	HeaderHTML  string
	BodyHTML    string
	IndexHTML   string
	HasIndex    bool
	Headings    []*Heading
}

// Generator turns raw guide text into a Document.
type Generator struct {
	markup Markup
	opts   TitleOptions
	log    *logrus.Entry
}

// NewGenerator creates a Generator using the given markup renderer.
func NewGenerator(m Markup, opts TitleOptions, log *logrus.Entry) *Generator {
	return &Generator{markup: m, opts: opts, log: log}
}

// Render splits, renders and structures one guide. Every call uses a fresh Session.
// Diagnostics are added to collector; render failures are returned as errors.
func (g *Generator) Render(source, raw string, collector *report.Collector) (*Document, error) {
	docLog := g.log.WithField("guide", source)

	split := SplitHeader(raw)
	if !split.Found {
		msg := "no header found, add a header that ends with a line of 40 dashes"
		docLog.Warn(msg)
		if collector != nil {
			collector.Add(models.Diagnostic{Source: source, Kind: models.DiagnosticMissingHeader, Message: msg})
		}
	}

	header, err := BuildHeader(g.markup, split.Header, g.opts)
	if err != nil {
		return nil, err
	}

	bodyHTML, err := g.markup.Render(split.Body)
	if err != nil {
		return nil, err
	}

	session := NewSession(source, collector)
	bodyHTML, err = session.Structure(bodyHTML)
	if err != nil {
		return nil, err
	}

	index, hasIndex, err := BuildIndex(g.markup, session.IndexEntries())
	if err != nil {
		return nil, err
	}

	docLog.Debugf("Structured %d headings (%d indexed)", len(session.Headings()), len(session.IndexEntries()))

	return &Document{
		Source:      source,
		RawText:     raw,
		Header:      split.Header,
		Body:        split.Body,
		Title:       header.Title,
		Description: header.Description,
		HeaderH2:    header.H2,
		HeaderHTML:  header.HTML,
		BodyHTML:    bodyHTML,
		IndexHTML:   index,
		HasIndex:    hasIndex,
		Headings:    session.Headings(),
	}, nil
}

// Anchors returns the ids of all structured headings in document order.
func (d *Document) Anchors() []string {
	ids := make([]string, 0, len(d.Headings))
	for _, h := range d.Headings {
		ids = append(ids, h.ID)
	}
	return ids
}

// Section returns the heading whose number (e.g. "2.1") or id matches ref.
func (d *Document) Section(ref string) (*Heading, bool) {
	for _, h := range d.Headings {
		if h.ID == ref || h.NumberString() == ref {
			return h, true
		}
	}
	return nil, false
}

// SectionHTML returns the heading element and the siblings that follow it up to
// the next heading of the same or a higher level.
func (h *Heading) SectionHTML() (string, error) {
	stops := make([]string, 0, h.Level)
	for l := 1; l <= h.Level; l++ {
		stops = append(stops, "h"+strconv.Itoa(l))
	}
	var b strings.Builder
	for _, sel := range []*goquery.Selection{h.node, h.node.NextUntil(strings.Join(stops, ", "))} {
		var err error
		sel.Each(func(_ int, s *goquery.Selection) {
			if err != nil {
				return
			}
			var part string
			part, err = goquery.OuterHtml(s)
			b.WriteString(part)
		})
		if err != nil {
			return "", err
		}
	}
	return b.String(), nil
}
