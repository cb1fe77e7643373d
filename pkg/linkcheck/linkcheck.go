package linkcheck

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/guidegen/pkg/models"
	"github.com/Sriram-PR/guidegen/pkg/report"
	"github.com/Sriram-PR/guidegen/pkg/utils"
)

// MainColumnFragment is the layout's skip link target; it is never reported.
const MainColumnFragment = "mainCol"

const (
	headingAnchorSelector  = "h3[id], h4[id], h5[id], h6[id]"
	footnoteAnchorSelector = `p.footnote[id], sup.footnote[id], sup[id^="fnref"], .footnotes li[id]`
)

// BrokenLink is a fragment reference with no matching anchor.
type BrokenLink struct {
	Fragment   string // Raw fragment without the leading '#'
	Suggestion string // Closest known anchor, empty if none is close enough
}

// Result holds the anchors and references found in one rendered page.
type Result struct {
	Anchors    []string // Heading and footnote anchors, first occurrence order
	Duplicates []string // Heading ids seen more than once
	Broken     []BrokenLink
}

// Fragments returns the broken references as "#fragment" strings in document order.
func (r *Result) Fragments() []string {
	out := make([]string, 0, len(r.Broken))
	for _, b := range r.Broken {
		out = append(out, "#"+b.Fragment)
	}
	return out
}

// Check extracts anchors and fragment references from a rendered page and
// reports references that resolve to no anchor.
func Check(page string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return nil, utils.WrapErrorf(utils.ErrParsing, "reading HTML for link check: %v", err)
	}

	res := &Result{}
	known := make(map[string]struct{})

	doc.Find(headingAnchorSelector).Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		if id == "" {
			return
		}
		if _, seen := known[id]; seen {
			res.Duplicates = append(res.Duplicates, id)
			return
		}
		known[id] = struct{}{}
		res.Anchors = append(res.Anchors, id)
	})

	doc.Find(footnoteAnchorSelector).Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("id")
		if id == "" {
			return
		}
		if _, seen := known[id]; !seen {
			known[id] = struct{}{}
			res.Anchors = append(res.Anchors, id)
		}
	})

	doc.Find(`a[href^="#"]`).Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		fragment := strings.TrimPrefix(href, "#")
		if fragment == "" || fragment == MainColumnFragment {
			return
		}
		decoded, err := url.QueryUnescape(fragment)
		if err != nil {
			decoded = fragment
		}
		if _, ok := known[decoded]; ok {
			return
		}
		res.Broken = append(res.Broken, BrokenLink{
			Fragment:   fragment,
			Suggestion: Suggest(fragment, res.Anchors),
		})
	})

	return res, nil
}

// Suggest returns the anchor with the smallest edit distance to fragment, or ""
// when even the closest one differs by more than about a quarter of its length.
func Suggest(fragment string, anchors []string) string {
	best, bestDist := "", -1
	for _, a := range anchors {
		d := fuzzy.LevenshteinDistance(fragment, a)
		if bestDist < 0 || d < bestDist {
			best, bestDist = a, d
		}
	}
	if bestDist < 0 || bestDist > suggestionThreshold(fragment) {
		return ""
	}
	return best
}

func suggestionThreshold(fragment string) int {
	t := (len(fragment) + 3) / 4
	if t < 2 {
		t = 2
	}
	return t
}

// Validator runs Check on generated pages and turns findings into diagnostics.
type Validator struct {
	log *logrus.Entry
}

// NewValidator creates a Validator logging through log.
func NewValidator(log *logrus.Entry) *Validator {
	return &Validator{log: log}
}

// Validate checks one page and returns the broken "#fragment" references in
// document order. Duplicate heading ids and broken links are added to collector.
func (v *Validator) Validate(source string, variant models.Variant, page string, collector *report.Collector) ([]string, error) {
	res, err := Check(page)
	if err != nil {
		return nil, err
	}
	pageLog := v.log.WithFields(logrus.Fields{"guide": source, "variant": variant})

	for _, id := range res.Duplicates {
		msg := fmt.Sprintf("*** DUPLICATE ID: '%s', please make sure that there are no headings with the same name at the same level.", id)
		pageLog.Warn(msg)
		if collector != nil {
			collector.Add(models.Diagnostic{Source: source, Variant: variant, Kind: models.DiagnosticDuplicateAnchor, Message: msg, Fragment: id})
		}
	}

	for _, b := range res.Broken {
		msg := fmt.Sprintf("*** BROKEN LINK: #%s", b.Fragment)
		if b.Suggestion != "" {
			msg += fmt.Sprintf(", perhaps you meant #%s.", b.Suggestion)
		}
		pageLog.Warn(msg)
		if collector != nil {
			collector.Add(models.Diagnostic{
				Source:     source,
				Variant:    variant,
				Kind:       models.DiagnosticBrokenLink,
				Message:    msg,
				Fragment:   b.Fragment,
				Suggestion: b.Suggestion,
			})
		}
	}

	return res.Fragments(), nil
}
