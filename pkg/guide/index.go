package guide

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Sriram-PR/guidegen/pkg/utils"
)

const indexTemplate = `<div id="subCol">
  <h3 class="chapter"><img src="images/chapters_icon.gif" alt="" />Chapters</h3>
  %s
</div>`

// BuildIndex renders the chapters index for the collected h3/h4 entries.
// The second return value is false when there is nothing to index.
func BuildIndex(m Markup, entries []IndexEntry) (string, bool, error) {
	if len(entries) == 0 {
		return "", false, nil
	}

	var src strings.Builder
	chapter := 0
	for _, e := range entries {
		e.Label = indexLabel(e.Label)
		switch e.Level {
		case 1:
			chapter++
			fmt.Fprintf(&src, "%d. [%s](#%s)\n", chapter, e.Label, e.Heading.ID)
		case 2:
			if chapter == 0 {
				// no chapter to nest under yet
				fmt.Fprintf(&src, "* [%s](#%s)\n", e.Label, e.Heading.ID)
				continue
			}
			fmt.Fprintf(&src, "    * [%s](#%s)\n", e.Label, e.Heading.ID)
		}
	}

	rendered, err := m.Render(src.String())
	if err != nil {
		return "", false, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return "", false, utils.WrapErrorf(utils.ErrParsing, "reading rendered HTML of index: %v", err)
	}
	root := doc.Find("body")
	root.Find("ol").First().AddClass("chapters")
	list, err := root.Html()
	if err != nil {
		return "", false, utils.WrapErrorf(utils.ErrParsing, "serializing HTML of index: %v", err)
	}

	return fmt.Sprintf(indexTemplate, strings.TrimSpace(list)), true, nil
}

// indexLabel drops footnote references from a heading label. Their ids
// already exist in the body and must not be repeated in the index.
func indexLabel(label string) string {
	if !strings.Contains(label, "fnref") {
		return label
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(label))
	if err != nil {
		return label
	}
	body := doc.Find("body")
	body.Find(`sup[id^="fnref"]`).Remove()
	out, err := body.Html()
	if err != nil {
		return label
	}
	return strings.TrimSpace(out)
}
