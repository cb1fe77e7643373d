package guide

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Sriram-PR/guidegen/pkg/utils"
)

// NoHeading fills the header h2 slot of guides whose header has no h2.
const NoHeading = "no heading"

// TitleOptions controls how page titles are derived from the header.
type TitleOptions struct {
	Suffix  string // Appended to the header h2 text: "<h2> — <Suffix>"
	Default string // Used when the header has no h2
}

// HeaderInfo is the page metadata derived from a rendered header.
type HeaderInfo struct {
	HTML        string
	H2          string // h2 text, or NoHeading
	Title       string
	Description string
}

// BuildHeader renders a raw header and derives its title, h2 text and description.
func BuildHeader(m Markup, raw string, opts TitleOptions) (HeaderInfo, error) {
	info := HeaderInfo{H2: NoHeading, Title: opts.Default}
	if strings.TrimSpace(raw) == "" {
		return info, nil
	}

	rendered, err := m.Render(raw)
	if err != nil {
		return info, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return info, utils.WrapErrorf(utils.ErrParsing, "reading rendered HTML of header: %v", err)
	}
	root := doc.Find("body")
	root.Find("ul").AddClass("checkmark")

	info.HTML, err = root.Html()
	if err != nil {
		return info, utils.WrapErrorf(utils.ErrParsing, "serializing HTML of header: %v", err)
	}
	info.Description = strings.Join(strings.Fields(root.Text()), " ")

	if h2 := root.Find("h2").First(); h2.Length() > 0 {
		info.H2 = h2.Text()
		info.Title = info.H2
		if opts.Suffix != "" {
			info.Title += " — " + opts.Suffix
		}
	}
	return info, nil
}
