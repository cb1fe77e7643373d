package generate

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Sriram-PR/guidegen/pkg/guide"
	"github.com/Sriram-PR/guidegen/pkg/layout"
	"github.com/Sriram-PR/guidegen/pkg/models"
	"github.com/Sriram-PR/guidegen/pkg/report"
	"github.com/Sriram-PR/guidegen/pkg/utils"
)

// Preview is one guide rendered in memory. Nothing is written or recorded.
type Preview struct {
	Target      models.BuildTarget
	Document    *guide.Document
	HTML        []byte
	BrokenLinks []string
	Diagnostics []models.Diagnostic
}

// Lookup finds a markdown source by source name ("routing.md"), output name
// ("routing.html") or bare name ("routing").
func (o *Orchestrator) Lookup(name string) (models.BuildTarget, error) {
	targets, err := o.Targets()
	if err != nil {
		return models.BuildTarget{}, err
	}
	name = filepath.Base(strings.TrimSpace(name))
	for _, t := range targets {
		if t.Source != name && t.Guide != name && strings.TrimSuffix(t.Guide, ".html") != name {
			continue
		}
		if t.Template {
			return t, fmt.Errorf("%w: %s", utils.ErrTemplateOnly, t.Source)
		}
		return t, nil
	}
	return models.BuildTarget{}, fmt.Errorf("%w: %s", utils.ErrNotFound, name)
}

// Preview renders and validates the guide variant of one source.
func (o *Orchestrator) Preview(name string) (*Preview, error) {
	t, err := o.Lookup(name)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(t.SourcePath)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", utils.ErrFilesystem, t.SourcePath, err)
	}

	collector := report.NewCollector()
	doc, err := o.generator.Render(t.Source, string(raw), collector)
	if err != nil {
		return nil, err
	}
	html, err := o.layouts.Render(layout.GuideLayout, o.page(doc, t.Guide, "preview"))
	if err != nil {
		return nil, err
	}
	broken, err := o.validator.Validate(t.Source, models.VariantGuide, string(html), collector)
	if err != nil {
		return nil, err
	}

	return &Preview{
		Target:      t,
		Document:    doc,
		HTML:        html,
		BrokenLinks: broken,
		Diagnostics: collector.Diagnostics(),
	}, nil
}
