package generate

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/guidegen/pkg/models"
	"github.com/Sriram-PR/guidegen/pkg/utils"
)

// buildManifest collects the metadata of the targets generated by a run.
func (o *Orchestrator) buildManifest(r *RunResult, startTime time.Time) models.BuildManifest {
	manifest := models.BuildManifest{
		BuildID:     r.BuildID,
		Edge:        o.appCfg.Edge,
		Version:     o.appCfg.Version,
		Language:    o.appCfg.Language,
		StartTime:   startTime,
		EndTime:     startTime.Add(r.Duration),
		Diagnostics: r.Diagnostics.Diagnostics(),
	}
	for _, tr := range r.Results {
		if tr.Status != models.BuildStatusSuccess && tr.Status != models.BuildStatusWarning {
			continue
		}
		manifest.Guides = append(manifest.Guides, models.GuideMetadata{
			Source:      tr.Target.Source,
			Output:      filepath.Base(tr.Output),
			Variant:     tr.Variant,
			Title:       tr.Title,
			Anchors:     tr.Anchors,
			BrokenLinks: len(tr.BrokenLinks),
			SourceHash:  tr.SourceHash,
			BuiltAt:     tr.BuiltAt,
		})
	}
	manifest.TotalBuilt = len(manifest.Guides)
	return manifest
}

// writeManifest writes the run's YAML manifest into the output directory.
func (o *Orchestrator) writeManifest(r *RunResult, startTime time.Time) error {
	path := filepath.Join(o.appCfg.OutputPath(), o.appCfg.ManifestFilename)
	o.log.Infof("Preparing to write build manifest to: %s", path)

	manifest := o.buildManifest(r, startTime)
	data, err := yaml.Marshal(&manifest)
	if err != nil {
		return utils.WrapErrorf(utils.ErrParsing, "encoding YAML manifest: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("%w: writing manifest '%s': %w", utils.ErrFilesystem, path, err)
	}

	o.log.Infof("Successfully wrote build manifest (%d pages) to %s", manifest.TotalBuilt, path)
	return nil
}

// ReadManifest loads a manifest written by a previous run.
func ReadManifest(path string) (*models.BuildManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading manifest '%s': %w", utils.ErrFilesystem, path, err)
	}
	var manifest models.BuildManifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return nil, utils.WrapErrorf(utils.ErrParsing, "decoding YAML manifest '%s': %v", path, err)
	}
	return &manifest, nil
}
