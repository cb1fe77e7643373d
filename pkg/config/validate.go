package config

import (
	"fmt"
	"time"

	"github.com/Sriram-PR/guidegen/pkg/utils"
)

// Validate checks AppConfig fields and applies sensible defaults.
// Returns collected warnings and any fatal error.
// Modifies receiver in place to apply defaults.
func (c *AppConfig) Validate() (warnings []string, err error) {
	// SourceDir
	if c.SourceDir == "" {
		warnings = append(warnings, "source_dir is empty, defaulting to './source'")
		c.SourceDir = "./source"
	}

	// OutputDir
	if c.OutputDir == "" {
		warnings = append(warnings, "output_dir is empty, defaulting to './output'")
		c.OutputDir = "./output"
	}

	if c.SourceDir == c.OutputDir {
		return warnings, fmt.Errorf("%w: source_dir and output_dir must differ (%s)", utils.ErrConfigValidation, c.SourceDir)
	}

	// Direction
	switch c.Direction {
	case "":
		c.Direction = "ltr"
	case "ltr", "rtl":
	default:
		return warnings, fmt.Errorf("%w: direction must be 'ltr' or 'rtl', got '%s'", utils.ErrConfigValidation, c.Direction)
	}

	// NumWorkers
	if c.NumWorkers <= 0 {
		warnings = append(warnings, "num_workers should be > 0, defaulting to 4")
		c.NumWorkers = 4
	}

	// Titles
	if c.TitleSuffix == "" {
		c.TitleSuffix = "Backend Development"
	}
	if c.DefaultTitle == "" {
		c.DefaultTitle = "Backend Development Textbook"
	}

	// Edge and version are alternatives
	if c.Edge != "" && c.Version != "" {
		warnings = append(warnings, fmt.Sprintf(
			"both edge (%s) and version (%s) are set, version takes precedence in layouts", c.Edge, c.Version))
	}

	// ExcludePatterns
	if _, err := utils.CompileRegexPatterns(c.ExcludePatterns); err != nil {
		return warnings, err
	}

	// Manifest filename
	if c.EnableManifest && c.ManifestFilename == "" {
		warnings = append(warnings,
			"'enable_manifest' is true but 'manifest_filename' is empty. Defaulting to 'guides_manifest.yaml'")
		c.ManifestFilename = "guides_manifest.yaml"
	}

	// Watch defaults
	c.validateWatch(&warnings)

	return warnings, nil
}

// validateWatch applies defaults to watch settings.
func (c *AppConfig) validateWatch(warnings *[]string) {
	w := &c.Watch
	if w.Debounce <= 0 {
		w.Debounce = 500 * time.Millisecond
	}
	if w.Interval < 0 {
		*warnings = append(*warnings, "watch.interval cannot be negative, disabling periodic rebuilds")
		w.Interval = 0
	}
	if w.Interval > 0 && w.Interval < time.Second {
		*warnings = append(*warnings, fmt.Sprintf("watch.interval %v is too short, using 1s", w.Interval))
		w.Interval = time.Second
	}
}
