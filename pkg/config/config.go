package config

import (
	"path/filepath"
	"strings"
	"time"
)

// EdgeAuto asks for the edge revision to be resolved from the repository HEAD.
const EdgeAuto = "auto"

// AppConfig holds the global application configuration
type AppConfig struct {
	SourceDir        string      `yaml:"source_dir"`
	OutputDir        string      `yaml:"output_dir"`
	StateDir         string      `yaml:"state_dir,omitempty"` // Empty disables the build store
	Language         string      `yaml:"language,omitempty"`  // Subdirectory of source_dir and output_dir
	Direction        string      `yaml:"direction,omitempty"` // "ltr" or "rtl"
	Edge             string      `yaml:"edge,omitempty"`      // Revision shown on edge guides, or "auto"
	Version          string      `yaml:"version,omitempty"`
	TitleSuffix      string      `yaml:"title_suffix,omitempty"`
	DefaultTitle     string      `yaml:"default_title,omitempty"`
	NumWorkers       int         `yaml:"num_workers"`
	Only             string      `yaml:"only,omitempty"`             // Comma-separated source name prefixes
	ExcludePatterns  []string    `yaml:"exclude_patterns,omitempty"` // Regex patterns for source names to skip
	All              bool        `yaml:"all,omitempty"`              // Regenerate regardless of timestamps
	Lint             bool        `yaml:"lint,omitempty"`             // Dry run that fails on broken links
	Slides           *bool       `yaml:"slides,omitempty"`           // nil = generate slides
	EnableManifest   bool        `yaml:"enable_manifest,omitempty"`
	ManifestFilename string      `yaml:"manifest_filename,omitempty"`
	Watch            WatchConfig `yaml:"watch,omitempty"`
}

// WatchConfig holds settings for watch mode
type WatchConfig struct {
	Debounce    time.Duration `yaml:"debounce,omitempty"`     // Quiet period after a change before rebuilding
	Interval    time.Duration `yaml:"interval,omitempty"`     // Periodic rebuild interval (0 = only on changes)
	MetricsAddr string        `yaml:"metrics_addr,omitempty"` // Serve Prometheus metrics on this address
}

// SourcePath returns the directory guides are read from, including the language subdirectory.
func (c AppConfig) SourcePath() string {
	if c.Language != "" {
		return filepath.Join(c.SourceDir, c.Language)
	}
	return c.SourceDir
}

// OutputPath returns the directory generated pages are written to.
func (c AppConfig) OutputPath() string {
	if c.Language != "" {
		return filepath.Join(c.OutputDir, c.Language)
	}
	return c.OutputDir
}

// OnlyPrefixes splits Only into trimmed, non-empty prefixes. Nil means no filter.
func (c AppConfig) OnlyPrefixes() []string {
	if strings.TrimSpace(c.Only) == "" {
		return nil
	}
	var prefixes []string
	for _, p := range strings.Split(c.Only, ",") {
		if p = strings.TrimSpace(p); p != "" {
			prefixes = append(prefixes, p)
		}
	}
	return prefixes
}

// GetEffectiveSlides determines whether slide variants are generated
func (c AppConfig) GetEffectiveSlides() bool {
	if c.Slides != nil {
		return *c.Slides
	}
	return true
}

// DryRun reports whether outputs must not be written.
func (c AppConfig) DryRun() bool {
	return c.Lint
}
