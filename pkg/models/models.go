package models

import "time"

// Variant names one of the two pages produced from a source document
type Variant string

const (
	VariantGuide Variant = "guide"
	VariantSlide Variant = "slide"
)

// BuildTarget describes one source file and the outputs derived from its name
type BuildTarget struct {
	Source       string // File name relative to the source directory, e.g. "routing.md"
	SourcePath   string // Absolute or working-dir-relative path of the source
	Guide        string // Output file name of the guide variant, e.g. "routing.html"
	Slide        string // Output file name of the slide variant, e.g. "slides_routing.html"
	Template     bool   // Source is an .erb page body rather than markdown
	Special      bool   // Source is a layout/partial template that is never generated
	TemplateName string // Base name of an .erb source ("_license" for "_license.html.erb")
	TemplateFmt  string // Format segment of an .erb source ("html" for "_license.html.erb")
}

// OutputFor returns the output file name of the given variant
func (t BuildTarget) OutputFor(v Variant) string {
	if v == VariantSlide {
		return t.Slide
	}
	return t.Guide
}

// BuildEntry stores the result of generating one target in the database
type BuildEntry struct {
	Status      BuildStatus `json:"status"`
	Variant     Variant     `json:"variant"`
	Source      string      `json:"source"`
	SourceHash  string      `json:"source_hash,omitempty"`
	Title       string      `json:"title,omitempty"`
	Anchors     int         `json:"anchors"`
	BrokenLinks []string    `json:"broken_links,omitempty"`
	BuildID     string      `json:"build_id,omitempty"`
	ErrorType   string      `json:"error_type,omitempty"` // Error category (on failure)
	BuiltAt     time.Time   `json:"built_at"`
}

// Diagnostic is a non-fatal finding reported while generating a document
type Diagnostic struct {
	Source     string         `json:"source" yaml:"source"`
	Variant    Variant        `json:"variant,omitempty" yaml:"variant,omitempty"`
	Kind       DiagnosticKind `json:"kind" yaml:"kind"`
	Message    string         `json:"message" yaml:"message"`
	Fragment   string         `json:"fragment,omitempty" yaml:"fragment,omitempty"`
	Suggestion string         `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
}

// BuildManifest holds the metadata of one generation run, written next to the outputs.
type BuildManifest struct {
	BuildID     string          `yaml:"build_id"`
	Edge        string          `yaml:"edge,omitempty"`
	Version     string          `yaml:"version,omitempty"`
	Language    string          `yaml:"language,omitempty"`
	StartTime   time.Time       `yaml:"start_time"`
	EndTime     time.Time       `yaml:"end_time"`
	TotalBuilt  int             `yaml:"total_built"`
	Guides      []GuideMetadata `yaml:"guides"`
	Diagnostics []Diagnostic    `yaml:"diagnostics,omitempty"`
}

// GuideMetadata holds metadata for a single generated page.
type GuideMetadata struct {
	Source      string    `yaml:"source"`
	Output      string    `yaml:"output"`
	Variant     Variant   `yaml:"variant"`
	Title       string    `yaml:"title,omitempty"`
	Anchors     int       `yaml:"anchors"`
	BrokenLinks int       `yaml:"broken_links,omitempty"`
	SourceHash  string    `yaml:"source_hash,omitempty"`
	BuiltAt     time.Time `yaml:"built_at"`
}
