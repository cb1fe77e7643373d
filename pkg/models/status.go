package models

// BuildStatus represents the generation status of a target in the database
type BuildStatus string

const (
	BuildStatusUnset    BuildStatus = ""          // Zero value = unset/unknown
	BuildStatusSuccess  BuildStatus = "success"   // Generated without diagnostics
	BuildStatusWarning  BuildStatus = "warning"   // Generated, but with broken links or other diagnostics
	BuildStatusFailure  BuildStatus = "failure"   // Rendering or layout failed
	BuildStatusSkipped  BuildStatus = "skipped"   // Output already up to date
	BuildStatusNotFound BuildStatus = "not_found" // Target not in database
	BuildStatusDBError  BuildStatus = "db_error"  // Database error occurred
)

// String implements fmt.Stringer for logging
func (s BuildStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsValid returns true if the status is a known operational value
func (s BuildStatus) IsValid() bool {
	switch s {
	case BuildStatusSuccess, BuildStatusWarning, BuildStatusFailure, BuildStatusSkipped:
		return true
	}
	return false
}

// DiagnosticKind classifies a Diagnostic
type DiagnosticKind string

const (
	DiagnosticMissingHeader   DiagnosticKind = "missing_header"
	DiagnosticDuplicateAnchor DiagnosticKind = "duplicate_anchor"
	DiagnosticBrokenLink      DiagnosticKind = "broken_link"
	DiagnosticEmptySlug       DiagnosticKind = "empty_slug"
	DiagnosticRenderError     DiagnosticKind = "render_error"
)

// String implements fmt.Stringer for logging
func (k DiagnosticKind) String() string {
	return string(k)
}
