package utils

import (
	"regexp"
	"strings"
)

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`) // Characters invalid in Windows/Unix filenames
var consecutiveUnderscores = regexp.MustCompile(`_+`)
const maxFilenameLength = 100

// SanitizeFilename cleans a string (typically a directory path) so it can be used as a single
// path component, e.g. for naming the build state database of a source tree.
func SanitizeFilename(name string) string {
	sanitized := invalidFilenameChars.ReplaceAllString(name, "_")
	sanitized = consecutiveUnderscores.ReplaceAllString(sanitized, "_")
	sanitized = strings.Trim(sanitized, "_. ")

	if len(sanitized) > maxFilenameLength {
		sanitized = strings.Trim(sanitized[len(sanitized)-maxFilenameLength:], "_. ") // keep the most specific tail
	}

	if sanitized == "" {
		sanitized = "guides"
	}
	return sanitized
}
