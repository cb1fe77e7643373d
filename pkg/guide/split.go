package guide

import (
	"regexp"
	"strings"
)

// headerDelimiter is a line of 40 or more dashes separating the header from the body.
var headerDelimiter = regexp.MustCompile(`(?m)^-{40,}\r?$`)

// SplitMatch is the result of splitting a raw guide at its header delimiter.
type SplitMatch struct {
	Header string // Trimmed text before the delimiter line
	Body   string // Trimmed text after the delimiter line, or the whole text when Found is false
	Found  bool   // Whether a delimiter line was present
}

// SplitHeader separates a raw guide into header and body at the first delimiter line.
// Without a delimiter the whole text becomes the body.
func SplitHeader(raw string) SplitMatch {
	loc := headerDelimiter.FindStringIndex(raw)
	if loc == nil {
		return SplitMatch{Body: raw}
	}
	return SplitMatch{
		Header: strings.TrimSpace(raw[:loc[0]]),
		Body:   strings.TrimSpace(raw[loc[1]:]),
		Found:  true,
	}
}
