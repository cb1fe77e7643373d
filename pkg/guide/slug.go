package guide

import (
	"regexp"
	"strings"
)

var (
	slugPunctuation = regexp.MustCompile("[" + `\\/` + "`" + `*_{}\[\]()#+\-.!:,;|&<>^~='"` + "]+")
	slugWhitespace  = regexp.MustCompile(`\s+`)
)

// Slug derives an anchor id from heading text. It returns "" when the text
// contains nothing but punctuation and whitespace.
func Slug(text string) string {
	s := strings.ToLower(text)
	s = strings.ReplaceAll(s, "?", "-questionmark")
	s = strings.ReplaceAll(s, "!", "-bang")
	s = slugPunctuation.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	return slugWhitespace.ReplaceAllString(s, "-")
}
