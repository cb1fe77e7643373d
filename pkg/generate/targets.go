package generate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/Sriram-PR/guidegen/pkg/models"
	"github.com/Sriram-PR/guidegen/pkg/utils"
)

var guideFileRe = regexp.MustCompile(`\.(?:erb|md)$`)

// templateRe matches "<name>.<format>.erb" page templates.
var templateRe = regexp.MustCompile(`^(?P<name>.+)\.(?P<format>\w+)\.erb$`)

// Template sources that only exist to be included by other pages.
var specialTemplates = map[string]bool{
	"_license":      true,
	"_welcome":      true,
	"layout":        true,
	"slides_layout": true,
}

// templateMatch holds the named parts of a template source file name.
type templateMatch struct {
	Name   string
	Format string
	OK     bool
}

func matchTemplate(file string) templateMatch {
	m := templateRe.FindStringSubmatch(file)
	if m == nil {
		return templateMatch{}
	}
	return templateMatch{
		Name:   m[templateRe.SubexpIndex("name")],
		Format: m[templateRe.SubexpIndex("format")],
		OK:     true,
	}
}

// NewTarget derives the output names of a source file name.
// "routing.md" becomes "routing.html" and "slides_routing.html";
// "index.html.erb" becomes "index.html" and "slides_index.html".
func NewTarget(sourceDir, name string) models.BuildTarget {
	t := models.BuildTarget{
		Source:     name,
		SourcePath: filepath.Join(sourceDir, name),
	}

	var out string
	if strings.HasSuffix(name, ".md") {
		out = strings.TrimSuffix(name, "md") + "html"
	} else {
		out = strings.TrimSuffix(name, ".erb")
	}
	t.Guide = out
	t.Slide = "slides_" + out

	// .erb files without a format segment are rendered as markdown
	if m := matchTemplate(name); m.OK {
		t.Template = true
		t.TemplateName = m.Name
		t.TemplateFmt = m.Format
		t.Special = specialTemplates[m.Name]
	}
	return t
}

// Discover lists the guide sources directly inside sourceDir, sorted by name.
// A non-empty only keeps sources starting with one of its prefixes; names
// matching any exclude pattern are dropped.
func Discover(sourceDir string, only []string, exclude []*regexp.Regexp) ([]models.BuildTarget, error) {
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading source directory %s: %w", utils.ErrFilesystem, sourceDir, err)
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !guideFileRe.MatchString(name) {
			continue
		}
		if len(only) > 0 && !hasAnyPrefix(name, only) {
			continue
		}
		if utils.MatchesAny(exclude, name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	targets := make([]models.BuildTarget, 0, len(names))
	for _, name := range names {
		targets = append(targets, NewTarget(sourceDir, name))
	}
	return targets, nil
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

// NeedsGeneration reports whether outputPath must be (re)generated from
// sourcePath: always when all is set, otherwise when the output is missing or
// older than the source.
func NeedsGeneration(sourcePath, outputPath string, all bool) (bool, error) {
	if all {
		return true, nil
	}
	outInfo, err := os.Stat(outputPath)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: stat %s: %w", utils.ErrFilesystem, outputPath, err)
	}
	srcInfo, err := os.Stat(sourcePath)
	if err != nil {
		return false, fmt.Errorf("%w: stat %s: %w", utils.ErrFilesystem, sourcePath, err)
	}
	return outInfo.ModTime().Before(srcInfo.ModTime()), nil
}
