package layout

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/guidegen/pkg/utils"
)

// Layout names, resolved to "<name>.html.erb" in the source directory.
const (
	GuideLayout  = "layout"
	SlidesLayout = "slides_layout"
)

const templateExt = ".html.erb"

// IsTemplateSource reports whether a source file name is a layout or a
// partial. Either one feeds every generated page.
func IsTemplateSource(name string) bool {
	if !strings.HasSuffix(name, ".erb") {
		return false
	}
	if strings.HasPrefix(name, "_") {
		return true
	}
	base, _, _ := strings.Cut(name, ".")
	return base == GuideLayout || base == SlidesLayout
}

//go:embed templates/*.html.erb
var defaultTemplates embed.FS

// Page carries the named content slots of one generated page.
type Page struct {
	Title       string
	Description string
	HeaderH2    string
	Header      template.HTML
	Body        template.HTML
	Index       template.HTML
	SourceFile  string
	OutputPath  string

	Edge      string
	Version   string
	Language  string
	Direction string
	BuildID   string
}

// Renderer wraps a page's slots into a complete HTML document.
type Renderer interface {
	Render(layout string, page *Page) ([]byte, error)
}

// TemplateRenderer renders pages with html/template layouts. Layouts and
// "_name.html.erb" partials in the source directory take precedence over the
// built-in layouts. Parsed layouts are cached; it is safe for concurrent use.
type TemplateRenderer struct {
	sourceDir string
	log       *logrus.Entry

	mu    sync.Mutex
	cache map[string]*template.Template
}

// NewTemplateRenderer creates a renderer reading templates from sourceDir.
func NewTemplateRenderer(sourceDir string, log *logrus.Entry) *TemplateRenderer {
	return &TemplateRenderer{
		sourceDir: sourceDir,
		log:       log.WithField("component", "layout"),
		cache:     make(map[string]*template.Template),
	}
}

var funcs = template.FuncMap{
	"shortEdge": func(edge string) string {
		if len(edge) > 7 {
			return edge[:7]
		}
		return edge
	},
	"lower": strings.ToLower,
}

// Render executes the named layout with page.
func (r *TemplateRenderer) Render(layout string, page *Page) ([]byte, error) {
	tmpl, err := r.load(layout)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, layout, page); err != nil {
		return nil, utils.WrapErrorf(utils.ErrLayout, "executing layout %s for %s: %v", layout, page.SourceFile, err)
	}
	return buf.Bytes(), nil
}

// RenderTemplate executes the source page "<name>.<format>.erb" as the page body,
// with the layout's partials available, and wraps the result in the layout.
func (r *TemplateRenderer) RenderTemplate(layout, name, format string, page *Page) ([]byte, error) {
	path := filepath.Join(r.sourceDir, name+"."+format+".erb")
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading template %s: %w", utils.ErrFilesystem, path, err)
	}

	// executed sets cannot be extended, so page bodies get an uncached set
	set, err := r.parse(layout)
	if err != nil {
		return nil, err
	}
	body, err := set.New(name).Parse(string(content))
	if err != nil {
		return nil, utils.WrapErrorf(utils.ErrLayout, "parsing template %s: %v", path, err)
	}
	var buf bytes.Buffer
	if err := body.Execute(&buf, page); err != nil {
		return nil, utils.WrapErrorf(utils.ErrLayout, "executing template %s: %v", path, err)
	}

	withBody := *page
	withBody.Body = template.HTML(buf.String())
	return r.Render(layout, &withBody)
}

// load returns the parsed template set for a layout, parsing it on first use.
func (r *TemplateRenderer) load(layout string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tmpl, ok := r.cache[layout]; ok {
		return tmpl, nil
	}
	tmpl, err := r.parse(layout)
	if err != nil {
		return nil, err
	}
	r.cache[layout] = tmpl
	return tmpl, nil
}

// parse builds the template set of a layout together with all partials.
func (r *TemplateRenderer) parse(layout string) (*template.Template, error) {
	source, origin, err := r.layoutSource(layout)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(layout).Funcs(funcs).Parse(source)
	if err != nil {
		return nil, utils.WrapErrorf(utils.ErrLayout, "parsing layout %s: %v", origin, err)
	}

	var partials []string
	if r.sourceDir != "" {
		partials, err = filepath.Glob(filepath.Join(r.sourceDir, "_*"+templateExt))
		if err != nil {
			return nil, utils.WrapErrorf(utils.ErrLayout, "listing partials: %v", err)
		}
	}
	for _, p := range partials {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("%w: reading partial %s: %w", utils.ErrFilesystem, p, err)
		}
		name := strings.TrimSuffix(filepath.Base(p), templateExt)
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return nil, utils.WrapErrorf(utils.ErrLayout, "parsing partial %s: %v", p, err)
		}
	}

	r.log.WithFields(logrus.Fields{"layout": layout, "origin": origin, "partials": len(partials)}).Debug("Layout parsed")
	return tmpl, nil
}

func (r *TemplateRenderer) layoutSource(layout string) (content, origin string, err error) {
	if r.sourceDir != "" {
		path := filepath.Join(r.sourceDir, layout+templateExt)
		data, readErr := os.ReadFile(path)
		if readErr == nil {
			return string(data), path, nil
		}
		if !errors.Is(readErr, os.ErrNotExist) {
			return "", "", fmt.Errorf("%w: reading layout %s: %w", utils.ErrFilesystem, path, readErr)
		}
	}
	data, readErr := defaultTemplates.ReadFile("templates/" + layout + templateExt)
	if readErr != nil {
		return "", "", utils.WrapErrorf(utils.ErrLayout, "unknown layout %q", layout)
	}
	return string(data), "built-in " + layout, nil
}

// Invalidate drops cached layouts so edited templates are picked up on the next render.
func (r *TemplateRenderer) Invalidate() {
	r.mu.Lock()
	r.cache = make(map[string]*template.Template)
	r.mu.Unlock()
}
