package generate

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/Sriram-PR/guidegen/pkg/config"
	"github.com/Sriram-PR/guidegen/pkg/guide"
	"github.com/Sriram-PR/guidegen/pkg/layout"
	"github.com/Sriram-PR/guidegen/pkg/linkcheck"
	"github.com/Sriram-PR/guidegen/pkg/markup"
	"github.com/Sriram-PR/guidegen/pkg/metrics"
	"github.com/Sriram-PR/guidegen/pkg/models"
	"github.com/Sriram-PR/guidegen/pkg/report"
	"github.com/Sriram-PR/guidegen/pkg/storage"
	"github.com/Sriram-PR/guidegen/pkg/utils"
)

// PageRenderer lays out generated documents and template pages.
type PageRenderer interface {
	layout.Renderer
	RenderTemplate(layout, name, format string, page *layout.Page) ([]byte, error)
}

// invalidator is implemented by renderers that cache parsed layouts.
type invalidator interface {
	Invalidate()
}

// Options holds the optional collaborators of an Orchestrator.
type Options struct {
	Markup  guide.Markup          // nil = goldmark renderer
	Layouts PageRenderer          // nil = layouts from the source directory
	Store   storage.BuildRecorder // nil = builds are not recorded
	Metrics metrics.Recorder      // nil = metrics.NoopRecorder
}

// TargetResult is the outcome of one variant of one source file
type TargetResult struct {
	Target      models.BuildTarget
	Variant     models.Variant
	Output      string // Path of the written (or, in a dry run, would-be) output
	Status      models.BuildStatus
	Title       string
	Anchors     int
	BrokenLinks []string
	SourceHash  string
	Error       error
	Duration    time.Duration
	BuiltAt     time.Time
}

// RunResult is the outcome of one generation run
type RunResult struct {
	BuildID     string
	Results     []TargetResult
	Diagnostics *report.Collector
	Warnings    []string // "[WARN] BROKEN LINK(s): ..." lines, one per guide
	Lint        bool
	Duration    time.Duration
}

// Generated returns the number of targets rendered this run.
func (r *RunResult) Generated() int {
	n := 0
	for _, tr := range r.Results {
		if tr.Status == models.BuildStatusSuccess || tr.Status == models.BuildStatusWarning {
			n++
		}
	}
	return n
}

// Failures returns the results whose rendering or layout failed.
func (r *RunResult) Failures() []TargetResult {
	var failed []TargetResult
	for _, tr := range r.Results {
		if tr.Status == models.BuildStatusFailure {
			failed = append(failed, tr)
		}
	}
	return failed
}

// LintFailed reports whether a lint run found broken links in guides.
func (r *RunResult) LintFailed() bool {
	return r.Lint && len(r.Warnings) > 0
}

// ExitCode maps the run outcome to a process exit status.
func (r *RunResult) ExitCode() int {
	if r.LintFailed() || len(r.Failures()) > 0 {
		return 1
	}
	return 0
}

// Orchestrator generates the guide and slide pages of a source directory
type Orchestrator struct {
	appCfg *config.AppConfig
	log    *logrus.Entry

	generator *guide.Generator
	layouts   PageRenderer
	validator *linkcheck.Validator
	store     storage.BuildRecorder
	metrics   metrics.Recorder

	runMu sync.Mutex // One run at a time
}

// NewOrchestrator creates an orchestrator for appCfg, which must already be validated.
func NewOrchestrator(appCfg *config.AppConfig, opts Options, log *logrus.Entry) *Orchestrator {
	log = log.WithField("component", "generate")

	m := opts.Markup
	if m == nil {
		m = markup.NewRenderer()
	}
	layouts := opts.Layouts
	if layouts == nil {
		layouts = layout.NewTemplateRenderer(appCfg.SourcePath(), log)
	}
	rec := opts.Metrics
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}

	titles := guide.TitleOptions{Suffix: appCfg.TitleSuffix, Default: appCfg.DefaultTitle}
	return &Orchestrator{
		appCfg:    appCfg,
		log:       log,
		generator: guide.NewGenerator(m, titles, log),
		layouts:   layouts,
		validator: linkcheck.NewValidator(log),
		store:     opts.Store,
		metrics:   rec,
	}
}

// Targets lists the sources the orchestrator would consider, after filtering.
func (o *Orchestrator) Targets() ([]models.BuildTarget, error) {
	exclude, err := utils.CompileRegexPatterns(o.appCfg.ExcludePatterns)
	if err != nil {
		return nil, err
	}
	return Discover(o.appCfg.SourcePath(), o.appCfg.OnlyPrefixes(), exclude)
}

// Run generates every stale target. Documents are processed by a bounded
// worker pool; a failing document never stops the others. Diagnostics of all
// documents are merged into the result once every worker has returned.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	return o.run(ctx, o.appCfg.All)
}

// RunAll regenerates every target regardless of timestamps. Layout and partial
// edits change every page without touching any source.
func (o *Orchestrator) RunAll(ctx context.Context) (*RunResult, error) {
	return o.run(ctx, true)
}

func (o *Orchestrator) run(ctx context.Context, all bool) (*RunResult, error) {
	o.runMu.Lock()
	defer o.runMu.Unlock()

	startTime := time.Now()
	buildID := uuid.New().String()
	runLog := o.log.WithField("build_id", buildID)

	if inv, ok := o.layouts.(invalidator); ok {
		inv.Invalidate() // templates may have changed since the last run
	}

	targets, err := o.Targets()
	if err != nil {
		return nil, err
	}

	if !o.appCfg.DryRun() {
		if err := os.MkdirAll(o.appCfg.OutputPath(), 0755); err != nil {
			return nil, fmt.Errorf("%w: creating output directory %s: %w", utils.ErrFilesystem, o.appCfg.OutputPath(), err)
		}
	}

	workers := o.appCfg.NumWorkers
	if workers <= 0 {
		workers = 1
	}
	o.metrics.SetWorkers(workers)
	sem := semaphore.NewWeighted(int64(workers))

	runLog.Infof("Generating %d sources from %s with %d workers", len(targets), o.appCfg.SourcePath(), workers)

	type docOutcome struct {
		results   []TargetResult
		collector *report.Collector
	}
	outcomes := make([]docOutcome, len(targets))

	var wg sync.WaitGroup
	var runErr error
	for i, t := range targets {
		if t.Special {
			runLog.Debugf("Skipping template-only source %s", t.Source)
			continue
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			runErr = err
			runLog.Warnf("Generation interrupted before %s: %v", t.Source, err)
			break
		}
		wg.Add(1)
		go func(i int, t models.BuildTarget) {
			defer wg.Done()
			defer sem.Release(1)
			local := report.NewCollector()
			outcomes[i] = docOutcome{results: o.buildTarget(t, buildID, all, local), collector: local}
		}(i, t)
	}
	wg.Wait()

	result := &RunResult{
		BuildID:     buildID,
		Diagnostics: report.NewCollector(),
		Lint:        o.appCfg.Lint,
	}
	for _, out := range outcomes {
		result.Results = append(result.Results, out.results...)
		result.Diagnostics.Merge(out.collector)
		for _, tr := range out.results {
			if tr.Variant == models.VariantGuide && len(tr.BrokenLinks) > 0 {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("[WARN] BROKEN LINK(s): %s: %s", tr.Target.Source, strings.Join(tr.BrokenLinks, ", ")))
			}
		}
	}
	result.Duration = time.Since(startTime)

	if o.appCfg.EnableManifest && !o.appCfg.DryRun() && runErr == nil {
		if err := o.writeManifest(result, startTime); err != nil {
			runLog.Errorf("Failed to write build manifest: %v", err)
		}
	}

	o.metrics.ObserveBuildDuration(result.Duration)
	o.metrics.IncBuildOutcome(outcomeOf(result, runErr))
	o.logSummary(runLog, result)

	return result, runErr
}

func outcomeOf(r *RunResult, runErr error) metrics.Outcome {
	switch {
	case errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded):
		return metrics.OutcomeCanceled
	case runErr != nil || r.ExitCode() != 0:
		return metrics.OutcomeFailed
	case r.Diagnostics.Len() > 0:
		return metrics.OutcomeWarning
	}
	return metrics.OutcomeSuccess
}

// variants returns the variants generated for every source.
func (o *Orchestrator) variants() []models.Variant {
	if o.appCfg.GetEffectiveSlides() {
		return []models.Variant{models.VariantGuide, models.VariantSlide}
	}
	return []models.Variant{models.VariantGuide}
}

func layoutFor(v models.Variant) string {
	if v == models.VariantSlide {
		return layout.SlidesLayout
	}
	return layout.GuideLayout
}

// buildTarget generates the stale variants of one source, or all of them when all is set. The markdown is
// rendered and structured once and laid out for each variant.
func (o *Orchestrator) buildTarget(t models.BuildTarget, buildID string, all bool, collector *report.Collector) []TargetResult {
	docLog := o.log.WithFields(logrus.Fields{"guide": t.Source, "build_id": buildID})

	var doc *guide.Document
	var raw []byte
	var renderErr error
	rendered := false

	var results []TargetResult
	for _, v := range o.variants() {
		start := time.Now()
		res := TargetResult{
			Target:  t,
			Variant: v,
			Output:  filepath.Join(o.appCfg.OutputPath(), filepath.Base(t.OutputFor(v))),
		}

		stale, err := NeedsGeneration(t.SourcePath, res.Output, all)
		if err != nil {
			docLog.Errorf("Cannot decide whether %s is stale: %v", res.Output, err)
			res.Status = models.BuildStatusFailure
			res.Error = err
			results = append(results, o.finish(res, start, buildID, docLog))
			continue
		}
		if !stale {
			docLog.Debugf("%s is up to date", res.Output)
			res.Status = models.BuildStatusSkipped
			results = append(results, res)
			continue
		}

		if v == models.VariantGuide {
			docLog.Infof("Generating %s as %s", t.Source, filepath.Base(res.Output))
		}

		if !rendered {
			raw, doc, renderErr = o.renderSource(t, collector)
			rendered = true
		}
		if raw != nil {
			res.SourceHash = utils.CalculateBytesSHA256(raw)
		}
		if renderErr != nil {
			res.Status = models.BuildStatusFailure
			res.Error = renderErr
			results = append(results, o.finish(res, start, buildID, docLog))
			continue
		}

		page := o.page(doc, res.Output, buildID)
		var html []byte
		if t.Template {
			html, err = o.layouts.RenderTemplate(layoutFor(v), t.TemplateName, t.TemplateFmt, page)
		} else {
			res.Title = doc.Title
			res.Anchors = len(doc.Anchors())
			html, err = o.layouts.Render(layoutFor(v), page)
		}
		if err != nil {
			res.Status = models.BuildStatusFailure
			res.Error = err
			collector.Add(models.Diagnostic{Source: t.Source, Variant: v, Kind: models.DiagnosticRenderError, Message: err.Error()})
			results = append(results, o.finish(res, start, buildID, docLog))
			continue
		}

		res.Status = models.BuildStatusSuccess
		if !t.Template {
			broken, err := o.validator.Validate(t.Source, v, string(html), collector)
			if err != nil {
				docLog.Warnf("Link validation of %s failed: %v", res.Output, err)
			}
			if len(broken) > 0 {
				res.BrokenLinks = broken
				res.Status = models.BuildStatusWarning
			}
		}

		if !o.appCfg.DryRun() {
			if err := os.WriteFile(res.Output, html, 0644); err != nil {
				res.Status = models.BuildStatusFailure
				res.Error = fmt.Errorf("%w: writing %s: %w", utils.ErrFilesystem, res.Output, err)
			}
		}
		results = append(results, o.finish(res, start, buildID, docLog))
	}
	return results
}

// renderSource reads a source and, for markdown sources, renders its Document.
// Template pages get a Document carrying only the default title.
func (o *Orchestrator) renderSource(t models.BuildTarget, collector *report.Collector) ([]byte, *guide.Document, error) {
	raw, err := os.ReadFile(t.SourcePath)
	if err != nil {
		err = fmt.Errorf("%w: reading %s: %w", utils.ErrFilesystem, t.SourcePath, err)
		collector.Add(models.Diagnostic{Source: t.Source, Kind: models.DiagnosticRenderError, Message: err.Error()})
		return nil, nil, err
	}
	if t.Template {
		return raw, &guide.Document{Source: t.Source, Title: o.appCfg.DefaultTitle, HeaderH2: guide.NoHeading}, nil
	}
	doc, err := o.generator.Render(t.Source, string(raw), collector)
	if err != nil {
		collector.Add(models.Diagnostic{Source: t.Source, Kind: models.DiagnosticRenderError, Message: err.Error()})
		return raw, nil, err
	}
	return raw, doc, nil
}

func (o *Orchestrator) page(doc *guide.Document, output, buildID string) *layout.Page {
	p := &layout.Page{
		Title:       doc.Title,
		Description: doc.Description,
		HeaderH2:    doc.HeaderH2,
		Header:      template.HTML(doc.HeaderHTML),
		Body:        template.HTML(doc.BodyHTML),
		SourceFile:  doc.Source,
		OutputPath:  filepath.Base(output),
		Edge:        o.appCfg.Edge,
		Version:     o.appCfg.Version,
		Language:    o.appCfg.Language,
		Direction:   o.appCfg.Direction,
		BuildID:     buildID,
	}
	if doc.HasIndex {
		p.Index = template.HTML(doc.IndexHTML)
	}
	return p
}

// finish stamps timing, records the result in the store and metrics, and logs failures.
func (o *Orchestrator) finish(res TargetResult, start time.Time, buildID string, docLog *logrus.Entry) TargetResult {
	res.Duration = time.Since(start)
	res.BuiltAt = time.Now()
	variant := string(res.Variant)

	o.metrics.ObserveDocumentDuration(variant, res.Duration)
	o.metrics.IncDocumentResult(variant, res.Status.String())
	o.metrics.AddBrokenLinks(variant, len(res.BrokenLinks))

	if res.Error != nil {
		docLog.WithField("variant", variant).Errorf("Failed to generate %s: %v", filepath.Base(res.Output), res.Error)
	}

	if o.store != nil && !o.appCfg.DryRun() {
		entry := &models.BuildEntry{
			Status:      res.Status,
			Source:      res.Target.Source,
			SourceHash:  res.SourceHash,
			Title:       res.Title,
			Anchors:     res.Anchors,
			BrokenLinks: res.BrokenLinks,
			BuildID:     buildID,
			BuiltAt:     res.BuiltAt,
		}
		if res.Error != nil {
			entry.ErrorType = utils.CategorizeError(res.Error)
		}
		if err := o.store.Record(res.Variant, filepath.Base(res.Output), entry); err != nil {
			docLog.Warnf("Failed to record build of %s: %v", filepath.Base(res.Output), err)
		}
	}
	return res
}

// logSummary logs a summary of the run
func (o *Orchestrator) logSummary(runLog *logrus.Entry, r *RunResult) {
	counts := make(map[models.BuildStatus]int)
	for _, tr := range r.Results {
		counts[tr.Status]++
	}
	keys := make([]string, 0, len(counts))
	for s := range counts {
		keys = append(keys, string(s))
	}
	sort.Strings(keys)

	runLog.Info("============================================")
	runLog.Infof("Generation completed in %v", r.Duration)
	for _, k := range keys {
		runLog.Infof("  %s: %d", models.BuildStatus(k), counts[models.BuildStatus(k)])
	}
	for _, f := range r.Failures() {
		runLog.Infof("  FAILED %s (%s): %v", f.Target.Source, f.Variant, f.Error)
	}
	if r.LintFailed() {
		for _, w := range r.Warnings {
			runLog.Warn(w)
		}
	}
	runLog.Info("--------------------------------------------")
	runLog.Infof("Total: %d targets (%d generated, %d failed), %d diagnostics",
		len(r.Results), r.Generated(), len(r.Failures()), r.Diagnostics.Len())
	runLog.Info("============================================")
}
