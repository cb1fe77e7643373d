package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/guidegen/pkg/config"
	"github.com/Sriram-PR/guidegen/pkg/generate"
	guidelog "github.com/Sriram-PR/guidegen/pkg/log"
	"github.com/Sriram-PR/guidegen/pkg/metrics"
	"github.com/Sriram-PR/guidegen/pkg/storage"
	"github.com/Sriram-PR/guidegen/pkg/watch"
)

const version = "0.4.0"

const defaultConfigFile = "guides.yaml"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		runGenerate(os.Args[2:], false)
	case "lint":
		runGenerate(os.Args[2:], true)
	case "watch":
		runWatch(os.Args[2:])
	case "validate":
		runValidate(os.Args[2:])
	case "list-guides":
		runListGuides(os.Args[2:])
	case "status":
		runStatus(os.Args[2:])
	case "mcp-server":
		runMcpServer(os.Args[2:])
	case "version":
		fmt.Printf("guidegen %s\n", version)
	case "-h", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printUsageTo(os.Stdout)
}

// printUsageTo writes usage information to the provided writer.
func printUsageTo(w io.Writer) {
	fmt.Fprintln(w, `guidegen - Guide and slide page generator

Usage:
  guidegen <command> [options]

Commands:
  generate     Generate stale guides and slides
  lint         Check every guide for broken links without writing output
  watch        Regenerate guides whenever the sources change
  validate     Validate configuration file
  list-guides  List the guides found in the source directory
  status       Show the recorded outcome of previous builds
  mcp-server   Start MCP server for AI tool integration
  version      Show version info

Run 'guidegen <command> -h' for command-specific help.`)
}

// buildFlags holds the options shared by generate, lint and watch
type buildFlags struct {
	configPath   string
	logLevel     string
	all          bool
	only         string
	language     string
	direction    string
	edge         string
	versionLabel string
	workers      int
	fresh        bool
}

// register adds the shared options to fs
func (f *buildFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configPath, "config", defaultConfigFile, "Path to config file")
	fs.StringVar(&f.logLevel, "loglevel", "info", "Log level (debug, info, warn, error)")
	fs.BoolVar(&f.all, "all", false, "Regenerate every target regardless of timestamps")
	fs.StringVar(&f.only, "only", "", "Comma-separated source name prefixes to generate")
	fs.StringVar(&f.language, "language", "", "Language subdirectory of the source and output dirs")
	fs.StringVar(&f.direction, "direction", "", "Text direction (ltr, rtl)")
	fs.StringVar(&f.edge, "edge", "", "Edge revision shown in the layout ('auto' reads git HEAD)")
	fs.StringVar(&f.versionLabel, "version-label", "", "Release version shown in the layout")
	fs.IntVar(&f.workers, "workers", 0, "Number of documents generated in parallel")
	fs.BoolVar(&f.fresh, "fresh", false, "Wipe the build state database before running")
}

// apply overrides config values with the options given on the command line
func (f *buildFlags) apply(cfg *config.AppConfig) {
	if f.all {
		cfg.All = true
	}
	if f.only != "" {
		cfg.Only = f.only
	}
	if f.language != "" {
		cfg.Language = f.language
	}
	if f.direction != "" {
		cfg.Direction = f.direction
	}
	if f.edge != "" {
		cfg.Edge = f.edge
	}
	if f.versionLabel != "" {
		cfg.Version = f.versionLabel
	}
	if f.workers > 0 {
		cfg.NumWorkers = f.workers
	}
}

// loadConfig loads the config file and applies GUIDES_* environment overrides.
// Validation is left to the caller.
func loadConfig(path string) (*config.AppConfig, []string, error) {
	if _, err := config.LoadDotEnv(".env"); err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	warnings := cfg.ApplyEnv(os.LookupEnv)
	return &cfg, warnings, nil
}

// prepareConfig loads, overrides and validates the configuration for a build command.
func prepareConfig(f *buildFlags, log *logrus.Logger) (*config.AppConfig, error) {
	log.Infof("Loading configuration from %s", f.configPath)
	appCfg, envWarnings, err := loadConfig(f.configPath)
	if err != nil {
		return nil, err
	}
	f.apply(appCfg)

	warnings, err := appCfg.Validate()
	for _, w := range append(envWarnings, warnings...) {
		log.Warn(w)
	}
	if err != nil {
		return nil, err
	}
	if err := appCfg.ResolveEdge(appCfg.SourceDir); err != nil {
		return nil, err
	}
	logAppConfig(appCfg, log)
	return appCfg, nil
}

// openStore opens the build database when a state directory is configured.
// It returns nil without error when the store is disabled.
func openStore(ctx context.Context, appCfg *config.AppConfig, fresh bool, log *logrus.Logger) (*storage.BadgerStore, error) {
	if appCfg.StateDir == "" {
		log.Debug("No state_dir configured, build records disabled")
		return nil, nil
	}
	store, err := storage.NewBadgerStore(ctx, appCfg.StateDir, appCfg.SourcePath(), fresh, log.WithField("component", "storage"))
	if err != nil {
		return nil, err
	}
	go store.RunGC(ctx, 10*time.Minute)
	return store, nil
}

// runGenerate handles the generate and lint subcommands
func runGenerate(args []string, lint bool) {
	cmdName := "generate"
	if lint {
		cmdName = "lint"
	}

	var f buildFlags
	fs := flag.NewFlagSet(cmdName, flag.ExitOnError)
	f.register(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: guidegen %s [options]\n\nOptions:\n", cmdName)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  guidegen %s -config guides.yaml\n", cmdName)
		fmt.Fprintf(os.Stderr, "  guidegen %s -only routing,caching -all\n", cmdName)
		fmt.Fprintf(os.Stderr, "  guidegen %s -language pt-BR -direction ltr\n", cmdName)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exitCode := doGenerate(ctx, &f, lint, os.Stdout, os.Stderr)
	stop()
	os.Exit(exitCode)
}

// doGenerate runs one generation pass. Broken link warnings are written to stdout.
// Returns exit code (0 = success, 1 = failures or lint errors).
func doGenerate(ctx context.Context, f *buildFlags, lint bool, stdout, stderr io.Writer) int {
	log := guidelog.New(f.logLevel, stderr)

	appCfg, err := prepareConfig(f, log)
	if err != nil {
		fmt.Fprintf(stderr, "Config error: %v\n", err)
		return 1
	}
	if lint {
		// every guide is checked, nothing is written
		appCfg.Lint = true
		appCfg.All = true
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := generate.Options{}
	if !appCfg.DryRun() {
		store, err := openStore(ctx, appCfg, f.fresh, log)
		if err != nil {
			fmt.Fprintf(stderr, "Failed to open build database: %v\n", err)
			return 1
		}
		if store != nil {
			defer store.Close()
			opts.Store = store
		}
	}

	orch := generate.NewOrchestrator(appCfg, opts, log.WithField("command", "generate"))
	result, err := orch.Run(ctx)
	if result != nil {
		for _, w := range result.Warnings {
			fmt.Fprintln(stdout, w)
		}
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Generation cancelled gracefully.")
			return 0
		}
		log.Errorf("Generation finished with error: %v", err)
		return 1
	}

	if result.LintFailed() {
		fmt.Fprintf(stderr, "Lint failed: %d guides have broken links\n", len(result.Warnings))
	}
	for _, failed := range result.Failures() {
		fmt.Fprintf(stderr, "FAILED: %s (%s): %s\n", failed.Target.Source, failed.Variant, failed.Error)
	}
	return result.ExitCode()
}

// runWatch handles the watch subcommand
func runWatch(args []string) {
	var f buildFlags
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	f.register(fs)
	interval := fs.String("interval", "", "Periodic rebuild interval (e.g., 30m, 1h, 1d; empty = only on changes)")
	metricsAddr := fs.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g., :9090)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: guidegen watch [options]\n\nOptions:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  guidegen watch -config guides.yaml\n")
		fmt.Fprintf(os.Stderr, "  guidegen watch -interval 1h -metrics-addr :9090\n")
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exitCode := doWatch(ctx, &f, *interval, *metricsAddr, os.Stderr)
	stop()
	os.Exit(exitCode)
}

// doWatch runs the watch scheduler until ctx is cancelled.
func doWatch(ctx context.Context, f *buildFlags, intervalStr, metricsAddr string, stderr io.Writer) int {
	log := guidelog.New(f.logLevel, stderr)

	appCfg, err := prepareConfig(f, log)
	if err != nil {
		fmt.Fprintf(stderr, "Config error: %v\n", err)
		return 1
	}
	if appCfg.Lint {
		log.Warn("Lint mode is ignored in watch mode")
		appCfg.Lint = false
	}
	if intervalStr != "" {
		interval, err := watch.ParseInterval(intervalStr)
		if err != nil {
			fmt.Fprintf(stderr, "Invalid interval: %v\n", err)
			return 1
		}
		appCfg.Watch.Interval = interval
	}
	if metricsAddr != "" {
		appCfg.Watch.MetricsAddr = metricsAddr
	}

	opts := generate.Options{}
	store, err := openStore(ctx, appCfg, f.fresh, log)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to open build database: %v\n", err)
		return 1
	}
	if store != nil {
		defer store.Close()
		opts.Store = store
	}

	if appCfg.Watch.MetricsAddr != "" {
		reg := prom.NewRegistry()
		opts.Metrics = metrics.NewPrometheusRecorder(reg)
		srv := startMetricsServer(appCfg.Watch.MetricsAddr, reg, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	orch := generate.NewOrchestrator(appCfg, opts, log.WithField("command", "watch"))
	scheduler := watch.NewScheduler(orch, appCfg.SourcePath(), appCfg.Watch, log.WithField("command", "watch"))

	if err := scheduler.Run(ctx); err != nil {
		log.Errorf("Watch scheduler error: %v", err)
		return 1
	}

	status := scheduler.GetStatus()
	log.Infof("Watch mode stopped after %d builds", status.Runs)
	return 0
}

// startMetricsServer serves reg on addr in the background.
func startMetricsServer(addr string, reg *prom.Registry, log *logrus.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Infof("Serving metrics at http://%s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("Metrics server error: %v", err)
		}
	}()
	return srv
}

// runValidate handles the validate subcommand
func runValidate(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	configFile := fs.String("config", defaultConfigFile, "Path to config file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: guidegen validate [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	exitCode := doValidate(*configFile, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doValidate performs validation and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doValidate(configPath string, stdout, stderr io.Writer) int {
	appCfg, envWarnings, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	warnings, err := appCfg.Validate()
	for _, w := range append(envWarnings, warnings...) {
		fmt.Fprintf(stdout, "WARN: %s\n", w)
	}
	if err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return 1
	}

	info, err := os.Stat(appCfg.SourcePath())
	switch {
	case err != nil:
		fmt.Fprintf(stderr, "ERROR: source directory %s: %v\n", appCfg.SourcePath(), err)
		return 1
	case !info.IsDir():
		fmt.Fprintf(stderr, "ERROR: source path %s is not a directory\n", appCfg.SourcePath())
		return 1
	}
	fmt.Fprintf(stdout, "OK: source %s\n", appCfg.SourcePath())
	fmt.Fprintf(stdout, "OK: output %s\n", appCfg.OutputPath())

	if appCfg.Edge == config.EdgeAuto {
		if err := appCfg.ResolveEdge(appCfg.SourceDir); err != nil {
			fmt.Fprintf(stderr, "ERROR: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "OK: edge resolved to %s\n", appCfg.Edge)
	}

	fmt.Fprintln(stdout, "\nConfiguration valid.")
	return 0
}

// runListGuides handles the list-guides subcommand
func runListGuides(args []string) {
	fs := flag.NewFlagSet("list-guides", flag.ExitOnError)
	configFile := fs.String("config", defaultConfigFile, "Path to config file")
	only := fs.String("only", "", "Comma-separated source name prefixes")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: guidegen list-guides [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	exitCode := doListGuides(*configFile, *only, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doListGuides lists generation targets and writes output to provided writers.
// Returns exit code (0 = success, 1 = error).
func doListGuides(configPath, only string, stdout, stderr io.Writer) int {
	appCfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if only != "" {
		appCfg.Only = only
	}
	if _, err := appCfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	targets, err := generate.NewOrchestrator(appCfg, generate.Options{}, logrus.NewEntry(log)).Targets()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Guides in %s:\n\n", appCfg.SourcePath())
	count := 0
	for _, t := range targets {
		if t.Special {
			continue
		}
		count++
		fmt.Fprintf(stdout, "  %s\n", t.Source)
		outputs := []string{t.Guide}
		if appCfg.GetEffectiveSlides() {
			outputs = append(outputs, t.Slide)
		}
		fmt.Fprintf(stdout, "    Outputs: %s\n", strings.Join(outputs, ", "))
		if t.Template {
			fmt.Fprintf(stdout, "    Template: %s (%s)\n", t.TemplateName, t.TemplateFmt)
		}
		fmt.Fprintln(stdout)
	}
	fmt.Fprintf(stdout, "%d guides\n", count)
	return 0
}

// runStatus handles the status subcommand
func runStatus(args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configFile := fs.String("config", defaultConfigFile, "Path to config file")
	logFile := fs.String("write-log", "", "Also write the records as a tab-separated build log to this file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: guidegen status [options]\n\nOptions:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	exitCode := doStatus(context.Background(), *configFile, *logFile, os.Stdout, os.Stderr)
	os.Exit(exitCode)
}

// doStatus prints the stored build records.
// Returns exit code (0 = success, 1 = error).
func doStatus(ctx context.Context, configPath, logFile string, stdout, stderr io.Writer) int {
	appCfg, _, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if _, err := appCfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if appCfg.StateDir == "" {
		fmt.Fprintln(stderr, "Error: state_dir is not configured, no build records are kept")
		return 1
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	store, err := storage.NewBadgerStore(ctx, appCfg.StateDir, appCfg.SourcePath(), false, logrus.NewEntry(log))
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer store.Close()

	records, err := store.List(ctx)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Build records for %s:\n\n", appCfg.SourcePath())
	for _, r := range records {
		fmt.Fprintf(stdout, "  %-6s %-40s %-8s %s", r.Variant, r.Output, r.Entry.Status, r.Entry.BuiltAt.Format(time.RFC3339))
		if n := len(r.Entry.BrokenLinks); n > 0 {
			fmt.Fprintf(stdout, "  broken links: %d", n)
		}
		if r.Entry.ErrorType != "" {
			fmt.Fprintf(stdout, "  error: %s", r.Entry.ErrorType)
		}
		fmt.Fprintln(stdout)
	}
	fmt.Fprintf(stdout, "\n%d records\n", len(records))

	if logFile != "" {
		if err := store.WriteBuildLog(logFile); err != nil {
			fmt.Fprintf(stderr, "Error writing build log: %v\n", err)
			return 1
		}
		fmt.Fprintf(stdout, "Build log written to %s\n", logFile)
	}
	return 0
}

// logAppConfig logs the effective configuration
func logAppConfig(appCfg *config.AppConfig, log *logrus.Logger) {
	log.Infof("Config: Source:%s, Output:%s, StateDir:%q, Workers:%d",
		appCfg.SourcePath(), appCfg.OutputPath(), appCfg.StateDir, appCfg.NumWorkers)
	log.Infof("Config: All:%t, Lint:%t, Only:%q, Slides:%t, Direction:%s",
		appCfg.All, appCfg.Lint, appCfg.Only, appCfg.GetEffectiveSlides(), appCfg.Direction)
	log.Infof("Config Layout: Edge:%q, Version:%q, Language:%q, Manifest:%t (%s)",
		appCfg.Edge, appCfg.Version, appCfg.Language, appCfg.EnableManifest, appCfg.ManifestFilename)
}
