package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/guidegen/pkg/config"
	"github.com/Sriram-PR/guidegen/pkg/generate"
	"github.com/Sriram-PR/guidegen/pkg/layout"
)

// Builder runs one generation pass over the source directory. Run only
// regenerates stale outputs; RunAll regenerates everything.
type Builder interface {
	Run(ctx context.Context) (*generate.RunResult, error)
	RunAll(ctx context.Context) (*generate.RunResult, error)
}

// Scheduler rebuilds guides when the source directory changes and, optionally,
// on a fixed interval
type Scheduler struct {
	builder   Builder
	sourceDir string
	debounce  time.Duration
	interval  time.Duration
	log       *logrus.Entry

	mu     sync.Mutex
	status Status
}

// Status contains the outcome of the most recent rebuild
type Status struct {
	Runs          int
	LastRunTime   time.Time
	LastBuildID   string
	LastGenerated int
	LastFailures  int
	LastWarnings  int
	LastError     string
	LastTrigger   string
	LastAll       bool // last rebuild ignored timestamps
}

// NewScheduler creates a new watch scheduler
func NewScheduler(builder Builder, sourceDir string, cfg config.WatchConfig, log *logrus.Entry) *Scheduler {
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Scheduler{
		builder:   builder,
		sourceDir: sourceDir,
		debounce:  debounce,
		interval:  cfg.Interval,
		log:       log.WithField("component", "watch"),
	}
}

// Run builds once, then keeps rebuilding on source changes until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.sourceDir); err != nil {
		return fmt.Errorf("watching %s: %w", s.sourceDir, err)
	}

	s.log.Infof("Starting watch mode on %s (debounce %v)", s.sourceDir, s.debounce)
	s.rebuild(ctx, "startup", false)

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
		s.log.Infof("Periodic rebuild every %s", FormatInterval(s.interval))
	}

	debounce := time.NewTimer(s.debounce)
	debounce.Stop()
	defer debounce.Stop()
	changed := ""
	templateChanged := false

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Watch scheduler shutting down...")
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			s.log.Debugf("File change detected: %s (%s)", ev.Name, ev.Op)
			changed = filepath.Base(ev.Name)
			if layout.IsTemplateSource(changed) {
				templateChanged = true
			}
			debounce.Reset(s.debounce)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warnf("Watcher error: %v", err)
		case <-debounce.C:
			s.rebuild(ctx, "change: "+changed, templateChanged)
			templateChanged = false
		case <-tick:
			s.rebuild(ctx, "interval", false)
		}
	}
}

// relevant reports whether an event may change generated output.
func relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	name := filepath.Base(ev.Name)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp") {
		return false
	}
	return strings.HasSuffix(name, ".md") || strings.HasSuffix(name, ".erb")
}

// rebuild runs the builder and records its outcome. Outputs are newer than
// their sources after a template edit, so all skips the staleness check.
func (s *Scheduler) rebuild(ctx context.Context, trigger string, all bool) {
	var result *generate.RunResult
	var err error
	if all {
		s.log.Infof("Rebuilding all guides (%s)", trigger)
		result, err = s.builder.RunAll(ctx)
	} else {
		s.log.Infof("Rebuilding guides (%s)", trigger)
		result, err = s.builder.Run(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Runs++
	s.status.LastRunTime = time.Now()
	s.status.LastTrigger = trigger
	s.status.LastAll = all
	s.status.LastError = ""
	if err != nil {
		s.status.LastError = err.Error()
		s.log.Errorf("Rebuild failed: %v", err)
	}
	if result != nil {
		s.status.LastBuildID = result.BuildID
		s.status.LastGenerated = result.Generated()
		s.status.LastFailures = len(result.Failures())
		s.status.LastWarnings = len(result.Warnings)
		for _, w := range result.Warnings {
			s.log.Warn(w)
		}
	}
	if s.interval > 0 {
		next := s.status.LastRunTime.Add(s.interval)
		s.log.Infof("Next periodic rebuild in %s (at %s)", FormatInterval(s.interval), next.Format("15:04:05"))
	}
}

// GetStatus returns the outcome of the most recent rebuild
func (s *Scheduler) GetStatus() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// FormatInterval formats a duration for display
func FormatInterval(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		mins := int(d.Minutes()) % 60
		if mins > 0 {
			return fmt.Sprintf("%dh%dm", hours, mins)
		}
		return fmt.Sprintf("%dh", hours)
	}
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	if hours > 0 {
		return fmt.Sprintf("%dd%dh", days, hours)
	}
	return fmt.Sprintf("%dd", days)
}

// ParseInterval parses a duration string with support for days
func ParseInterval(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err == nil {
		return d, nil
	}

	var days int
	var remaining string
	n, _ := fmt.Sscanf(s, "%dd%s", &days, &remaining)
	if n >= 1 {
		d = time.Duration(days) * 24 * time.Hour
		if remaining != "" {
			extra, err := time.ParseDuration(remaining)
			if err != nil {
				return 0, fmt.Errorf("invalid interval format: %s", s)
			}
			d += extra
		}
		return d, nil
	}

	return 0, fmt.Errorf("invalid interval format: %s (examples: 30s, 5m, 1h, 1d)", s)
}
