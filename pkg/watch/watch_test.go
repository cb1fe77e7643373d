package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/guidegen/pkg/config"
	"github.com/Sriram-PR/guidegen/pkg/generate"
	"github.com/Sriram-PR/guidegen/pkg/report"
)

func TestParseInterval(t *testing.T) {
	tests := []struct {
		input    string
		expected time.Duration
		wantErr  bool
	}{
		{"30s", 30 * time.Second, false},
		{"5m", 5 * time.Minute, false},
		{"1h", time.Hour, false},
		{"24h", 24 * time.Hour, false},
		{"1d", 24 * time.Hour, false},
		{"7d", 7 * 24 * time.Hour, false},
		{"1d12h", 36 * time.Hour, false},
		{"2d6h", 54 * time.Hour, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseInterval(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseInterval(%q) expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Errorf("ParseInterval(%q) unexpected error: %v", tt.input, err)
				return
			}
			if got != tt.expected {
				t.Errorf("ParseInterval(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormatInterval(t *testing.T) {
	tests := []struct {
		input    time.Duration
		expected string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{time.Hour, "1h"},
		{90 * time.Minute, "1h30m"},
		{24 * time.Hour, "1d"},
		{36 * time.Hour, "1d12h"},
		{7 * 24 * time.Hour, "7d"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			got := FormatInterval(tt.input)
			if got != tt.expected {
				t.Errorf("FormatInterval(%v) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func testLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

// fakeBuilder signals every run on runs.
type fakeBuilder struct {
	mu      sync.Mutex
	n       int
	allRuns int
	err     error
	runs    chan int
}

func newFakeBuilder() *fakeBuilder {
	return &fakeBuilder{runs: make(chan int, 16)}
}

func (f *fakeBuilder) Run(ctx context.Context) (*generate.RunResult, error) {
	return f.build(false)
}

func (f *fakeBuilder) RunAll(ctx context.Context) (*generate.RunResult, error) {
	return f.build(true)
}

func (f *fakeBuilder) build(all bool) (*generate.RunResult, error) {
	f.mu.Lock()
	f.n++
	if all {
		f.allRuns++
	}
	n := f.n
	f.mu.Unlock()
	select {
	case f.runs <- n:
	default:
	}
	return &generate.RunResult{BuildID: fmt.Sprintf("build-%d", n), Diagnostics: report.NewCollector()}, f.err
}

func waitRun(t *testing.T, f *fakeBuilder) int {
	t.Helper()
	select {
	case n := <-f.runs:
		return n
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a rebuild")
		return 0
	}
}

func startScheduler(t *testing.T, s *Scheduler) (context.CancelFunc, chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return cancel, done
}

func TestScheduler_RebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	builder := newFakeBuilder()
	s := NewScheduler(builder, dir, config.WatchConfig{Debounce: 50 * time.Millisecond}, testLogger())
	startScheduler(t, s)

	assert.Equal(t, 1, waitRun(t, builder))
	assert.Eventually(t, func() bool { return s.GetStatus().LastTrigger == "startup" }, time.Second, 10*time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "routing.md"), []byte("### Routing"), 0644))
	assert.Equal(t, 2, waitRun(t, builder))

	assert.Eventually(t, func() bool { return s.GetStatus().Runs >= 2 }, time.Second, 10*time.Millisecond)
	status := s.GetStatus()
	assert.Equal(t, "change: routing.md", status.LastTrigger)
	assert.NotEmpty(t, status.LastBuildID)
}

func TestScheduler_TemplateChangeRebuildsAll(t *testing.T) {
	dir := t.TempDir()
	builder := newFakeBuilder()
	s := NewScheduler(builder, dir, config.WatchConfig{Debounce: 50 * time.Millisecond}, testLogger())
	startScheduler(t, s)

	waitRun(t, builder)
	assert.Eventually(t, func() bool { return s.GetStatus().Runs == 1 }, time.Second, 10*time.Millisecond)
	assert.False(t, s.GetStatus().LastAll, "startup keeps the staleness check")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "_license.html.erb"), []byte("<p>License</p>"), 0644))
	waitRun(t, builder)
	assert.Eventually(t, func() bool { return s.GetStatus().Runs == 2 }, time.Second, 10*time.Millisecond)
	status := s.GetStatus()
	assert.True(t, status.LastAll)
	assert.Equal(t, "change: _license.html.erb", status.LastTrigger)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "routing.md"), []byte("### Routing"), 0644))
	waitRun(t, builder)
	assert.Eventually(t, func() bool { return s.GetStatus().Runs == 3 }, time.Second, 10*time.Millisecond)
	assert.False(t, s.GetStatus().LastAll, "guide edits only regenerate stale outputs")

	builder.mu.Lock()
	defer builder.mu.Unlock()
	assert.Equal(t, 1, builder.allRuns)
}

func TestScheduler_LayoutEditRegeneratesOutput(t *testing.T) {
	root := t.TempDir()
	cfg := &config.AppConfig{
		SourceDir:  filepath.Join(root, "source"),
		OutputDir:  filepath.Join(root, "output"),
		NumWorkers: 1,
		Watch:      config.WatchConfig{Debounce: 50 * time.Millisecond},
	}
	_, err := cfg.Validate()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(cfg.SourceDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.SourceDir, "caching.md"),
		[]byte("## Caching\n\n--------------------------------------------------------------------------------\n\n### Basic Caching\n"), 0644))

	orch := generate.NewOrchestrator(cfg, generate.Options{}, testLogger())
	s := NewScheduler(orch, cfg.SourcePath(), cfg.Watch, testLogger())
	startScheduler(t, s)

	output := filepath.Join(cfg.OutputPath(), "caching.html")
	assert.Eventually(t, func() bool {
		return s.GetStatus().Runs == 1 && s.GetStatus().LastGenerated == 2
	}, 5*time.Second, 10*time.Millisecond)
	before, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.NotContains(t, string(before), "edited-layout")

	require.NoError(t, os.WriteFile(filepath.Join(cfg.SourceDir, "layout.html.erb"),
		[]byte(`<div class="edited-layout">{{.Body}}</div>`), 0644))

	assert.Eventually(t, func() bool {
		data, err := os.ReadFile(output)
		return err == nil && strings.Contains(string(data), "edited-layout")
	}, 5*time.Second, 20*time.Millisecond)
	assert.Eventually(t, func() bool { return s.GetStatus().Runs >= 2 }, time.Second, 10*time.Millisecond)
	status := s.GetStatus()
	assert.True(t, status.LastAll)
	assert.Equal(t, 2, status.LastGenerated)
}

func TestScheduler_PeriodicRebuild(t *testing.T) {
	builder := newFakeBuilder()
	s := NewScheduler(builder, t.TempDir(), config.WatchConfig{Interval: 30 * time.Millisecond}, testLogger())
	startScheduler(t, s)

	waitRun(t, builder)
	waitRun(t, builder)
	assert.Eventually(t, func() bool { return s.GetStatus().LastTrigger == "interval" }, time.Second, 10*time.Millisecond)
}

func TestScheduler_RecordsErrors(t *testing.T) {
	builder := newFakeBuilder()
	builder.err = errors.New("source dir vanished")
	s := NewScheduler(builder, t.TempDir(), config.WatchConfig{}, testLogger())
	startScheduler(t, s)

	waitRun(t, builder)
	assert.Eventually(t, func() bool {
		return s.GetStatus().LastError == "source dir vanished"
	}, time.Second, 10*time.Millisecond)
}

func TestScheduler_StopsOnCancel(t *testing.T) {
	builder := newFakeBuilder()
	s := NewScheduler(builder, t.TempDir(), config.WatchConfig{}, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	waitRun(t, builder)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestScheduler_MissingSourceDir(t *testing.T) {
	s := NewScheduler(newFakeBuilder(), filepath.Join(t.TempDir(), "missing"), config.WatchConfig{}, testLogger())
	err := s.Run(context.Background())
	assert.Error(t, err)
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		name string
		op   fsnotify.Op
		want bool
	}{
		{"routing.md", fsnotify.Write, true},
		{"index.html.erb", fsnotify.Create, true},
		{"routing.md", fsnotify.Chmod, false},
		{".routing.md.swp", fsnotify.Write, false},
		{"routing.md~", fsnotify.Write, false},
		{".#routing.md", fsnotify.Create, false},
		{"image.png", fsnotify.Write, false},
		{"old.md", fsnotify.Remove, true},
	}
	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.op.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, relevant(fsnotify.Event{Name: filepath.Join("source", tt.name), Op: tt.op}))
		})
	}
}
