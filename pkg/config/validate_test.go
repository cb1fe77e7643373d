package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/guidegen/pkg/utils"
)

func containsWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestAppConfig_Validate_Defaults(t *testing.T) {
	cfg := AppConfig{} // Zero value
	warnings, err := cfg.Validate()

	require.NoError(t, err)

	assert.Equal(t, "./source", cfg.SourceDir)
	assert.Equal(t, "./output", cfg.OutputDir)
	assert.Equal(t, "ltr", cfg.Direction)
	assert.Equal(t, 4, cfg.NumWorkers)
	assert.Equal(t, "Backend Development", cfg.TitleSuffix)
	assert.Equal(t, "Backend Development Textbook", cfg.DefaultTitle)
	assert.Equal(t, 500*time.Millisecond, cfg.Watch.Debounce)
	assert.Zero(t, cfg.Watch.Interval)
	assert.Empty(t, cfg.StateDir)

	assert.True(t, containsWarning(warnings, "source_dir is empty"))
	assert.True(t, containsWarning(warnings, "output_dir is empty"))
	assert.True(t, containsWarning(warnings, "num_workers should be > 0"))
}

func TestAppConfig_Validate_KeepsValidValues(t *testing.T) {
	cfg := AppConfig{
		SourceDir:   "guides/source",
		OutputDir:   "guides/output",
		Direction:   "rtl",
		NumWorkers:  8,
		TitleSuffix: "Custom",
		Watch:       WatchConfig{Debounce: time.Second, Interval: time.Minute},
	}
	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, "rtl", cfg.Direction)
	assert.Equal(t, 8, cfg.NumWorkers)
	assert.Equal(t, "Custom", cfg.TitleSuffix)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)
	assert.Equal(t, time.Minute, cfg.Watch.Interval)
}

func TestAppConfig_Validate_Errors(t *testing.T) {
	tests := []struct {
		name string
		cfg  AppConfig
	}{
		{"invalid direction", AppConfig{Direction: "up"}},
		{"same source and output", AppConfig{SourceDir: "guides", OutputDir: "guides"}},
		{"invalid exclude pattern", AppConfig{ExcludePatterns: []string{"[oops"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, utils.ErrConfigValidation))
		})
	}
}

func TestAppConfig_Validate_Warnings(t *testing.T) {
	cfg := AppConfig{
		Edge:           "abc",
		Version:        "7.1",
		EnableManifest: true,
		Watch:          WatchConfig{Interval: -time.Second},
	}
	warnings, err := cfg.Validate()
	require.NoError(t, err)
	assert.True(t, containsWarning(warnings, "version takes precedence"))
	assert.True(t, containsWarning(warnings, "manifest_filename"))
	assert.True(t, containsWarning(warnings, "watch.interval cannot be negative"))
	assert.Equal(t, "guides_manifest.yaml", cfg.ManifestFilename)
	assert.Zero(t, cfg.Watch.Interval)

	short := AppConfig{Watch: WatchConfig{Interval: 10 * time.Millisecond}}
	warnings, err = short.Validate()
	require.NoError(t, err)
	assert.True(t, containsWarning(warnings, "too short"))
	assert.Equal(t, time.Second, short.Watch.Interval)
}
