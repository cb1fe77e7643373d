package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool {
	return &b
}

func TestGetEffectiveSlides(t *testing.T) {
	tests := []struct {
		name     string
		cfg      AppConfig
		expected bool
	}{
		{"nil defaults to enabled", AppConfig{}, true},
		{"explicitly enabled", AppConfig{Slides: boolPtr(true)}, true},
		{"explicitly disabled", AppConfig{Slides: boolPtr(false)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.cfg.GetEffectiveSlides())
		})
	}
}

func TestPaths(t *testing.T) {
	cfg := AppConfig{SourceDir: "source", OutputDir: "output"}
	assert.Equal(t, "source", cfg.SourcePath())
	assert.Equal(t, "output", cfg.OutputPath())

	cfg.Language = "zh-CN"
	assert.Equal(t, filepath.Join("source", "zh-CN"), cfg.SourcePath())
	assert.Equal(t, filepath.Join("output", "zh-CN"), cfg.OutputPath())
}

func TestOnlyPrefixes(t *testing.T) {
	assert.Nil(t, AppConfig{}.OnlyPrefixes())
	assert.Nil(t, AppConfig{Only: " , "}.OnlyPrefixes())
	assert.Equal(t, []string{"active_record", "routing"}, AppConfig{Only: "active_record, routing,"}.OnlyPrefixes())
}

func TestDryRun(t *testing.T) {
	assert.False(t, AppConfig{}.DryRun())
	assert.True(t, AppConfig{Lint: true}.DryRun())
}
