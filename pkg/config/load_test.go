package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sriram-PR/guidegen/pkg/utils"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guides.yaml")
	content := `
source_dir: docs/source
output_dir: docs/output
language: es
num_workers: 2
only: routing,active_record
slides: false
exclude_patterns:
  - "^draft_"
watch:
  debounce: 250ms
  interval: 1m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "docs/source", cfg.SourceDir)
	assert.Equal(t, "es", cfg.Language)
	assert.Equal(t, 2, cfg.NumWorkers)
	assert.Equal(t, []string{"routing", "active_record"}, cfg.OnlyPrefixes())
	assert.False(t, cfg.GetEffectiveSlides())
	assert.Equal(t, []string{"^draft_"}, cfg.ExcludePatterns)
	assert.Equal(t, 250*time.Millisecond, cfg.Watch.Debounce)
	assert.Equal(t, time.Minute, cfg.Watch.Interval)
}

func TestLoad_MissingFileGivesZeroConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, AppConfig{}, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guides.yaml")
	require.NoError(t, os.WriteFile(path, []byte("num_workers: [oops"), 0644))
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrParsing))
	assert.Equal(t, "Content_ParsingYAML", utils.CategorizeError(err))
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"GUIDES_ONLY":     "routing",
		"GUIDES_LANGUAGE": "pt-BR",
		"GUIDES_EDGE":     "auto",
		"GUIDES_ALL":      "1",
		"GUIDES_LINT":     "maybe",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := AppConfig{Only: "active_record", Version: "7.1"}
	warnings := cfg.ApplyEnv(lookup)

	assert.Equal(t, "routing", cfg.Only)
	assert.Equal(t, "pt-BR", cfg.Language)
	assert.Equal(t, EdgeAuto, cfg.Edge)
	assert.Equal(t, "7.1", cfg.Version)
	assert.True(t, cfg.All)
	assert.False(t, cfg.Lint)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "GUIDES_LINT")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GUIDEGEN_TEST_DOTENV=from-file\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("GUIDEGEN_TEST_DOTENV") })

	loaded, err := LoadDotEnv(filepath.Join(dir, "missing.env"), envFile)
	require.NoError(t, err)
	assert.Equal(t, envFile, loaded)
	assert.Equal(t, "from-file", os.Getenv("GUIDEGEN_TEST_DOTENV"))

	loaded, err = LoadDotEnv(filepath.Join(dir, "none"))
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestResolveEdge(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("guides"), 0644))
	w, err := repo.Worktree()
	require.NoError(t, err)
	_, err = w.Add("README.md")
	require.NoError(t, err)
	hash, err := w.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	sub := filepath.Join(dir, "source")
	require.NoError(t, os.MkdirAll(sub, 0755))

	cfg := AppConfig{Edge: EdgeAuto}
	require.NoError(t, cfg.ResolveEdge(sub))
	assert.Equal(t, hash.String(), cfg.Edge)

	fixed := AppConfig{Edge: "v7.1.0"}
	require.NoError(t, fixed.ResolveEdge(sub))
	assert.Equal(t, "v7.1.0", fixed.Edge)
}

func TestResolveEdge_NotARepository(t *testing.T) {
	cfg := AppConfig{Edge: EdgeAuto}
	err := cfg.ResolveEdge(t.TempDir())
	require.Error(t, err)
	assert.True(t, errors.Is(err, utils.ErrConfigValidation))
}
