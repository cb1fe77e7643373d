package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/Sriram-PR/guidegen/pkg/utils"
)

// EnvPrefix prefixes the environment variables that override the config file.
const EnvPrefix = "GUIDES_"

// Load reads a YAML config file. A missing file yields a zero config so that
// defaults from Validate apply.
func Load(path string) (AppConfig, error) {
	var cfg AppConfig
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("%w: reading config file '%s': %w", utils.ErrFilesystem, path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, utils.WrapErrorf(utils.ErrParsing, "parsing YAML config '%s': %v", path, err)
	}
	return cfg, nil
}

// LoadDotEnv loads the first existing file among paths into the process
// environment without overriding variables that are already set. It returns
// the file that was loaded, or "" if none exists.
func LoadDotEnv(paths ...string) (string, error) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return "", utils.WrapErrorf(utils.ErrParsing, "loading env file '%s': %v", p, err)
		}
		return p, nil
	}
	return "", nil
}

// ApplyEnv overrides config fields from GUIDES_* variables found by lookup
// (os.LookupEnv in production). Unparseable booleans are reported as warnings.
func (c *AppConfig) ApplyEnv(lookup func(string) (string, bool)) (warnings []string) {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("ignoring %s%s=%q: not a boolean", EnvPrefix, name, v))
			return
		}
		*dst = b
	}

	str("ONLY", &c.Only)
	str("LANGUAGE", &c.Language)
	str("EDGE", &c.Edge)
	str("VERSION", &c.Version)
	boolean("ALL", &c.All)
	boolean("LINT", &c.Lint)
	return warnings
}

// ResolveEdge replaces an "auto" edge with the HEAD commit of the git
// repository containing dir. Any other value is left untouched.
func (c *AppConfig) ResolveEdge(dir string) error {
	if c.Edge != EdgeAuto {
		return nil
	}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return fmt.Errorf("%w: edge 'auto' needs a git repository at '%s': %v", utils.ErrConfigValidation, dir, err)
	}
	head, err := repo.Head()
	if err != nil {
		return fmt.Errorf("%w: reading HEAD of '%s': %v", utils.ErrConfigValidation, dir, err)
	}
	c.Edge = head.Hash().String()
	return nil
}
