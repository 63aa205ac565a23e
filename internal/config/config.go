// Package config loads the optional .depmerge.yaml file, applies environment overrides and
// defaults, and validates the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
)

// DefaultFileName is looked up in the repository root when --config is not given.
const DefaultFileName = ".depmerge.yaml"

// SourceType selects how change requests are listed.
type SourceType string

const (
	SourceGitHub SourceType = "github"
	SourceGHCLI  SourceType = "gh"
)

// Config is the full depmerge configuration.
type Config struct {
	Forge   ForgeConfig   `yaml:"forge"`
	Git     GitConfig     `yaml:"git"`
	Build   BuildConfig   `yaml:"build"`
	Merge   MergeConfig   `yaml:"merge"`
	State   StateConfig   `yaml:"state"`
	Retry   RetryConfig   `yaml:"retry"`
	Metrics MetricsConfig `yaml:"metrics"`
	Journal JournalConfig `yaml:"journal"`
	Notify  NotifyConfig  `yaml:"notify"`
}

// ForgeConfig describes where candidate branches come from.
type ForgeConfig struct {
	Source SourceType `yaml:"source"`
	// Author is the login whose pull requests are candidates, e.g. dependabot[bot].
	Author string `yaml:"author"`
	Owner  string `yaml:"owner"`
	Repo   string `yaml:"repo"`
	Token  string `yaml:"token"`
	APIURL string `yaml:"api_url"`
}

// GitConfig holds repository-side settings.
type GitConfig struct {
	Remote       string   `yaml:"remote"`
	BranchPrefix string   `yaml:"branch_prefix"`
	MergeTool    string   `yaml:"merge_tool"`
	LockFiles    []string `yaml:"lock_files"`
	SkipDirs     []string `yaml:"skip_dirs"`
	// Fetch runs git fetch before listing candidates. Nil means true.
	Fetch *bool `yaml:"fetch"`
}

// ShouldFetch reports whether start fetches the remote first.
func (g GitConfig) ShouldFetch() bool { return g.Fetch == nil || *g.Fetch }

// BuildConfig is the validation command run after a conflict resolution.
type BuildConfig struct {
	Command []string `yaml:"command"`
}

// MergeConfig controls manifest merging.
type MergeConfig struct {
	Tables   []string `yaml:"tables"`
	TieBreak string   `yaml:"tie_break"`
}

// StateConfig locates the workflow state file. Relative paths are resolved against the repository root.
type StateConfig struct {
	Path string `yaml:"path"`
}

// MetricsConfig enables a Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `yaml:"textfile"`
}

// JournalConfig controls the SQLite run journal.
type JournalConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// IsEnabled reports whether the journal is written. Nil means true.
func (j JournalConfig) IsEnabled() bool { return j.Enabled == nil || *j.Enabled }

// NotifyConfig enables NATS run notifications.
type NotifyConfig struct {
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// Load reads path (when it exists), applies environment overrides and defaults, and validates.
// A missing file is only an error when required is true.
func Load(path string, required bool) (*Config, error) {
	loadEnvFiles()

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to parse configuration").
				WithPath(path).
				Build()
		}
	case errors.Is(err, fs.ErrNotExist) && !required:
	case errors.Is(err, fs.ErrNotExist):
		return nil, ferrors.ConfigError(fmt.Sprintf("configuration file not found: %s", path)).
			WithPath(path).
			Build()
	default:
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to read configuration").
			WithPath(path).
			Build()
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a validated configuration with only defaults and environment overrides applied.
func Default() *Config {
	cfg := &Config{}
	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg
}
