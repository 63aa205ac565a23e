package config

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/depmerge/internal/foundation/normalization"
)

var (
	sources   = normalization.New("forge source", map[string]SourceType{"github": SourceGitHub, "gh": SourceGHCLI})
	tieBreaks = normalization.New("tie-break policy", map[string]string{"remote": "remote", "local": "local"})
)

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if _, err := sources.Parse(string(c.Forge.Source)); err != nil {
		result = multierror.Append(result, fmt.Errorf("forge.source: %w", err))
	}
	if (c.Forge.Owner == "") != (c.Forge.Repo == "") {
		result = multierror.Append(result, fmt.Errorf("forge.owner and forge.repo must be set together"))
	}

	if len(c.Build.Command) == 0 || c.Build.Command[0] == "" {
		result = multierror.Append(result, fmt.Errorf("build.command: must name an executable"))
	}

	if _, err := tieBreaks.Parse(c.Merge.TieBreak); err != nil {
		result = multierror.Append(result, fmt.Errorf("merge.tie_break: %w", err))
	}
	for i, t := range c.Merge.Tables {
		if t == "" {
			result = multierror.Append(result, fmt.Errorf("merge.tables[%d]: empty table name", i))
		}
	}

	if _, err := retryModes.Parse(c.Retry.Mode); err != nil {
		result = multierror.Append(result, fmt.Errorf("retry.mode: %w", err))
	}
	for _, d := range []struct{ key, raw string }{
		{"retry.initial_delay", c.Retry.InitialDelay},
		{"retry.max_delay", c.Retry.MaxDelay},
	} {
		if v, err := time.ParseDuration(d.raw); err != nil || v <= 0 {
			result = multierror.Append(result, fmt.Errorf("%s: invalid duration %q", d.key, d.raw))
		}
	}
	if c.Retry.MaxRetries < 0 {
		result = multierror.Append(result, fmt.Errorf("retry.max_retries: cannot be negative"))
	}

	if err := result.ErrorOrNil(); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryValidation, "invalid configuration").
			WithContext("problems", len(result.Errors)).
			WithHint("fix the listed keys in " + DefaultFileName).
			Build()
	}
	return nil
}
