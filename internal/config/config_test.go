package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvAuthor, EnvSource, EnvNATSURL, EnvToken, EnvGHToken} {
		t.Setenv(k, "")
	}
	t.Chdir(t.TempDir())
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingOptionalFileAppliesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), false)
	require.NoError(t, err)

	assert.Equal(t, SourceGitHub, cfg.Forge.Source)
	assert.Equal(t, DefaultAuthor, cfg.Forge.Author)
	assert.Equal(t, "origin", cfg.Git.Remote)
	assert.Equal(t, []string{"Cargo.lock"}, cfg.Git.LockFiles)
	assert.True(t, cfg.Git.ShouldFetch())
	assert.Equal(t, []string{"cargo", "build"}, cfg.Build.Command)
	assert.Equal(t, []string{"dependencies"}, cfg.Merge.Tables)
	assert.Equal(t, "remote", cfg.Merge.TieBreak)
	assert.Equal(t, DefaultStatePath, cfg.State.Path)
	assert.Equal(t, DefaultJournalPath, cfg.Journal.Path)
	assert.True(t, cfg.Journal.IsEnabled())
	assert.Equal(t, DefaultNotifySubject, cfg.Notify.Subject)
	assert.Equal(t, 2, cfg.Retry.MaxRetries)
}

func TestLoadRequiredMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), true)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}

func TestLoadFileAndExpansion(t *testing.T) {
	clearEnv(t)
	t.Setenv("MY_TOKEN", "secret")

	path := writeConfig(t, `
forge:
  source: GH
  owner: acme
  repo: widgets
  token: ${MY_TOKEN}
git:
  branch_prefix: deps
  fetch: false
  lock_files: [Cargo.lock, "*.lock"]
build:
  command: [cargo, check, --all]
merge:
  tables: [dependencies, dev-dependencies]
  tie_break: Local
journal:
  enabled: false
`)
	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, SourceGHCLI, cfg.Forge.Source)
	assert.Equal(t, "secret", cfg.Forge.Token)
	assert.Equal(t, "deps", cfg.Git.BranchPrefix)
	assert.False(t, cfg.Git.ShouldFetch())
	assert.Equal(t, []string{"Cargo.lock", "*.lock"}, cfg.Git.LockFiles)
	assert.Equal(t, []string{"cargo", "check", "--all"}, cfg.Build.Command)
	assert.Equal(t, []string{"dependencies", "dev-dependencies"}, cfg.Merge.Tables)
	assert.Equal(t, "local", cfg.Merge.TieBreak)
	assert.False(t, cfg.Journal.IsEnabled())
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAuthor, "renovate[bot]")
	t.Setenv(EnvSource, "gh")
	t.Setenv(EnvNATSURL, "nats://localhost:4222")
	t.Setenv(EnvGHToken, "from-gh")

	path := writeConfig(t, "forge:\n  author: someone\n")
	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "renovate[bot]", cfg.Forge.Author)
	assert.Equal(t, SourceGHCLI, cfg.Forge.Source)
	assert.Equal(t, "nats://localhost:4222", cfg.Notify.NATSURL)
	assert.Equal(t, "from-gh", cfg.Forge.Token)

	t.Setenv(EnvToken, "from-github")
	cfg, err = Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, "from-github", cfg.Forge.Token)
}

func TestDotEnvDoesNotOverrideProcessEnv(t *testing.T) {
	clearEnv(t)
	require.NoError(t, os.WriteFile(".env", []byte("DEPMERGE_AUTHOR=from-dotenv\nDEPMERGE_SOURCE=gh\n"), 0o600))
	require.NoError(t, os.Unsetenv(EnvAuthor))
	t.Setenv(EnvSource, "github")

	cfg, err := Load("absent.yaml", false)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Forge.Author)
	assert.Equal(t, SourceGitHub, cfg.Forge.Source)
}

func TestValidateAggregatesProblems(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, `
forge:
  source: gitlab
  owner: acme
merge:
  tie_break: newest
retry:
  mode: random
  initial_delay: soon
`)
	_, err := Load(path, true)
	require.Error(t, err)

	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, ferrors.CategoryValidation, ce.Category())
	assert.Equal(t, 5, ce.Context()["problems"])
	for _, key := range []string{"forge.source", "forge.owner", "merge.tie_break", "retry.mode", "retry.initial_delay"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	clearEnv(t)

	path := writeConfig(t, "forge: [unclosed\n")
	_, err := Load(path, true)
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryConfig))
}
