package config

import "git.home.luguber.info/inful/depmerge/internal/foundation/normalization"

// Default values applied to unset fields.
const (
	DefaultAuthor        = "dependabot[bot]"
	DefaultRemote        = "origin"
	DefaultBranchPrefix  = "dependabot-batch"
	DefaultMergeTool     = "depmerge"
	DefaultTieBreak      = "remote"
	DefaultStatePath     = ".depmerge-state.json"
	DefaultJournalPath   = ".git/depmerge-journal.db"
	DefaultNotifySubject = "depmerge.runs"
)

func applyDefaults(cfg *Config) {
	f := &cfg.Forge
	f.Source = SourceType(normalization.Clean(string(f.Source)))
	if f.Source == "" {
		f.Source = SourceGitHub
	}
	if f.Author == "" {
		f.Author = DefaultAuthor
	}

	g := &cfg.Git
	if g.Remote == "" {
		g.Remote = DefaultRemote
	}
	if g.BranchPrefix == "" {
		g.BranchPrefix = DefaultBranchPrefix
	}
	if g.MergeTool == "" {
		g.MergeTool = DefaultMergeTool
	}
	if len(g.LockFiles) == 0 {
		g.LockFiles = []string{"Cargo.lock"}
	}
	if g.SkipDirs == nil {
		g.SkipDirs = []string{"target", "node_modules"}
	}

	if len(cfg.Build.Command) == 0 {
		cfg.Build.Command = []string{"cargo", "build"}
	}

	if len(cfg.Merge.Tables) == 0 {
		cfg.Merge.Tables = []string{"dependencies"}
	}
	cfg.Merge.TieBreak = normalization.Clean(cfg.Merge.TieBreak)
	if cfg.Merge.TieBreak == "" {
		cfg.Merge.TieBreak = DefaultTieBreak
	}

	if cfg.State.Path == "" {
		cfg.State.Path = DefaultStatePath
	}

	r := &cfg.Retry
	if r.Mode == "" {
		r.Mode = string(RetryBackoffLinear)
	}
	if r.InitialDelay == "" {
		r.InitialDelay = "1s"
	}
	if r.MaxDelay == "" {
		r.MaxDelay = "30s"
	}
	if r.MaxRetries == 0 {
		r.MaxRetries = 2
	}

	if cfg.Journal.Path == "" {
		cfg.Journal.Path = DefaultJournalPath
	}
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultNotifySubject
	}
}
