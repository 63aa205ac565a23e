package commands

import (
	"context"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/depmerge/internal/build"
	"git.home.luguber.info/inful/depmerge/internal/config"
	"git.home.luguber.info/inful/depmerge/internal/forge"
	"git.home.luguber.info/inful/depmerge/internal/git"
	"git.home.luguber.info/inful/depmerge/internal/journal"
	"git.home.luguber.info/inful/depmerge/internal/logfields"
	"git.home.luguber.info/inful/depmerge/internal/metrics"
	"git.home.luguber.info/inful/depmerge/internal/notify"
	"git.home.luguber.info/inful/depmerge/internal/process"
	"git.home.luguber.info/inful/depmerge/internal/retry"
	"git.home.luguber.info/inful/depmerge/internal/state"
	"git.home.luguber.info/inful/depmerge/internal/workflow"
)

var (
	_ workflow.VCS   = (*git.Client)(nil)
	_ workflow.Store = (*state.Store)(nil)
)

// app is everything a control operation needs, wired from configuration.
type app struct {
	cfg       *config.Config
	repo      *git.Client
	store     *state.Store
	journal   journal.Store
	recorder  *metrics.PrometheusRecorder
	publisher notify.Publisher
	g         *Global
}

// loadConfig reads --config, or the default file in dir when the flag is not given.
func loadConfig(root *CLI, dir string) (*config.Config, error) {
	if root.Config != "" {
		return config.Load(root.Config, true)
	}
	return config.Load(filepath.Join(dir, config.DefaultFileName), false)
}

// openApp opens the repository and the state store. Callers must Close the result.
func openApp(g *Global, root *CLI) (*app, error) {
	log := g.logger()

	found, err := git.Open(root.Repo)
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(root, found.Root())
	if err != nil {
		return nil, err
	}
	repo, err := git.Open(found.Root(),
		git.WithRemote(cfg.Git.Remote),
		git.WithMergeTool(cfg.Git.MergeTool),
		git.WithLockPatterns(git.LockPatterns{Names: cfg.Git.LockFiles, SkipDirs: cfg.Git.SkipDirs}),
		git.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	return &app{
		cfg:       cfg,
		repo:      repo,
		store:     state.NewStore(resolve(repo.Root(), cfg.State.Path)),
		journal:   journal.Discard{},
		recorder:  metrics.NewPrometheusRecorder(prometheus.NewRegistry()),
		publisher: notify.Noop{},
		g:         g,
	}, nil
}

// attachSinks opens the run journal and the notification connection. Either one failing
// only disables it.
func (a *app) attachSinks() {
	log := a.g.logger()
	if a.cfg.Journal.IsEnabled() {
		j, err := journal.Open(resolve(a.repo.Root(), a.cfg.Journal.Path))
		if err != nil {
			log.Warn("Run journal unavailable", logfields.Path(a.cfg.Journal.Path), logfields.Error(err))
		} else {
			a.journal = j
		}
	}
	if a.cfg.Notify.NATSURL != "" {
		p, err := notify.Connect(a.cfg.Notify.NATSURL, a.cfg.Notify.Subject, log)
		if err != nil {
			log.Warn("Run notifications disabled", logfields.Error(err))
		} else {
			a.publisher = p
		}
	}
}

// exportMetrics writes the node-exporter textfile when one is configured.
func (a *app) exportMetrics() {
	if a.cfg.Metrics.Textfile == "" {
		return
	}
	path := resolve(a.repo.Root(), a.cfg.Metrics.Textfile)
	if err := a.recorder.WriteTextfile(path); err != nil {
		a.g.logger().Warn("Failed to write metrics textfile", logfields.Path(path), logfields.Error(err))
	}
}

// Close releases the journal and the notification connection.
func (a *app) Close() {
	log := a.g.logger()
	if err := a.journal.Close(); err != nil {
		log.Warn("Failed to close run journal", logfields.Error(err))
	}
	if err := a.publisher.Close(); err != nil {
		log.Warn("Failed to close notification connection", logfields.Error(err))
	}
}

// service builds the workflow service. The candidate source is only needed by start.
func (a *app) service(ctx context.Context, withSource bool) (*workflow.Service, error) {
	log := a.g.logger()
	validator := build.NewService(a.repo.Root(),
		build.WithCommand(a.cfg.Build.Command...),
		build.WithOutput(os.Stderr),
		build.WithLogger(log),
	)
	opts := []workflow.Option{
		workflow.WithAuthor(a.cfg.Forge.Author),
		workflow.WithBranchPrefix(a.cfg.Git.BranchPrefix),
		workflow.WithFetch(a.cfg.Git.ShouldFetch()),
		workflow.WithJournal(a.journal),
		workflow.WithRecorder(a.recorder),
		workflow.WithPublisher(a.publisher),
		workflow.WithLogger(log),
	}
	if withSource {
		src, slug, err := a.source(ctx)
		if err != nil {
			return nil, err
		}
		opts = append(opts, workflow.WithSource(src), workflow.WithRepository(slug))
	}
	return workflow.New(a.repo, validator, a.store, opts...), nil
}

// source returns the configured candidate source and the owner/repo it reads from.
func (a *app) source(ctx context.Context) (forge.Source, string, error) {
	log := a.g.logger()
	owner, name := a.cfg.Forge.Owner, a.cfg.Forge.Repo
	if owner == "" {
		url, err := a.repo.RemoteURL(ctx)
		if err != nil {
			return nil, "", err
		}
		if owner, name, err = forge.ParseRepoSlug(url); err != nil {
			return nil, "", err
		}
	}
	slug := owner + "/" + name

	if a.cfg.Forge.Source == config.SourceGHCLI {
		return forge.NewGHCLISource(a.repo.Root(), process.ExecRunner{}, log), slug, nil
	}
	opts := []forge.GitHubOption{
		forge.WithRetryPolicy(retry.FromConfig(a.cfg.Retry)),
		forge.WithGitHubLogger(log),
	}
	if a.cfg.Forge.Token != "" {
		opts = append(opts, forge.WithToken(a.cfg.Forge.Token))
	}
	if a.cfg.Forge.APIURL != "" {
		opts = append(opts, forge.WithAPIURL(a.cfg.Forge.APIURL))
	}
	src, err := forge.NewGitHubSource(owner, name, opts...)
	if err != nil {
		return nil, "", err
	}
	return src, slug, nil
}

func resolve(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
