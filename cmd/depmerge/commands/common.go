// Package commands holds the kong command tree of the depmerge binary.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/depmerge/internal/config"
)

// Global carries state shared by every subcommand.
type Global struct {
	Logger *slog.Logger
	Ctx    context.Context
	Out    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (default: .depmerge.yaml in the repository root)" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Repo    string           `help:"Repository to operate on" default:"." type:"existingdir"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Status      StatusCmd      `cmd:"" help:"Show the run in progress"`
	Start       StartCmd       `cmd:"" help:"Start a batch run over open dependency update pull requests"`
	Continue    ContinueCmd    `cmd:"" help:"Resume the run in progress from its current candidate"`
	Abort       AbortCmd       `cmd:"" help:"Discard the run in progress and restore the starting branch"`
	AutoMerge   AutoMergeCmd   `cmd:"" name:"auto-merge" aliases:"automerge" help:"Merge the dependency tables of two manifest revisions (git mergetool entry point)"`
	InstallTool InstallToolCmd `cmd:"" name:"install-tool" help:"Register depmerge as a git mergetool in the repository"`
	History     HistoryCmd     `cmd:"" help:"List journaled runs, or the events of one run"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	g.Logger = logger
	return nil
}

func (g *Global) context() context.Context {
	if g.Ctx == nil {
		return context.Background()
	}
	return g.Ctx
}

func (g *Global) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func (g *Global) logger() *slog.Logger {
	if g.Logger == nil {
		return slog.Default()
	}
	return g.Logger
}

func (c *CLI) configName() string {
	if c.Config != "" {
		return c.Config
	}
	return config.DefaultFileName
}
