package commands

import (
	"fmt"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/depmerge/internal/journal"
	"git.home.luguber.info/inful/depmerge/internal/report"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	RunID string `arg:"" optional:"" name:"run-id" help:"Show the events of one run"`
	Limit int    `short:"n" help:"Maximum number of runs to list" default:"20"`
}

// Run executes the history command.
func (cmd *HistoryCmd) Run(g *Global, root *CLI) error {
	a, err := openApp(g, root)
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.cfg.Journal.IsEnabled() {
		return ferrors.ConfigError("run journal is disabled").
			WithHint("set journal.enabled: true in " + root.configName()).
			Build()
	}
	store, err := journal.Open(resolve(a.repo.Root(), a.cfg.Journal.Path))
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := g.context()
	if cmd.RunID != "" {
		events, err := store.ByRun(ctx, cmd.RunID)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			return ferrors.ValidationError("no journal entries for run").
				WithContext("run_id", cmd.RunID).
				WithHint("list runs with `depmerge history`").
				Build()
		}
		_, err = fmt.Fprint(g.out(), report.Events(cmd.RunID, events))
		return err
	}

	runs, err := journal.History(ctx, store, cmd.Limit)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(g.out(), report.History(runs))
	return err
}
