package commands

import (
	"fmt"

	"git.home.luguber.info/inful/depmerge/internal/orchestrator"
	"git.home.luguber.info/inful/depmerge/internal/report"
)

// StartCmd implements the 'start' command.
type StartCmd struct{}

// Run executes the start command.
func (cmd *StartCmd) Run(g *Global, root *CLI) error {
	a, err := openApp(g, root)
	if err != nil {
		return err
	}
	defer a.Close()
	a.attachSinks()
	defer a.exportMetrics()

	svc, err := a.service(g.context(), true)
	if err != nil {
		return err
	}
	sum, err := svc.Start(g.context())
	return printSummary(g, sum, err)
}

// ContinueCmd implements the 'continue' command.
type ContinueCmd struct{}

// Run executes the continue command.
func (cmd *ContinueCmd) Run(g *Global, root *CLI) error {
	a, err := openApp(g, root)
	if err != nil {
		return err
	}
	defer a.Close()
	a.attachSinks()
	defer a.exportMetrics()

	svc, err := a.service(g.context(), false)
	if err != nil {
		return err
	}
	sum, err := svc.Continue(g.context())
	return printSummary(g, sum, err)
}

func printSummary(g *Global, sum *orchestrator.Summary, err error) error {
	if err != nil {
		return err
	}
	_, werr := fmt.Fprint(g.out(), report.Summary(sum))
	return werr
}
