package commands

import (
	"fmt"

	"git.home.luguber.info/inful/depmerge/internal/report"
)

// StatusCmd implements the 'status' command.
type StatusCmd struct{}

// Run executes the status command.
func (cmd *StatusCmd) Run(g *Global, root *CLI) error {
	a, err := openApp(g, root)
	if err != nil {
		return err
	}
	defer a.Close()

	svc, err := a.service(g.context(), false)
	if err != nil {
		return err
	}
	st, err := svc.Status()
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(g.out(), report.Status(st))
	return err
}
