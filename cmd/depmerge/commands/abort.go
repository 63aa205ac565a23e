package commands

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
)

// AbortCmd implements the 'abort' command.
type AbortCmd struct {
	Yes bool `short:"y" help:"Do not ask for confirmation"`
}

// confirmAbort asks the operator before anything is discarded. Replaced in tests.
var confirmAbort = func(startingBranch string) (bool, error) {
	if !stdinIsTerminal() {
		return false, ferrors.ValidationError("abort needs confirmation").
			WithHint("re-run with --yes when not attached to a terminal").
			Build()
	}
	ok := false
	err := huh.NewConfirm().
		Title("Abort the run in progress?").
		Description(fmt.Sprintf("The integration branch is deleted and %s is reset to its starting commit. Uncommitted changes are lost.", startingBranch)).
		Affirmative("Abort").
		Negative("Keep").
		Value(&ok).
		Run()
	return ok, err
}

// Run executes the abort command.
//
//nolint:forbidigo // fmt is used for user-facing messages
func (cmd *AbortCmd) Run(g *Global, root *CLI) error {
	a, err := openApp(g, root)
	if err != nil {
		return err
	}
	defer a.Close()
	a.attachSinks()

	svc, err := a.service(g.context(), false)
	if err != nil {
		return err
	}
	st, err := svc.Status()
	if err != nil {
		return err
	}

	if !cmd.Yes {
		ok, err := confirmAbort(st.StartingBranch)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(g.out(), "Abort canceled; the run is unchanged.")
			return nil
		}
	}

	if err := svc.Abort(g.context()); err != nil {
		return err
	}
	fmt.Fprintf(g.out(), "Run %s aborted; back on %s at %s.\n", st.RunID, st.StartingBranch, shortCommit(st.StartingCommit))
	return nil
}

func stdinIsTerminal() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func shortCommit(c string) string {
	if len(c) > 10 {
		return c[:10]
	}
	return c
}
