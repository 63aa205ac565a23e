package commands

import (
	"fmt"
	"os"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/depmerge/internal/git"
)

// InstallToolCmd implements the 'install-tool' command.
type InstallToolCmd struct {
	Binary string `help:"Command git runs for the tool (default: this executable)"`
	Force  bool   `help:"Replace a differing mergetool entry"`
}

// Run executes the install-tool command.
//
//nolint:forbidigo // fmt is used for user-facing messages
func (cmd *InstallToolCmd) Run(g *Global, root *CLI) error {
	a, err := openApp(g, root)
	if err != nil {
		return err
	}
	defer a.Close()

	binary := cmd.Binary
	if binary == "" {
		if binary, err = os.Executable(); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryInternal, "locate depmerge executable").
				WithHint("pass --binary").
				Build()
		}
	}
	name := a.cfg.Git.MergeTool
	want := git.MergeToolCommand(binary)

	existing, ok, err := a.repo.MergeToolConfigured(name)
	if err != nil {
		return err
	}
	switch {
	case ok && existing == want:
		fmt.Fprintf(g.out(), "mergetool.%s is already installed\n", name)
		return nil
	case ok && !cmd.Force:
		return ferrors.ConfigError("a different mergetool with this name is configured").
			WithContext("tool", name).
			WithContext("cmd", existing).
			WithHint("re-run with --force to replace it, or set git.merge_tool").
			Build()
	}

	if err := a.repo.InstallMergeTool(name, want); err != nil {
		return err
	}
	fmt.Fprintf(g.out(), "Installed mergetool.%s: %s\n", name, want)
	return nil
}
