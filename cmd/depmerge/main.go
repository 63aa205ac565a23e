package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/depmerge/cmd/depmerge/commands"
	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/depmerge/internal/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := &commands.CLI{}
	global := &commands.Global{Ctx: ctx, Out: os.Stdout}
	parser := kong.Parse(cli,
		kong.Name("depmerge"),
		kong.Description("Batch-merge dependency update pull requests into one integration branch."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)

	if err := parser.Run(global, cli); err != nil {
		stop()
		ferrors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
	}
}
