package commands

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/depmerge/internal/logfields"
	"git.home.luguber.info/inful/depmerge/internal/manifest"
)

// AutoMergeCmd implements the 'auto-merge' command. git mergetool invokes it with the
// $LOCAL, $REMOTE and $MERGED paths; a non-zero exit leaves the file conflicted.
type AutoMergeCmd struct {
	Local  string `arg:"" help:"Local (ours) revision of the manifest" type:"existingfile"`
	Remote string `arg:"" help:"Remote (theirs) revision of the manifest" type:"existingfile"`
	Merged string `arg:"" help:"Path the merged manifest is written to" type:"path"`
	Print  bool   `short:"p" help:"Also write the merged manifest to stdout"`
}

// Run executes the auto-merge command.
func (cmd *AutoMergeCmd) Run(g *Global, root *CLI) error {
	log := g.logger()
	cfg, err := loadConfig(root, root.Repo)
	if err != nil {
		return err
	}
	tieBreak, err := manifest.ParseTieBreak(cfg.Merge.TieBreak)
	if err != nil {
		return err
	}

	res, err := manifest.MergeFiles(cmd.Local, cmd.Remote, cmd.Merged,
		manifest.WithTables(cfg.Merge.Tables...),
		manifest.WithTieBreak(tieBreak),
		manifest.WithLogger(log),
	)
	if err != nil {
		return err
	}
	for _, d := range res.Decisions {
		log.Debug("Resolved dependency",
			logfields.Table(d.Table),
			logfields.Dependency(d.Name),
			slog.String("local", d.Local),
			slog.String("remote", d.Remote),
			slog.String("winner", string(d.Winner)))
	}
	log.Info("Merged manifest",
		logfields.Path(cmd.Merged),
		slog.Int("decisions", len(res.Decisions)),
		slog.Int("added", len(res.Added)))

	if cmd.Print {
		_, err = fmt.Fprint(g.out(), res.Text)
	}
	return err
}
