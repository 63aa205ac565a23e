package git

import (
	"context"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/depmerge/internal/logfields"
	"git.home.luguber.info/inful/depmerge/internal/process"
)

// BranchDateLayout is the date suffix of integration branches.
const BranchDateLayout = "2006-01-02"

// DatedBranchName returns "<prefix>-YYYY-MM-DD".
func DatedBranchName(prefix string, day time.Time) string {
	return prefix + "-" + day.Format(BranchDateLayout)
}

type runOpts struct {
	env         []string
	interactive bool
}

// run invokes `git -C <root> args...` and classifies failures as git errors named after op.
func (c *Client) run(ctx context.Context, op string, o runOpts, args ...string) (process.Result, error) {
	full := append([]string{"-C", c.root}, args...)
	c.logger.Debug("Running git", logfields.Operation(op), logfields.Path(c.root))
	res, err := c.runner.Run(ctx, process.Command{
		Name:        "git",
		Args:        full,
		Env:         o.env,
		Interactive: o.interactive,
	})
	if err != nil {
		b := ferrors.WrapError(err, ferrors.CategoryGit, "git command failed").
			WithOperation(op).
			WithContext("args", strings.Join(args, " "))
		if ctx.Err() != nil {
			b = b.WithCause(ctx.Err())
		}
		return res, b.Build()
	}
	return res, nil
}

// Fetch updates remote-tracking branches.
func (c *Client) Fetch(ctx context.Context) error {
	_, err := c.run(ctx, "fetch", runOpts{}, "fetch", "--quiet", "--prune", c.remote)
	return err
}

// DiscardChanges restores tracked files in the work tree to the index.
func (c *Client) DiscardChanges(ctx context.Context) error {
	_, err := c.run(ctx, "restore", runOpts{}, "restore", ".")
	return err
}

// Switch checks out an existing branch.
func (c *Client) Switch(ctx context.Context, branch string) error {
	_, err := c.run(ctx, "switch", runOpts{}, "switch", "--quiet", branch)
	return err
}

// CreateBranch creates branch at HEAD and switches to it.
func (c *Client) CreateBranch(ctx context.Context, branch string) error {
	_, err := c.run(ctx, "switch -c", runOpts{}, "switch", "--quiet", "-c", branch)
	return err
}

// ResetHard moves the current branch and work tree to commit.
func (c *Client) ResetHard(ctx context.Context, commit string) error {
	_, err := c.run(ctx, "reset --hard", runOpts{}, "reset", "--quiet", "--hard", commit)
	return err
}

// DeleteBranch force-deletes a local branch.
func (c *Client) DeleteBranch(ctx context.Context, branch string) error {
	_, err := c.run(ctx, "branch -D", runOpts{}, "branch", "-D", branch)
	return err
}

// Merge merges <remote>/<candidate> without opening an editor. When the merge stops on
// conflicts the returned error matches ErrMergeConflict and lists the conflicted paths.
func (c *Client) Merge(ctx context.Context, candidate string) error {
	ref := c.remote + "/" + candidate
	_, err := c.run(ctx, "merge", runOpts{}, "merge", "--quiet", "--no-edit", ref)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return err
	}
	paths, cerr := c.ConflictedPaths(ctx)
	if cerr != nil || len(paths) == 0 {
		return err
	}
	return &MergeConflictError{Ref: ref, Paths: paths, Err: err}
}

// AbortMerge abandons an in-progress merge and restores the pre-merge state.
func (c *Client) AbortMerge(ctx context.Context) error {
	_, err := c.run(ctx, "merge --abort", runOpts{}, "merge", "--abort")
	return err
}

// ContinueMerge commits a merge whose conflicts were resolved, keeping the default message.
func (c *Client) ContinueMerge(ctx context.Context) error {
	_, err := c.run(ctx, "merge --continue", runOpts{env: []string{"GIT_EDITOR=true"}}, "merge", "--continue")
	return err
}

// MergeInProgress reports whether MERGE_HEAD exists.
func (c *Client) MergeInProgress(ctx context.Context) (bool, error) {
	_, err := c.run(ctx, "rev-parse MERGE_HEAD", runOpts{}, "rev-parse", "-q", "--verify", "MERGE_HEAD")
	if err == nil {
		return true, nil
	}
	if process.ExitCode(err) == 1 {
		return false, nil
	}
	return false, err
}

// RunMergeTool runs the configured mergetool on paths with the terminal attached.
// With no paths git picks every conflicted file.
func (c *Client) RunMergeTool(ctx context.Context, paths ...string) error {
	args := []string{"mergetool", "--no-prompt", "--tool", c.mergeTool}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}
	_, err := c.run(ctx, "mergetool", runOpts{interactive: true}, args...)
	return err
}

// CheckoutTheirs replaces path with the incoming side of the merge.
func (c *Client) CheckoutTheirs(ctx context.Context, path string) error {
	_, err := c.run(ctx, "checkout --theirs", runOpts{}, "checkout", "--theirs", "--", path)
	return err
}

// Stage adds path to the index.
func (c *Client) Stage(ctx context.Context, path string) error {
	_, err := c.run(ctx, "add", runOpts{}, "add", "--", path)
	return err
}

// ConflictedPaths lists unmerged paths relative to the work tree root.
func (c *Client) ConflictedPaths(ctx context.Context) ([]string, error) {
	res, err := c.run(ctx, "diff --diff-filter=U", runOpts{}, "diff", "--name-only", "--diff-filter=U", "-z")
	if err != nil {
		return nil, err
	}
	var paths []string
	for _, p := range strings.Split(res.Stdout, "\x00") {
		if p = strings.TrimSpace(p); p != "" {
			paths = append(paths, p)
		}
	}
	return paths, nil
}
