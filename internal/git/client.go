package git

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/depmerge/internal/process"
)

// DefaultRemote is the remote candidate branches are merged from.
const DefaultRemote = "origin"

// Client operates on one working tree.
type Client struct {
	root      string
	repo      *git.Repository
	remote    string
	mergeTool string
	locks     LockPatterns
	runner    process.Runner
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRemote sets the remote candidates are fetched and merged from.
func WithRemote(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.remote = name
		}
	}
}

// WithMergeTool sets the mergetool name passed to `git mergetool --tool`.
func WithMergeTool(name string) Option {
	return func(c *Client) {
		if name != "" {
			c.mergeTool = name
		}
	}
}

// WithLockPatterns sets which files are treated as lock artifacts.
func WithLockPatterns(p LockPatterns) Option {
	return func(c *Client) { c.locks = p }
}

// WithRunner replaces the process runner used for git CLI calls.
func WithRunner(r process.Runner) Option {
	return func(c *Client) { c.runner = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// Open finds the repository containing path and returns a client rooted at its work tree.
func Open(path string, opts ...Option) (*Client, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "resolve repository path").WithPath(path).Build()
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true, EnableDotGitCommonDir: true})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "open repository").WithPath(abs).Build()
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryGit, "repository has no work tree").WithPath(abs).Build()
	}

	c := &Client{
		root:      wt.Filesystem.Root(),
		repo:      repo,
		remote:    DefaultRemote,
		mergeTool: DefaultMergeToolName,
		locks:     DefaultLockPatterns(),
		runner:    process.ExecRunner{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Root returns the work tree root.
func (c *Client) Root() string { return c.root }

// Remote returns the configured remote name.
func (c *Client) Remote() string { return c.remote }

// HeadCommit returns the commit HEAD points at.
func (c *Client) HeadCommit(_ context.Context) (string, error) {
	ref, err := c.repo.Head()
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryGit, "resolve HEAD").WithOperation("rev-parse HEAD").Build()
	}
	return ref.Hash().String(), nil
}

// CurrentBranch returns the checked-out branch. A detached HEAD is an error.
func (c *Client) CurrentBranch(_ context.Context) (string, error) {
	ref, err := c.repo.Head()
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryGit, "resolve HEAD").WithOperation("rev-parse --abbrev-ref HEAD").Build()
	}
	if !ref.Name().IsBranch() {
		return "", ferrors.GitError("HEAD is detached").
			WithOperation("rev-parse --abbrev-ref HEAD").
			WithHint("check out the branch the integration branch should start from").
			Build()
	}
	return ref.Name().Short(), nil
}

// BranchExists reports whether a local branch exists.
func (c *Client) BranchExists(_ context.Context, name string) (bool, error) {
	_, err := c.repo.Reference(plumbing.NewBranchReferenceName(name), false)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		return false, nil
	default:
		return false, ferrors.WrapError(err, ferrors.CategoryGit, "look up branch").WithContext("branch", name).Build()
	}
}

// RemoteURL returns the first URL of the configured remote.
func (c *Client) RemoteURL(_ context.Context) (string, error) {
	remote, err := c.repo.Remote(c.remote)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryGit, "look up remote").WithContext("remote", c.remote).Build()
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return "", ferrors.GitError("remote has no URL").WithContext("remote", c.remote).Build()
	}
	return urls[0], nil
}
