package orchestrator

import (
	"context"

	"git.home.luguber.info/inful/depmerge/internal/build"
	"git.home.luguber.info/inful/depmerge/internal/journal"
	"git.home.luguber.info/inful/depmerge/internal/state"
)

// VCS is the repository surface the merge loop needs. *git.Client implements it.
type VCS interface {
	HeadCommit(ctx context.Context) (string, error)
	Merge(ctx context.Context, candidate string) error
	ConflictedPaths(ctx context.Context) ([]string, error)
	LockArtifacts() ([]string, error)
	RunMergeTool(ctx context.Context, paths ...string) error
	CheckoutTheirs(ctx context.Context, path string) error
	Stage(ctx context.Context, path string) error
	ContinueMerge(ctx context.Context) error
	MergeInProgress(ctx context.Context) (bool, error)
	AbortMerge(ctx context.Context) error
	ResetHard(ctx context.Context, commit string) error
}

// Validator runs the project build after a conflict resolution. *build.Service implements it.
type Validator interface {
	Validate(ctx context.Context) (*build.Result, error)
}

// StateStore is the single write path for the workflow state. *state.Store implements it.
type StateStore interface {
	Load() (*state.WorkflowState, error)
	Mutate(fn func(*state.WorkflowState) error) (*state.WorkflowState, error)
}

// Journal receives an audit event per candidate outcome.
type Journal interface {
	Append(ctx context.Context, e journal.Event) error
}
