package workflow

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/depmerge/internal/build"
	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/depmerge/internal/forge"
	"git.home.luguber.info/inful/depmerge/internal/git"
	"git.home.luguber.info/inful/depmerge/internal/journal"
	"git.home.luguber.info/inful/depmerge/internal/notify"
	"git.home.luguber.info/inful/depmerge/internal/state"
)

type fakeVCS struct {
	head       string
	branch     string
	detached   bool
	inMerge    bool
	conflictOn map[string]bool
	branches   map[string]bool
	calls      []string
}

func newFakeVCS() *fakeVCS {
	return &fakeVCS{head: "c0", branch: "main", conflictOn: map[string]bool{}, branches: map[string]bool{"main": true}}
}

func (f *fakeVCS) record(s string) { f.calls = append(f.calls, s) }

func (f *fakeVCS) HeadCommit(context.Context) (string, error) { return f.head, nil }
func (f *fakeVCS) CurrentBranch(context.Context) (string, error) {
	if f.detached {
		return "", ferrors.GitError("HEAD is detached").Build()
	}
	return f.branch, nil
}
func (f *fakeVCS) BranchExists(_ context.Context, name string) (bool, error) {
	return f.branches[name], nil
}
func (f *fakeVCS) Fetch(context.Context) error { f.record("fetch"); return nil }
func (f *fakeVCS) CreateBranch(_ context.Context, name string) error {
	f.record("switch -c " + name)
	f.branches[name] = true
	f.branch = name
	return nil
}
func (f *fakeVCS) Switch(_ context.Context, name string) error {
	f.record("switch " + name)
	f.branch = name
	return nil
}
func (f *fakeVCS) DeleteBranch(_ context.Context, name string) error {
	f.record("branch -D " + name)
	delete(f.branches, name)
	return nil
}
func (f *fakeVCS) DiscardChanges(context.Context) error { f.record("restore"); return nil }
func (f *fakeVCS) Merge(_ context.Context, name string) error {
	f.record("merge " + name)
	if f.conflictOn[name] {
		f.inMerge = true
		return &git.MergeConflictError{Ref: "origin/" + name, Paths: []string{"Cargo.toml"}, Err: errors.New("exit status 1")}
	}
	f.head = "m-" + name
	return nil
}
func (f *fakeVCS) ConflictedPaths(context.Context) ([]string, error) { return []string{"Cargo.toml"}, nil }
func (f *fakeVCS) LockArtifacts() ([]string, error)                   { return nil, nil }
func (f *fakeVCS) RunMergeTool(context.Context, ...string) error {
	f.record("mergetool")
	return errors.New("operator gave up")
}
func (f *fakeVCS) CheckoutTheirs(context.Context, string) error { return nil }
func (f *fakeVCS) Stage(context.Context, string) error          { return nil }
func (f *fakeVCS) ContinueMerge(context.Context) error          { f.inMerge = false; return nil }
func (f *fakeVCS) MergeInProgress(context.Context) (bool, error) {
	return f.inMerge, nil
}
func (f *fakeVCS) AbortMerge(context.Context) error {
	f.record("merge --abort")
	f.inMerge = false
	return nil
}
func (f *fakeVCS) ResetHard(_ context.Context, commit string) error {
	f.record("reset " + commit)
	f.head = commit
	return nil
}

type okValidator struct{}

func (okValidator) Validate(context.Context) (*build.Result, error) { return &build.Result{}, nil }

type fakeSource struct {
	crs []forge.ChangeRequest
	err error
}

func (s fakeSource) Name() string { return "fake" }
func (s fakeSource) ListChangeRequests(context.Context) ([]forge.ChangeRequest, error) {
	return s.crs, s.err
}

type fakePublisher struct {
	notify.Noop
	events []notify.RunCompleted
}

func (p *fakePublisher) PublishRunCompleted(_ context.Context, ev notify.RunCompleted) error {
	p.events = append(p.events, ev)
	return nil
}

var testDay = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

type fixture struct {
	vcs       *fakeVCS
	store     *state.Store
	journal   *journal.SQLiteStore
	publisher *fakePublisher
	logs      *bytes.Buffer
	svc       *Service
}

func newFixture(t *testing.T, src forge.Source) *fixture {
	t.Helper()
	j, err := journal.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	f := &fixture{
		vcs:       newFakeVCS(),
		store:     state.NewStore(filepath.Join(t.TempDir(), state.DefaultFileName)),
		journal:   j,
		publisher: &fakePublisher{},
		logs:      &bytes.Buffer{},
	}
	f.svc = New(f.vcs, okValidator{}, f.store,
		WithSource(src),
		WithJournal(j),
		WithPublisher(f.publisher),
		WithLogger(slog.New(slog.NewTextHandler(f.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))),
		WithClock(func() time.Time { return testDay }))
	return f
}

func dependabot(branch string, state forge.CheckState) forge.ChangeRequest {
	return forge.ChangeRequest{Author: "dependabot[bot]", Branch: branch, Checks: []forge.Check{{Name: "ci", State: state}}}
}

func seedState(t *testing.T, f *fixture, mergeable []string, current string, succeeded ...string) *state.WorkflowState {
	t.Helper()
	_, err := f.store.Initialize(state.Candidates{Mergeable: mergeable}, state.Origin{
		Commit: "c0", Branch: "main", IntegrationBranch: "dependabot-batch-2026-10-17",
	})
	require.NoError(t, err)
	f.vcs.branches["dependabot-batch-2026-10-17"] = true
	f.vcs.branch = "dependabot-batch-2026-10-17"
	st, err := f.store.Mutate(func(s *state.WorkflowState) error {
		if current != "" {
			s.SetCurrent(current)
		}
		for _, name := range succeeded {
			s.RecordSucceeded(name)
		}
		return nil
	})
	require.NoError(t, err)
	return st
}

func TestStart(t *testing.T) {
	src := fakeSource{crs: []forge.ChangeRequest{
		dependabot("dependabot/cargo/serde", forge.CheckSuccess),
		dependabot("dependabot/cargo/tokio", forge.CheckFailure),
		{Author: "alice", Branch: "feature/x"},
		dependabot("dependabot/cargo/rand", forge.CheckPending),
	}}
	f := newFixture(t, src)
	f.vcs.conflictOn["dependabot/cargo/rand"] = true

	sum, err := f.svc.Start(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"fetch",
		"switch -c dependabot-batch-2026-10-18",
		"merge dependabot/cargo/serde",
		"merge dependabot/cargo/rand",
		"mergetool",
		"merge --abort",
	}, f.vcs.calls)
	assert.Equal(t, []string{"dependabot/cargo/serde"}, sum.Succeeded)
	assert.Equal(t, []string{"dependabot/cargo/rand"}, sum.Failed)
	assert.Equal(t, []string{"dependabot/cargo/tokio"}, sum.CIFailing)

	st, err := f.svc.Status()
	require.NoError(t, err)
	assert.Equal(t, "c0", st.StartingCommit)
	assert.Equal(t, "main", st.StartingBranch)
	assert.Equal(t, "dependabot-batch-2026-10-18", st.IntegrationBranch)
	assert.Equal(t, []string{"dependabot/cargo/serde", "dependabot/cargo/rand"}, st.Candidates.Mergeable)
	assert.True(t, st.Finished())

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, st.RunID, f.publisher.events[0].RunID)
	assert.Equal(t, "dependabot-batch-2026-10-18", f.publisher.events[0].IntegrationBranch)

	events, err := f.journal.ByRun(context.Background(), st.RunID)
	require.NoError(t, err)
	var types []string
	for _, e := range events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []string{
		journal.TypeRunStarted,
		journal.TypeCandidateSucceeded,
		journal.TypeCandidateFailed,
		journal.TypeRunFinished,
	}, types)
}

func TestStartWithoutFetch(t *testing.T) {
	f := newFixture(t, fakeSource{})
	WithFetch(false)(f.svc)

	sum, err := f.svc.Start(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, f.vcs.calls, "fetch")
	assert.Empty(t, sum.Succeeded)
}

func TestStartFailsWhenRunExists(t *testing.T) {
	f := newFixture(t, fakeSource{})
	seedState(t, f, []string{"a"}, "")
	f.vcs.calls = nil

	_, err := f.svc.Start(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryState))
	assert.Empty(t, f.vcs.calls)
}

func TestStartOnDetachedHead(t *testing.T) {
	f := newFixture(t, fakeSource{})
	f.vcs.detached = true

	_, err := f.svc.Start(context.Background())
	require.Error(t, err)
	exists, serr := f.store.Exists()
	require.NoError(t, serr)
	assert.False(t, exists)
}

func TestStartPropagatesSourceError(t *testing.T) {
	f := newFixture(t, fakeSource{err: ferrors.ForgeError("rate limited").Build()})

	_, err := f.svc.Start(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryForge))
}

func TestContinueResumesAtCurrentCandidate(t *testing.T) {
	f := newFixture(t, nil)
	seedState(t, f, []string{"a", "b", "c"}, "b")

	sum, err := f.svc.Continue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"merge b", "merge c"}, f.vcs.calls)
	assert.Equal(t, []string{"b", "c"}, sum.Succeeded)
	assert.Contains(t, f.logs.String(), "Earlier candidates have no recorded outcome")
	assert.Contains(t, f.logs.String(), "candidates=[a]")
}

func TestContinueAbortsLeftoverMerge(t *testing.T) {
	f := newFixture(t, nil)
	seedState(t, f, []string{"a", "b"}, "b", "a")
	f.vcs.inMerge = true

	_, err := f.svc.Continue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"merge --abort", "merge b"}, f.vcs.calls)
	assert.NotContains(t, f.logs.String(), "Earlier candidates")
}

func TestContinueWithNothingInProgress(t *testing.T) {
	f := newFixture(t, nil)
	seedState(t, f, []string{"a"}, "")

	_, err := f.svc.Continue(context.Background())
	require.Error(t, err)
	ce, ok := ferrors.AsClassified(err)
	require.True(t, ok)
	assert.Equal(t, ferrors.CategoryState, ce.Category())
	assert.Contains(t, ce.Message(), "nothing to continue")
}

func TestContinueWithoutRun(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.svc.Continue(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryState))
}

func TestStatusIsReadOnly(t *testing.T) {
	f := newFixture(t, nil)
	seeded := seedState(t, f, []string{"a", "b"}, "b", "a")

	st, err := f.svc.Status()
	require.NoError(t, err)
	assert.Equal(t, seeded, st)
	assert.Empty(t, f.vcs.calls)

	again, err := f.svc.Status()
	require.NoError(t, err)
	assert.Equal(t, st.UpdatedAt, again.UpdatedAt)
}

func TestAbortUnwindsRun(t *testing.T) {
	f := newFixture(t, nil)
	st := seedState(t, f, []string{"a", "b"}, "b", "a")
	f.vcs.inMerge = true
	f.vcs.head = "m-a"

	require.NoError(t, f.svc.Abort(context.Background()))

	assert.Equal(t, []string{
		"merge --abort",
		"restore",
		"switch main",
		"branch -D dependabot-batch-2026-10-17",
		"reset c0",
	}, f.vcs.calls)
	assert.Equal(t, "main", f.vcs.branch)
	assert.Equal(t, "c0", f.vcs.head)

	exists, err := f.store.Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	events, err := f.journal.ByRun(context.Background(), st.RunID)
	require.NoError(t, err)
	require.NotEmpty(t, events)
	assert.Equal(t, journal.TypeRunAborted, events[len(events)-1].Type)
}

func TestAbortWithoutRun(t *testing.T) {
	f := newFixture(t, nil)
	err := f.svc.Abort(context.Background())
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryState))
	assert.Empty(t, f.vcs.calls)
}
