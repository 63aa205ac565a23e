package state

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
)

func newTestStore(t *testing.T) (*Store, *time.Time) {
	t.Helper()
	clock := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(filepath.Join(t.TempDir(), DefaultFileName), WithClock(func() time.Time { return clock }))
	return s, &clock
}

func testOrigin() Origin {
	return Origin{Commit: "abc123", Branch: "main", IntegrationBranch: "deps-2024-05-01"}
}

func TestInitializeAndLoad(t *testing.T) {
	s, _ := newTestStore(t)

	exists, err := s.Exists()
	require.NoError(t, err)
	assert.False(t, exists)

	st, err := s.Initialize(Candidates{CIFailing: []string{"bad"}, Mergeable: []string{"a", "b"}}, testOrigin())
	require.NoError(t, err)
	assert.NotEmpty(t, st.RunID)
	assert.Equal(t, SchemaVersion, st.Version)

	loaded, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, st, loaded)
	assert.Equal(t, "abc123", loaded.StartingCommit)
	assert.Equal(t, "main", loaded.StartingBranch)
	assert.Equal(t, []string{"a", "b"}, loaded.Candidates.Mergeable)
	assert.Nil(t, loaded.CurrentCandidate)
	assert.Empty(t, loaded.Succeeded)
	assert.False(t, loaded.Finished())
}

func TestInitializeRefusesExistingRun(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Initialize(Candidates{}, testOrigin())
	require.NoError(t, err)

	_, err = s.Initialize(Candidates{}, testOrigin())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyExists(""))
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryState))
}

func TestLoadAndDestroyWithoutRun(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNotFound(""))

	err = s.Destroy()
	assert.ErrorIs(t, err, ErrNotFound(""))

	_, err = s.Mutate(func(*WorkflowState) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound(""))
}

func TestMutatePersists(t *testing.T) {
	s, clock := newTestStore(t)
	_, err := s.Initialize(Candidates{Mergeable: []string{"a", "b"}}, testOrigin())
	require.NoError(t, err)

	*clock = clock.Add(time.Minute)
	_, err = s.Mutate(func(st *WorkflowState) error {
		st.SetCurrent("a")
		return nil
	})
	require.NoError(t, err)

	loaded, err := s.Load()
	require.NoError(t, err)
	current, ok := loaded.Current()
	require.True(t, ok)
	assert.Equal(t, "a", current)
	assert.Equal(t, clock.UTC(), loaded.UpdatedAt)

	_, err = os.Stat(s.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file must not linger")
}

func TestMutateErrorLeavesFileUntouched(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Initialize(Candidates{Mergeable: []string{"a"}}, testOrigin())
	require.NoError(t, err)
	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = s.Mutate(func(st *WorkflowState) error {
		st.RecordSucceeded("a")
		return boom
	})
	require.ErrorIs(t, err, boom)

	after, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestDestroy(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Initialize(Candidates{}, testOrigin())
	require.NoError(t, err)

	require.NoError(t, s.Destroy())
	exists, err := s.Exists()
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestLoadCorruptFile(t *testing.T) {
	s, _ := newTestStore(t)
	require.NoError(t, os.WriteFile(s.Path(), []byte("{not json"), 0o600))

	_, err := s.Load()
	require.Error(t, err)
	assert.True(t, ferrors.HasCategory(err, ferrors.CategoryState))
}

func TestFileShape(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Initialize(Candidates{Mergeable: []string{"a"}}, testOrigin())
	require.NoError(t, err)

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	for _, key := range []string{"run_id", "starting_commit", "starting_branch", "integration_branch", "candidates", "current_candidate", "succeeded", "failed"} {
		assert.Contains(t, raw, key)
	}
	assert.Nil(t, raw["current_candidate"])
	assert.NotContains(t, raw, "finished_at")
}

func TestOutcomeBookkeeping(t *testing.T) {
	st := &WorkflowState{Candidates: Candidates{Mergeable: []string{"a", "b", "c", "d"}}}

	st.RecordSucceeded("a")
	st.RecordSucceeded("a")
	st.RecordFailed("c")
	assert.Equal(t, []string{"a"}, st.Succeeded)
	assert.Equal(t, []string{"c"}, st.Failed)

	// A retried candidate moves between lists instead of appearing twice.
	st.RecordSucceeded("c")
	assert.Equal(t, []string{"a", "c"}, st.Succeeded)
	assert.Empty(t, st.Failed)

	done, ok := st.Outcome("c")
	assert.True(t, done)
	assert.True(t, ok)
	done, _ = st.Outcome("b")
	assert.False(t, done)

	st.SetCurrent("d")
	idx, ok := st.ResumeIndex()
	require.True(t, ok)
	assert.Equal(t, 3, idx)
	assert.Equal(t, []string{"b"}, st.Unresolved(idx))
	assert.Equal(t, []string{"b", "d"}, st.Pending())

	st.SetCurrent("zzz")
	_, ok = st.ResumeIndex()
	assert.False(t, ok)

	st.Finish(time.Now())
	assert.True(t, st.Finished())
	_, ok = st.Current()
	assert.False(t, ok)
}
