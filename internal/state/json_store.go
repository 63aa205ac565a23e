package state

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
)

// DefaultFileName is the state file created at the repository root.
const DefaultFileName = ".depmerge-state.json"

// Store reads and writes the state file. It holds no state in memory.
type Store struct {
	path string
	now  func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore returns a store for the file at path.
func NewStore(path string, opts ...StoreOption) *Store {
	s := &Store{path: path, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the state file location.
func (s *Store) Path() string { return s.path }

// Exists reports whether a run is recorded.
func (s *Store) Exists() (bool, error) {
	_, err := os.Stat(s.path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	default:
		return false, ferrors.WrapError(err, ferrors.CategoryFileSystem, "stat state file").WithPath(s.path).Build()
	}
}

// Initialize creates the state file for a new run. It fails if one already exists.
func (s *Store) Initialize(candidates Candidates, origin Origin) (*WorkflowState, error) {
	exists, err := s.Exists()
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyExists(s.path)
	}
	now := s.now().UTC()
	st := &WorkflowState{
		Version:           SchemaVersion,
		RunID:             uuid.NewString(),
		StartedAt:         now,
		UpdatedAt:         now,
		StartingCommit:    origin.Commit,
		StartingBranch:    origin.Branch,
		IntegrationBranch: origin.IntegrationBranch,
		Candidates:        normalizeCandidates(candidates),
		Succeeded:         []string{},
		Failed:            []string{},
	}
	if err := s.write(st); err != nil {
		return nil, err
	}
	return st, nil
}

// Load reads the state file. It fails if no run is recorded.
func (s *Store) Load() (*WorkflowState, error) {
	// #nosec G304 -- state path is derived from the repository root
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound(s.path)
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read state file").WithPath(s.path).Build()
	}
	var st WorkflowState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryState, "state file is corrupt").
			Fatal().
			WithPath(s.path).
			WithHint("inspect the file, or run `depmerge abort` to discard the run").
			Build()
	}
	if st.Version > SchemaVersion {
		return nil, ferrors.StateError("state file was written by a newer depmerge").
			WithPath(s.path).
			WithContext("version", st.Version).
			Build()
	}
	if st.Succeeded == nil {
		st.Succeeded = []string{}
	}
	if st.Failed == nil {
		st.Failed = []string{}
	}
	return &st, nil
}

// Mutate loads the state, applies fn and persists the result before returning it.
// Nothing is written when fn fails.
func (s *Store) Mutate(fn func(*WorkflowState) error) (*WorkflowState, error) {
	st, err := s.Load()
	if err != nil {
		return nil, err
	}
	if err := fn(st); err != nil {
		return nil, err
	}
	st.UpdatedAt = s.now().UTC()
	if err := s.write(st); err != nil {
		return nil, err
	}
	return st, nil
}

// Destroy removes the state file. It fails if no run is recorded.
func (s *Store) Destroy() error {
	if err := os.Remove(s.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound(s.path)
		}
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "remove state file").WithPath(s.path).Build()
	}
	return nil
}

// write replaces the state file with a complete new copy.
func (s *Store) write(st *WorkflowState) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "marshal state").Build()
	}
	data = append(data, '\n')

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return ferrors.WrapError(err, ferrors.CategoryFileSystem, "create state directory").WithPath(dir).Build()
		}
	}
	tempPath := s.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write temporary state file").WithPath(tempPath).Build()
	}
	if err := os.Rename(tempPath, s.path); err != nil {
		_ = os.Remove(tempPath)
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "replace state file").WithPath(s.path).Build()
	}
	return nil
}

func normalizeCandidates(c Candidates) Candidates {
	if c.CIFailing == nil {
		c.CIFailing = []string{}
	}
	if c.Mergeable == nil {
		c.Mergeable = []string{}
	}
	return c
}

// ErrAlreadyExists reports a state file left by another run.
func ErrAlreadyExists(path string) error {
	return ferrors.StateError("a run is already in progress").
		WithPath(path).
		WithHint("use `depmerge continue` to resume it, `depmerge status` to inspect it, or `depmerge abort` to discard it").
		Build()
}

// ErrNotFound reports that no run is recorded.
func ErrNotFound(path string) error {
	return ferrors.StateError("no run in progress").
		WithPath(path).
		WithHint("use `depmerge start` to begin a run").
		Build()
}
