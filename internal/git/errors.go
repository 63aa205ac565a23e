package git

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMergeConflict matches any merge that stopped on conflicts.
var ErrMergeConflict = errors.New("merge conflict")

// MergeConflictError carries the conflicted paths of a stopped merge.
type MergeConflictError struct {
	Ref   string
	Paths []string
	Err   error
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("merge of %s stopped on conflicts in %s", e.Ref, strings.Join(e.Paths, ", "))
}

func (e *MergeConflictError) Unwrap() error { return e.Err }

// Is reports true for ErrMergeConflict.
func (e *MergeConflictError) Is(target error) bool { return target == ErrMergeConflict }
