package state

import (
	"slices"
	"time"
)

// SchemaVersion is bumped when the file layout changes incompatibly.
const SchemaVersion = 1

// Candidates is the partition computed once at start.
type Candidates struct {
	// CIFailing are recorded for the report but never attempted.
	CIFailing []string `json:"ci_failing"`
	Mergeable []string `json:"mergeable"`
}

// Origin is where the run started, captured before anything is changed.
type Origin struct {
	Commit            string
	Branch            string
	IntegrationBranch string
}

// WorkflowState is the persisted record of a run.
type WorkflowState struct {
	Version           int        `json:"version"`
	RunID             string     `json:"run_id"`
	StartedAt         time.Time  `json:"started_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	FinishedAt        *time.Time `json:"finished_at,omitempty"`
	StartingCommit    string     `json:"starting_commit"`
	StartingBranch    string     `json:"starting_branch"`
	IntegrationBranch string     `json:"integration_branch"`
	Candidates        Candidates `json:"candidates"`
	CurrentCandidate  *string    `json:"current_candidate"`
	Succeeded         []string   `json:"succeeded"`
	Failed            []string   `json:"failed"`
}

// Current returns the candidate in flight.
func (s *WorkflowState) Current() (string, bool) {
	if s.CurrentCandidate == nil {
		return "", false
	}
	return *s.CurrentCandidate, true
}

// SetCurrent marks name as the candidate being processed.
func (s *WorkflowState) SetCurrent(name string) {
	s.CurrentCandidate = &name
}

// ClearCurrent unsets the candidate in flight.
func (s *WorkflowState) ClearCurrent() {
	s.CurrentCandidate = nil
}

// RecordSucceeded appends name to Succeeded. A candidate appears in at most one list.
func (s *WorkflowState) RecordSucceeded(name string) {
	s.Failed = slices.DeleteFunc(s.Failed, func(n string) bool { return n == name })
	if !slices.Contains(s.Succeeded, name) {
		s.Succeeded = append(s.Succeeded, name)
	}
}

// RecordFailed appends name to Failed. A candidate appears in at most one list.
func (s *WorkflowState) RecordFailed(name string) {
	s.Succeeded = slices.DeleteFunc(s.Succeeded, func(n string) bool { return n == name })
	if !slices.Contains(s.Failed, name) {
		s.Failed = append(s.Failed, name)
	}
}

// Outcome reports whether name finished and, if so, whether it succeeded.
func (s *WorkflowState) Outcome(name string) (done, succeeded bool) {
	if slices.Contains(s.Succeeded, name) {
		return true, true
	}
	return slices.Contains(s.Failed, name), false
}

// Finish clears the current candidate and stamps the completion time.
func (s *WorkflowState) Finish(at time.Time) {
	s.CurrentCandidate = nil
	s.FinishedAt = &at
}

// Finished reports whether the loop ran to completion.
func (s *WorkflowState) Finished() bool {
	return s.FinishedAt != nil
}

// ResumeIndex is the position of the current candidate within Mergeable.
func (s *WorkflowState) ResumeIndex() (int, bool) {
	current, ok := s.Current()
	if !ok {
		return 0, false
	}
	i := slices.Index(s.Candidates.Mergeable, current)
	return i, i >= 0
}

// Unresolved returns mergeable candidates before index that have no recorded outcome.
func (s *WorkflowState) Unresolved(index int) []string {
	var out []string
	for _, name := range s.Candidates.Mergeable[:min(index, len(s.Candidates.Mergeable))] {
		if done, _ := s.Outcome(name); !done {
			out = append(out, name)
		}
	}
	return out
}

// Pending returns mergeable candidates without an outcome, in order.
func (s *WorkflowState) Pending() []string {
	return s.Unresolved(len(s.Candidates.Mergeable))
}
