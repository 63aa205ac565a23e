// Package journal keeps an append-only SQLite audit trail of merge runs and candidate outcomes.
package journal

import (
	"encoding/json"
	"time"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
)

// Event types written to the journal.
const (
	TypeRunStarted         = "RunStarted"
	TypeRunResumed         = "RunResumed"
	TypeCandidateSucceeded = "CandidateSucceeded"
	TypeCandidateFailed    = "CandidateFailed"
	TypeRunFinished        = "RunFinished"
	TypeRunAborted         = "RunAborted"
)

// Event is one journal row.
type Event struct {
	ID        int64
	RunID     string
	Type      string
	Candidate string
	Timestamp time.Time
	Payload   []byte
	Metadata  map[string]string
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	if len(e.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryJournal, "failed to unmarshal event payload").
			WithContext("event_id", e.ID).
			WithContext("event_type", e.Type).
			Build()
	}
	return nil
}

// RunStartedMeta describes a new batch.
type RunStartedMeta struct {
	StartingBranch    string   `json:"starting_branch"`
	StartingCommit    string   `json:"starting_commit"`
	IntegrationBranch string   `json:"integration_branch"`
	Mergeable         []string `json:"mergeable"`
	CIFailing         []string `json:"ci_failing"`
}

// CandidateMeta describes one candidate outcome.
type CandidateMeta struct {
	Outcome    string `json:"outcome"`
	DurationMS int64  `json:"duration_ms"`
	Reason     string `json:"reason,omitempty"`
	Conflicts  int    `json:"conflicts,omitempty"`
}

// RunFinishedMeta is the final tally of a run.
type RunFinishedMeta struct {
	Succeeded []string `json:"succeeded"`
	Failed    []string `json:"failed"`
}

func newEvent(runID, eventType, candidate string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, ferrors.WrapError(err, ferrors.CategoryJournal, "failed to marshal "+eventType+" payload").
			WithContext("run_id", runID).
			Build()
	}
	return Event{
		RunID:     runID,
		Type:      eventType,
		Candidate: candidate,
		Timestamp: time.Now(),
		Payload:   data,
	}, nil
}

// NewRunStarted creates a RunStarted event.
func NewRunStarted(runID string, meta RunStartedMeta) (Event, error) {
	return newEvent(runID, TypeRunStarted, "", meta)
}

// NewRunResumed creates a RunResumed event for a continue invocation.
func NewRunResumed(runID, candidate string) (Event, error) {
	return newEvent(runID, TypeRunResumed, candidate, struct{}{})
}

// NewCandidateOutcome creates a CandidateSucceeded or CandidateFailed event.
func NewCandidateOutcome(runID, candidate string, succeeded bool, meta CandidateMeta) (Event, error) {
	t := TypeCandidateFailed
	if succeeded {
		t = TypeCandidateSucceeded
	}
	return newEvent(runID, t, candidate, meta)
}

// NewRunFinished creates a RunFinished event.
func NewRunFinished(runID string, meta RunFinishedMeta) (Event, error) {
	return newEvent(runID, TypeRunFinished, "", meta)
}

// NewRunAborted creates a RunAborted event.
func NewRunAborted(runID string) (Event, error) {
	return newEvent(runID, TypeRunAborted, "", struct{}{})
}
