package metrics

import "time"

// OutcomeLabel is the final result of one candidate attempt.
type OutcomeLabel string

const (
	OutcomeMerged    OutcomeLabel = "merged"
	OutcomeResolved  OutcomeLabel = "resolved"
	OutcomeAbandoned OutcomeLabel = "abandoned"
)

// RunOutcomeLabel is the final result of a start or continue invocation.
type RunOutcomeLabel string

const (
	RunCompleted RunOutcomeLabel = "completed"
	RunFailed    RunOutcomeLabel = "failed"
	RunCanceled  RunOutcomeLabel = "canceled"
)

// Recorder defines observability hooks for a merge run. Implementations must be safe to
// call on every candidate; NoopRecorder is the default.
type Recorder interface {
	ObserveCandidateDuration(outcome OutcomeLabel, d time.Duration)
	IncCandidateOutcome(outcome OutcomeLabel)
	IncConflict()
	IncRunOutcome(outcome RunOutcomeLabel)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveCandidateDuration(OutcomeLabel, time.Duration) {}
func (NoopRecorder) IncCandidateOutcome(OutcomeLabel)                     {}
func (NoopRecorder) IncConflict()                                         {}
func (NoopRecorder) IncRunOutcome(RunOutcomeLabel)                        {}
