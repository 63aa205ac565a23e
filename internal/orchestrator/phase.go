package orchestrator

// Phase is a candidate's position in the merge state machine.
type Phase string

const (
	PhasePending           Phase = "pending"
	PhaseAttempting        Phase = "attempting"
	PhaseMerged            Phase = "merged"
	PhaseConflictResolving Phase = "conflict_resolving"
	PhaseResolved          Phase = "resolved"
	PhaseAbandoned         Phase = "abandoned"
)

// Terminal reports whether p ends a candidate's processing.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseMerged, PhaseResolved, PhaseAbandoned:
		return true
	default:
		return false
	}
}

// Succeeded reports whether p counts toward the succeeded list.
func (p Phase) Succeeded() bool { return p == PhaseMerged || p == PhaseResolved }
