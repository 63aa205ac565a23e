// Package orchestrator drives a batch of candidate branches through the merge state machine:
//
//	Pending → Attempting → Merged
//	                     → ConflictResolving → Resolved
//	                                         → Abandoned
//
// Merged and Resolved candidates are recorded as succeeded, Abandoned ones as failed, and the
// batch always moves on to the next candidate. Every transition is persisted through the
// state store before the next repository side effect.
package orchestrator
