// Package state persists the progress of a batch run.
//
// A single JSON file records where the run started, which candidates were selected,
// the candidate in flight and the outcome of every finished one. Its presence means a
// run exists. Every change goes through Store.Mutate, which rewrites the whole file
// atomically before returning, so the file always reflects the last completed step.
package state
