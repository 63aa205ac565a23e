package journal

import (
	"context"
	"slices"
	"time"
)

// Run statuses derived from events.
const (
	StatusRunning  = "running"
	StatusFinished = "finished"
	StatusAborted  = "aborted"
)

// RunSummary is a read model of one run reconstructed from its events.
type RunSummary struct {
	RunID             string
	Status            string
	StartedAt         time.Time
	EndedAt           *time.Time
	IntegrationBranch string
	Mergeable         int
	Succeeded         []string
	Failed            []string
	Resumes           int
}

// History rebuilds run summaries from every event in the store, newest run first.
// A non-positive limit returns all runs.
func History(ctx context.Context, store Store, limit int) ([]RunSummary, error) {
	events, err := store.Range(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return nil, err
	}
	runs := Summarize(events)
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// Summarize folds events into run summaries, newest run first.
func Summarize(events []Event) []RunSummary {
	byID := map[string]*RunSummary{}
	var order []*RunSummary
	for _, e := range events {
		if e.RunID == "" {
			continue
		}
		r, ok := byID[e.RunID]
		if !ok {
			r = &RunSummary{RunID: e.RunID, Status: StatusRunning, StartedAt: e.Timestamp}
			byID[e.RunID] = r
			order = append(order, r)
		}
		apply(r, e)
	}

	out := make([]RunSummary, 0, len(order))
	for _, r := range order {
		out = append(out, *r)
	}
	slices.SortStableFunc(out, func(a, b RunSummary) int { return b.StartedAt.Compare(a.StartedAt) })
	return out
}

func apply(r *RunSummary, e Event) {
	switch e.Type {
	case TypeRunStarted:
		var meta RunStartedMeta
		if e.Decode(&meta) == nil {
			r.IntegrationBranch = meta.IntegrationBranch
			r.Mergeable = len(meta.Mergeable)
		}
		r.StartedAt = e.Timestamp
	case TypeRunResumed:
		r.Resumes++
		r.Status = StatusRunning
		r.EndedAt = nil
	case TypeCandidateSucceeded:
		r.Failed = slices.DeleteFunc(r.Failed, func(c string) bool { return c == e.Candidate })
		if !slices.Contains(r.Succeeded, e.Candidate) {
			r.Succeeded = append(r.Succeeded, e.Candidate)
		}
	case TypeCandidateFailed:
		r.Succeeded = slices.DeleteFunc(r.Succeeded, func(c string) bool { return c == e.Candidate })
		if !slices.Contains(r.Failed, e.Candidate) {
			r.Failed = append(r.Failed, e.Candidate)
		}
	case TypeRunFinished:
		r.Status = StatusFinished
		t := e.Timestamp
		r.EndedAt = &t
	case TypeRunAborted:
		r.Status = StatusAborted
		t := e.Timestamp
		r.EndedAt = &t
	}
}
