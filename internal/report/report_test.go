package report

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"git.home.luguber.info/inful/depmerge/internal/journal"
	"git.home.luguber.info/inful/depmerge/internal/orchestrator"
	"git.home.luguber.info/inful/depmerge/internal/state"
)

func TestStatus(t *testing.T) {
	current := "c"
	st := &state.WorkflowState{
		RunID:             "run-1",
		StartedAt:         time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
		StartingCommit:    "0123456789abcdef",
		StartingBranch:    "main",
		IntegrationBranch: "dependabot-batch-2026-10-18",
		Candidates: state.Candidates{
			CIFailing: []string{"x"},
			Mergeable: []string{"a", "b", "c", "d"},
		},
		CurrentCandidate: &current,
		Succeeded:        []string{"a"},
		Failed:           []string{"b"},
	}

	out := Status(st)
	for _, want := range []string{"run-1", "in progress", "main @ 0123456789ab", "dependabot-batch-2026-10-18",
		"Succeeded (1)", "✓ a", "Failed (1)", "✗ b", "Pending (2)", "• c", "• d", "Skipped (CI failing) (1)", "- x"} {
		assert.Contains(t, out, want)
	}

	finished := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	st.FinishedAt = &finished
	st.CurrentCandidate = nil
	st.Succeeded = []string{"a", "c", "d"}
	out = Status(st)
	assert.Contains(t, out, "finished")
	assert.NotContains(t, out, "Pending")
}

func TestSummary(t *testing.T) {
	sum := &orchestrator.Summary{
		RunID: "run-1",
		Results: []orchestrator.CandidateResult{
			{Name: "a", Phase: orchestrator.PhaseMerged, Duration: 1200 * time.Millisecond},
			{Name: "b", Phase: orchestrator.PhaseAbandoned, Reason: errors.New("tool failed")},
		},
		Succeeded: []string{"a"},
		Failed:    []string{"b"},
		CIFailing: []string{"x", "y"},
	}
	out := Summary(sum)
	assert.Contains(t, out, "✓ a")
	assert.Contains(t, out, "merged, 1.2s")
	assert.Contains(t, out, "✗ b")
	assert.Contains(t, out, "1 succeeded")
	assert.Contains(t, out, "1 failed")
	assert.Contains(t, out, "2 skipped")

	assert.Contains(t, Summary(&orchestrator.Summary{RunID: "r"}), "no candidates processed")
}

func TestHistoryAndEvents(t *testing.T) {
	assert.Contains(t, History(nil), "no runs recorded")

	out := History([]journal.RunSummary{{
		RunID: "run-1", Status: journal.StatusFinished, Mergeable: 3,
		Succeeded: []string{"a", "b"}, Failed: []string{"c"}, IntegrationBranch: "batch",
	}})
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "2/3 succeeded, 1 failed, branch batch")

	ev, err := journal.NewCandidateOutcome("run-1", "c", false, journal.CandidateMeta{Outcome: "abandoned", Reason: "validation failed", Conflicts: 2})
	assert.NoError(t, err)
	out = Events("run-1", []journal.Event{ev})
	assert.Contains(t, out, "CandidateFailed")
	assert.Contains(t, out, "validation failed")
	assert.Contains(t, out, "(2 conflicted)")
}
