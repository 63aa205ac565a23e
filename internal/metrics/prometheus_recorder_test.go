package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveCandidateDuration(OutcomeMerged, time.Second)
	r.IncCandidateOutcome(OutcomeMerged)
	r.IncConflict()
	r.IncRunOutcome(RunCompleted)
}

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.ObserveCandidateDuration(OutcomeResolved, 1500*time.Millisecond)
	pr.IncCandidateOutcome(OutcomeResolved)
	pr.IncCandidateOutcome(OutcomeAbandoned)
	pr.IncCandidateOutcome(OutcomeAbandoned)
	pr.IncConflict()
	pr.IncRunOutcome(RunCompleted)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	counters := map[string]float64{}
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			if c := m.GetCounter(); c != nil {
				key := mf.GetName()
				for _, lp := range m.GetLabel() {
					key += "/" + lp.GetValue()
				}
				counters[key] = c.GetValue()
			}
		}
	}
	assert.InDelta(t, 2, counters["depmerge_candidate_outcomes_total/abandoned"], 0)
	assert.InDelta(t, 1, counters["depmerge_merge_conflicts_total"], 0)
	assert.InDelta(t, 1, counters["depmerge_run_outcomes_total/completed"], 0)
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncCandidateOutcome(OutcomeMerged)

	path := filepath.Join(t.TempDir(), "depmerge.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `depmerge_candidate_outcomes_total{outcome="merged"} 1`)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	assert.NotPanics(t, func() {
		pr.IncConflict()
		pr.IncRunOutcome(RunFailed)
	})
}
