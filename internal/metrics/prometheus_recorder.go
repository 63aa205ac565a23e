package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
)

const namespace = "depmerge"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	reg               *prom.Registry
	candidateDuration *prom.HistogramVec
	candidateOutcome  *prom.CounterVec
	conflicts         prom.Counter
	runOutcome        *prom.CounterVec
	lastRun           prom.Gauge
}

// NewPrometheusRecorder constructs and registers the depmerge metrics on reg.
// A nil registry gets a fresh one.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.candidateDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "candidate_duration_seconds",
		Help:      "Time spent merging one candidate branch, including conflict resolution and validation",
		Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 180, 600, 1800},
	}, []string{"outcome"})
	pr.candidateOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "candidate_outcomes_total",
		Help:      "Candidate outcomes by result",
	}, []string{"outcome"})
	pr.conflicts = prom.NewCounter(prom.CounterOpts{
		Namespace: namespace,
		Name:      "merge_conflicts_total",
		Help:      "Merges that stopped on a conflict",
	})
	pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "run_outcomes_total",
		Help:      "Runs by final status",
	}, []string{"outcome"})
	pr.lastRun = prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time of the last finished run",
	})
	reg.MustRegister(pr.candidateDuration, pr.candidateOutcome, pr.conflicts, pr.runOutcome, pr.lastRun)
	return pr
}

// Registry returns the registry the metrics are registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObserveCandidateDuration(outcome OutcomeLabel, d time.Duration) {
	if p == nil {
		return
	}
	p.candidateDuration.WithLabelValues(string(outcome)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCandidateOutcome(outcome OutcomeLabel) {
	if p == nil {
		return
	}
	p.candidateOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncConflict() {
	if p == nil {
		return
	}
	p.conflicts.Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome RunOutcomeLabel) {
	if p == nil {
		return
	}
	p.runOutcome.WithLabelValues(string(outcome)).Inc()
	p.lastRun.SetToCurrentTime()
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "failed to write metrics textfile").
			WithPath(path).
			Build()
	}
	return nil
}
