package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/depmerge/internal/git"
	"git.home.luguber.info/inful/depmerge/internal/journal"
	"git.home.luguber.info/inful/depmerge/internal/logfields"
	"git.home.luguber.info/inful/depmerge/internal/metrics"
	"git.home.luguber.info/inful/depmerge/internal/state"
)

// CandidateResult is the outcome of one candidate in this invocation.
type CandidateResult struct {
	Name     string
	Phase    Phase
	Duration time.Duration
	// Conflicts is the number of paths the merge stopped on; zero for a clean merge.
	Conflicts int
	// Reason explains an abandoned candidate.
	Reason error
}

// Summary is what Run reports back. Succeeded and Failed reflect the whole run,
// including outcomes recorded by earlier invocations.
type Summary struct {
	RunID     string
	Results   []CandidateResult
	Succeeded []string
	Failed    []string
	CIFailing []string
}

// Orchestrator merges candidates one at a time into the checked-out integration branch.
type Orchestrator struct {
	vcs       VCS
	validator Validator
	store     StateStore
	journal   Journal
	recorder  metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithJournal records an audit event per outcome.
func WithJournal(j Journal) Option {
	return func(o *Orchestrator) {
		if j != nil {
			o.journal = j
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New returns an orchestrator over the given collaborators.
func New(vcs VCS, validator Validator, store StateStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		vcs:       vcs,
		validator: validator,
		store:     store,
		journal:   journal.Discard{},
		recorder:  metrics.NoopRecorder{},
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes candidates in order and then marks the run finished. Conflict failures are
// recorded and skipped; any other error stops the run with the state as last persisted.
func (o *Orchestrator) Run(ctx context.Context, candidates []string) (*Summary, error) {
	st, err := o.store.Load()
	if err != nil {
		return nil, err
	}
	runID := st.RunID
	log := o.logger.With(logfields.RunID(runID))

	var results []CandidateResult
	for i, name := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, interrupted(err, name)
		}
		log.Info("Processing candidate",
			logfields.Candidate(name),
			slog.Int("position", i+1),
			logfields.Count(len(candidates)))

		res, err := o.process(ctx, log, runID, name)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	st, err = o.store.Mutate(func(s *state.WorkflowState) error {
		s.Finish(o.now().UTC())
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info("Batch finished",
		slog.Int("succeeded", len(st.Succeeded)),
		slog.Int("failed", len(st.Failed)))

	return &Summary{
		RunID:     runID,
		Results:   results,
		Succeeded: slices.Clone(st.Succeeded),
		Failed:    slices.Clone(st.Failed),
		CIFailing: slices.Clone(st.Candidates.CIFailing),
	}, nil
}

func (o *Orchestrator) process(ctx context.Context, log *slog.Logger, runID, name string) (CandidateResult, error) {
	log = log.With(logfields.Candidate(name))
	start := o.now()

	if _, err := o.store.Mutate(func(s *state.WorkflowState) error {
		s.SetCurrent(name)
		return nil
	}); err != nil {
		return CandidateResult{}, err
	}

	pre, err := o.vcs.HeadCommit(ctx)
	if err != nil {
		return CandidateResult{}, err
	}

	log.Debug("Attempting merge", logfields.Phase(string(PhaseAttempting)), logfields.Commit(pre))
	res, err := o.attempt(ctx, log, name, pre)
	if err != nil {
		return CandidateResult{}, err
	}
	res.Duration = o.now().Sub(start)
	if err := o.record(ctx, log, runID, res); err != nil {
		return CandidateResult{}, err
	}
	return res, nil
}

// attempt merges name and resolves conflicts. A returned error is fatal to the run.
func (o *Orchestrator) attempt(ctx context.Context, log *slog.Logger, name, pre string) (CandidateResult, error) {
	res := CandidateResult{Name: name}
	err := o.vcs.Merge(ctx, name)
	if err == nil {
		res.Phase = PhaseMerged
		return res, nil
	}
	var conflict *git.MergeConflictError
	if !errors.As(err, &conflict) {
		return res, err
	}

	o.recorder.IncConflict()
	res.Conflicts = len(conflict.Paths)
	log.Info("Merge stopped on conflicts",
		logfields.Phase(string(PhaseConflictResolving)),
		logfields.Count(len(conflict.Paths)))

	committed, rerr := o.resolve(ctx, log, conflict.Paths)
	if rerr == nil {
		res.Phase = PhaseResolved
		return res, nil
	}
	if ctx.Err() != nil {
		return res, interrupted(ctx.Err(), name)
	}

	res.Phase = PhaseAbandoned
	res.Reason = ferrors.WrapError(rerr, ferrors.CategoryConflict, "conflict resolution abandoned").
		Warning().
		WithContext("candidate", name).
		Build()
	log.Warn("Abandoning candidate", logfields.Phase(string(PhaseAbandoned)), logfields.Error(rerr))
	if err := o.rollback(ctx, log, pre, committed); err != nil {
		return res, err
	}
	return res, nil
}

// resolve runs the merge tool on manifest conflicts, takes the incoming lock artifacts,
// commits the merge and validates it. committed reports whether the merge commit exists.
// Only conflicted lock artifacts are checked out from theirs; a lock that merged cleanly
// already holds the incoming content. Every lock artifact is staged.
func (o *Orchestrator) resolve(ctx context.Context, log *slog.Logger, conflicted []string) (committed bool, err error) {
	locks, err := o.vcs.LockArtifacts()
	if err != nil {
		return false, err
	}
	isLock := func(p string) bool { return slices.Contains(locks, p) }

	var manual []string
	for _, p := range conflicted {
		if !isLock(p) {
			manual = append(manual, p)
		}
	}
	if len(manual) > 0 {
		log.Info("Running merge tool", logfields.Count(len(manual)))
		if err := o.vcs.RunMergeTool(ctx, manual...); err != nil {
			return false, err
		}
		remaining, err := o.vcs.ConflictedPaths(ctx)
		if err != nil {
			return false, err
		}
		if left := slices.DeleteFunc(remaining, isLock); len(left) > 0 {
			return false, ferrors.ConflictError("paths are still conflicted after the merge tool").
				WithContext("paths", left).
				Build()
		}
	}

	for _, lock := range locks {
		if slices.Contains(conflicted, lock) {
			if err := o.vcs.CheckoutTheirs(ctx, lock); err != nil {
				return false, err
			}
		}
		if err := o.vcs.Stage(ctx, lock); err != nil {
			return false, err
		}
		log.Debug("Took incoming lock artifact", logfields.Path(lock))
	}

	if err := o.vcs.ContinueMerge(ctx); err != nil {
		return false, err
	}
	if _, err := o.validator.Validate(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// rollback returns the work tree to pre. Failure here is fatal: the tree is in an unknown state.
func (o *Orchestrator) rollback(ctx context.Context, log *slog.Logger, pre string, committed bool) error {
	if !committed {
		inProgress, err := o.vcs.MergeInProgress(ctx)
		if err != nil {
			return rollbackError(err, pre)
		}
		if inProgress {
			log.Debug("Aborting merge")
			if err := o.vcs.AbortMerge(ctx); err != nil {
				return rollbackError(err, pre)
			}
			return nil
		}
	}
	log.Debug("Resetting to pre-attempt commit", logfields.Commit(pre))
	if err := o.vcs.ResetHard(ctx, pre); err != nil {
		return rollbackError(err, pre)
	}
	return nil
}

func (o *Orchestrator) record(ctx context.Context, log *slog.Logger, runID string, res CandidateResult) error {
	succeeded := res.Phase.Succeeded()
	if _, err := o.store.Mutate(func(s *state.WorkflowState) error {
		if succeeded {
			s.RecordSucceeded(res.Name)
		} else {
			s.RecordFailed(res.Name)
		}
		return nil
	}); err != nil {
		return err
	}

	outcome := outcomeLabel(res.Phase)
	o.recorder.ObserveCandidateDuration(outcome, res.Duration)
	o.recorder.IncCandidateOutcome(outcome)

	meta := journal.CandidateMeta{
		Outcome:    string(res.Phase),
		DurationMS: res.Duration.Milliseconds(),
		Conflicts:  res.Conflicts,
	}
	if res.Reason != nil {
		meta.Reason = res.Reason.Error()
	}
	ev, err := journal.NewCandidateOutcome(runID, res.Name, succeeded, meta)
	if err == nil {
		err = o.journal.Append(ctx, ev)
	}
	if err != nil {
		log.Warn("Failed to journal candidate outcome", logfields.Error(err))
	}

	log.Info("Candidate done", logfields.Outcome(string(res.Phase)), logfields.DurationMS(float64(res.Duration.Milliseconds())))
	return nil
}

func outcomeLabel(p Phase) metrics.OutcomeLabel {
	switch p {
	case PhaseMerged:
		return metrics.OutcomeMerged
	case PhaseResolved:
		return metrics.OutcomeResolved
	default:
		return metrics.OutcomeAbandoned
	}
}

func rollbackError(err error, pre string) error {
	return ferrors.WrapError(err, ferrors.CategoryGit, "failed to roll back abandoned candidate").
		Fatal().
		WithContext("commit", pre).
		WithHint("inspect the work tree, then run `depmerge continue` or `depmerge abort`").
		Build()
}

func interrupted(err error, candidate string) error {
	return ferrors.WrapError(err, ferrors.CategoryInternal, "run interrupted").
		WithContext("candidate", candidate).
		WithHint("run `depmerge continue` to resume").
		Build()
}
