// Package workflow implements the control operations of a batch run: start, continue, status
// and abort. Each operation is a short sequence over the repository, the candidate source and
// the persisted state; the merge loop itself lives in package orchestrator.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/depmerge/internal/forge"
	"git.home.luguber.info/inful/depmerge/internal/git"
	"git.home.luguber.info/inful/depmerge/internal/journal"
	"git.home.luguber.info/inful/depmerge/internal/logfields"
	"git.home.luguber.info/inful/depmerge/internal/metrics"
	"git.home.luguber.info/inful/depmerge/internal/notify"
	"git.home.luguber.info/inful/depmerge/internal/orchestrator"
	"git.home.luguber.info/inful/depmerge/internal/state"
)

// VCS is the repository surface used by the control operations. *git.Client implements it.
type VCS interface {
	orchestrator.VCS
	Fetch(ctx context.Context) error
	CurrentBranch(ctx context.Context) (string, error)
	BranchExists(ctx context.Context, name string) (bool, error)
	CreateBranch(ctx context.Context, name string) error
	Switch(ctx context.Context, name string) error
	DeleteBranch(ctx context.Context, name string) error
	DiscardChanges(ctx context.Context) error
}

// Store is the workflow state file. *state.Store implements it.
type Store interface {
	orchestrator.StateStore
	Path() string
	Exists() (bool, error)
	Initialize(candidates state.Candidates, origin state.Origin) (*state.WorkflowState, error)
	Destroy() error
}

// Service runs control operations against one repository.
type Service struct {
	vcs          VCS
	validator    orchestrator.Validator
	store        Store
	source       forge.Source
	author       string
	branchPrefix string
	fetch        bool
	repository   string
	journal      journal.Store
	recorder     metrics.Recorder
	publisher    notify.Publisher
	logger       *slog.Logger
	now          func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithSource sets where start lists candidates from. Only start needs it.
func WithSource(src forge.Source) Option { return func(s *Service) { s.source = src } }

// WithAuthor restricts candidates to change requests opened by author.
func WithAuthor(author string) Option { return func(s *Service) { s.author = author } }

// WithBranchPrefix names integration branches <prefix>-YYYY-MM-DD.
func WithBranchPrefix(prefix string) Option { return func(s *Service) { s.branchPrefix = prefix } }

// WithFetch controls whether start fetches the remote first.
func WithFetch(fetch bool) Option { return func(s *Service) { s.fetch = fetch } }

// WithRepository names the repository in notifications.
func WithRepository(name string) Option { return func(s *Service) { s.repository = name } }

// WithJournal sets the run journal.
func WithJournal(j journal.Store) Option {
	return func(s *Service) {
		if j != nil {
			s.journal = j
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithPublisher sets the run notification publisher.
func WithPublisher(p notify.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source used for branch names and timestamps.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// New returns a Service.
func New(vcs VCS, validator orchestrator.Validator, store Store, opts ...Option) *Service {
	s := &Service{
		vcs:          vcs,
		validator:    validator,
		store:        store,
		author:       "dependabot[bot]",
		branchPrefix: "dependabot-batch",
		fetch:        true,
		journal:      journal.Discard{},
		recorder:     metrics.NoopRecorder{},
		publisher:    notify.Noop{},
		logger:       slog.Default(),
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) orchestrator() *orchestrator.Orchestrator {
	return orchestrator.New(s.vcs, s.validator, s.store,
		orchestrator.WithJournal(s.journal),
		orchestrator.WithRecorder(s.recorder),
		orchestrator.WithLogger(s.logger),
		orchestrator.WithClock(s.now))
}

// Start lists candidates, creates the integration branch and merges every mergeable candidate.
func (s *Service) Start(ctx context.Context) (*orchestrator.Summary, error) {
	exists, err := s.store.Exists()
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, state.ErrAlreadyExists(s.store.Path())
	}
	if s.source == nil {
		return nil, ferrors.InternalError("no candidate source configured").WithOperation("start").Build()
	}

	if s.fetch {
		s.logger.Info("Fetching remote")
		if err := s.vcs.Fetch(ctx); err != nil {
			return nil, err
		}
	}

	crs, err := s.source.ListChangeRequests(ctx)
	if err != nil {
		return nil, err
	}
	ciFailing, mergeable := forge.Partition(crs, s.author)
	s.logger.Info("Listed candidates",
		logfields.Author(s.author),
		slog.String("source", s.source.Name()),
		slog.Int("mergeable", len(mergeable)),
		slog.Int("ci_failing", len(ciFailing)))
	for _, name := range ciFailing {
		s.logger.Info("Skipping candidate with failing CI", logfields.Candidate(name))
	}

	commit, err := s.vcs.HeadCommit(ctx)
	if err != nil {
		return nil, err
	}
	branch, err := s.vcs.CurrentBranch(ctx)
	if err != nil {
		return nil, err
	}
	integration := git.DatedBranchName(s.branchPrefix, s.now())
	if err := s.vcs.CreateBranch(ctx, integration); err != nil {
		return nil, err
	}
	s.logger.Info("Created integration branch", logfields.Branch(integration), logfields.Commit(commit))

	st, err := s.store.Initialize(
		state.Candidates{CIFailing: ciFailing, Mergeable: mergeable},
		state.Origin{Commit: commit, Branch: branch, IntegrationBranch: integration},
	)
	if err != nil {
		return nil, err
	}
	s.appendEvent(ctx, func() (journal.Event, error) {
		return journal.NewRunStarted(st.RunID, journal.RunStartedMeta{
			StartingBranch:    branch,
			StartingCommit:    commit,
			IntegrationBranch: integration,
			Mergeable:         mergeable,
			CIFailing:         ciFailing,
		})
	})

	return s.run(ctx, st, mergeable)
}

// Continue resumes an interrupted run at its current candidate, inclusive.
func (s *Service) Continue(ctx context.Context) (*orchestrator.Summary, error) {
	st, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	current, ok := st.Current()
	if !ok {
		b := ferrors.StateError("nothing to continue: no candidate is in progress")
		if st.Finished() {
			b = b.WithHint("the run already finished; use `depmerge status` to review it or `depmerge abort` to discard it")
		} else {
			b = b.WithHint("use `depmerge status` to inspect the run or `depmerge abort` to discard it")
		}
		return nil, b.Build()
	}
	idx, ok := st.ResumeIndex()
	if !ok {
		return nil, ferrors.StateError("current candidate is not in the mergeable list").
			WithContext("candidate", current).
			WithHint("the state file was edited; run `depmerge abort` to discard it").
			Build()
	}

	log := s.logger.With(logfields.RunID(st.RunID))
	if skipped := st.Unresolved(idx); len(skipped) > 0 {
		log.Warn("Earlier candidates have no recorded outcome and will not be retried",
			slog.Any("candidates", skipped))
	}

	inProgress, err := s.vcs.MergeInProgress(ctx)
	if err != nil {
		return nil, err
	}
	if inProgress {
		log.Warn("Aborting merge left over from the interrupted attempt", logfields.Candidate(current))
		if err := s.vcs.AbortMerge(ctx); err != nil {
			return nil, err
		}
	}

	log.Info("Resuming run", logfields.Candidate(current), slog.Int("remaining", len(st.Candidates.Mergeable)-idx))
	s.appendEvent(ctx, func() (journal.Event, error) { return journal.NewRunResumed(st.RunID, current) })
	return s.run(ctx, st, st.Candidates.Mergeable[idx:])
}

func (s *Service) run(ctx context.Context, st *state.WorkflowState, candidates []string) (*orchestrator.Summary, error) {
	sum, err := s.orchestrator().Run(ctx, candidates)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.recorder.IncRunOutcome(metrics.RunCanceled)
		} else {
			s.recorder.IncRunOutcome(metrics.RunFailed)
		}
		return nil, err
	}
	s.recorder.IncRunOutcome(metrics.RunCompleted)

	s.appendEvent(ctx, func() (journal.Event, error) {
		return journal.NewRunFinished(sum.RunID, journal.RunFinishedMeta{Succeeded: sum.Succeeded, Failed: sum.Failed})
	})
	if err := s.publisher.PublishRunCompleted(ctx, notify.RunCompleted{
		RunID:             sum.RunID,
		Repository:        s.repository,
		IntegrationBranch: st.IntegrationBranch,
		Succeeded:         sum.Succeeded,
		Failed:            sum.Failed,
		CIFailing:         sum.CIFailing,
		FinishedAt:        s.now().UTC(),
	}); err != nil {
		s.logger.Warn("Failed to publish run notification", logfields.Error(err))
	}
	return sum, nil
}

// Status returns the persisted state without changing anything.
func (s *Service) Status() (*state.WorkflowState, error) {
	return s.store.Load()
}

// Abort unwinds the run: the starting branch is restored at the starting commit, the
// integration branch is deleted and the state file removed.
func (s *Service) Abort(ctx context.Context) error {
	st, err := s.store.Load()
	if err != nil {
		return err
	}
	log := s.logger.With(logfields.RunID(st.RunID))

	inProgress, err := s.vcs.MergeInProgress(ctx)
	if err != nil {
		return err
	}
	if inProgress {
		log.Info("Aborting in-progress merge")
		if err := s.vcs.AbortMerge(ctx); err != nil {
			return err
		}
	}
	if err := s.vcs.DiscardChanges(ctx); err != nil {
		return err
	}
	if err := s.vcs.Switch(ctx, st.StartingBranch); err != nil {
		return err
	}
	if st.IntegrationBranch != "" && st.IntegrationBranch != st.StartingBranch {
		exists, err := s.vcs.BranchExists(ctx, st.IntegrationBranch)
		if err != nil {
			return err
		}
		if exists {
			if err := s.vcs.DeleteBranch(ctx, st.IntegrationBranch); err != nil {
				return err
			}
		}
	}
	if err := s.vcs.ResetHard(ctx, st.StartingCommit); err != nil {
		return err
	}
	if err := s.store.Destroy(); err != nil {
		return err
	}

	s.appendEvent(ctx, func() (journal.Event, error) { return journal.NewRunAborted(st.RunID) })
	log.Info("Run aborted",
		logfields.Branch(st.StartingBranch),
		logfields.Commit(st.StartingCommit))
	return nil
}

// appendEvent journals best-effort; a journal failure never fails a control operation.
func (s *Service) appendEvent(ctx context.Context, build func() (journal.Event, error)) {
	ev, err := build()
	if err == nil {
		err = s.journal.Append(ctx, ev)
	}
	if err != nil {
		s.logger.Warn("Failed to write journal event", logfields.Error(err))
	}
}
