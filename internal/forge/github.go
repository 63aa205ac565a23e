package forge

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/google/go-github/v58/github"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/depmerge/internal/logfields"
	"git.home.luguber.info/inful/depmerge/internal/retry"
)

const pageSize = 100

// GitHubSource lists open pull requests through the GitHub REST API.
type GitHubSource struct {
	client *github.Client
	owner  string
	repo   string
	policy retry.Policy
	logger *slog.Logger
}

// GitHubOption configures a GitHubSource.
type GitHubOption func(*GitHubSource) error

// WithToken authenticates requests.
func WithToken(token string) GitHubOption {
	return func(s *GitHubSource) error {
		if token != "" {
			s.client = s.client.WithAuthToken(token)
		}
		return nil
	}
}

// WithAPIURL targets a GitHub Enterprise Server instance.
func WithAPIURL(apiURL string) GitHubOption {
	return func(s *GitHubSource) error {
		if apiURL == "" {
			return nil
		}
		c, err := s.client.WithEnterpriseURLs(apiURL, apiURL)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryConfig, "invalid GitHub API URL").WithContext("url", apiURL).Build()
		}
		s.client = c
		return nil
	}
}

// WithClient replaces the underlying go-github client.
func WithClient(c *github.Client) GitHubOption {
	return func(s *GitHubSource) error {
		s.client = c
		return nil
	}
}

// WithRetryPolicy sets the backoff applied to transient API failures.
func WithRetryPolicy(p retry.Policy) GitHubOption {
	return func(s *GitHubSource) error {
		s.policy = p
		return nil
	}
}

// WithGitHubLogger sets the logger.
func WithGitHubLogger(l *slog.Logger) GitHubOption {
	return func(s *GitHubSource) error {
		if l != nil {
			s.logger = l
		}
		return nil
	}
}

// NewGitHubSource returns a source for owner/repo.
func NewGitHubSource(owner, repo string, opts ...GitHubOption) (*GitHubSource, error) {
	s := &GitHubSource{
		client: github.NewClient(nil),
		owner:  owner,
		repo:   repo,
		policy: retry.DefaultPolicy(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Name implements Source.
func (s *GitHubSource) Name() string { return "github" }

// ListChangeRequests returns every open pull request with its check runs and commit statuses.
func (s *GitHubSource) ListChangeRequests(ctx context.Context) ([]ChangeRequest, error) {
	prs, err := s.listPulls(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]ChangeRequest, 0, len(prs))
	for _, pr := range prs {
		cr := ChangeRequest{
			Number:  pr.GetNumber(),
			Author:  pr.GetUser().GetLogin(),
			Branch:  pr.GetHead().GetRef(),
			HeadSHA: pr.GetHead().GetSHA(),
		}
		if cr.Checks, err = s.checks(ctx, cr.HeadSHA); err != nil {
			return nil, err
		}
		s.logger.Debug("Listed pull request",
			logfields.Candidate(cr.Branch),
			logfields.Author(cr.Author),
			logfields.Count(len(cr.Checks)))
		out = append(out, cr)
	}
	return out, nil
}

func (s *GitHubSource) listPulls(ctx context.Context) ([]*github.PullRequest, error) {
	var all []*github.PullRequest
	opts := &github.PullRequestListOptions{
		State:       "open",
		ListOptions: github.ListOptions{PerPage: pageSize},
	}
	for {
		var page []*github.PullRequest
		var resp *github.Response
		err := s.policy.Do(ctx, "list pull requests", isTransient, func(ctx context.Context) error {
			var err error
			page, resp, err = s.client.PullRequests.List(ctx, s.owner, s.repo, opts)
			return err
		})
		if err != nil {
			return nil, s.wrap(err, "list pull requests")
		}
		all = append(all, page...)
		if resp == nil || resp.NextPage == 0 {
			return all, nil
		}
		opts.Page = resp.NextPage
	}
}

func (s *GitHubSource) checks(ctx context.Context, sha string) ([]Check, error) {
	if sha == "" {
		return nil, nil
	}
	var checks []Check

	runOpts := &github.ListCheckRunsOptions{ListOptions: github.ListOptions{PerPage: pageSize}}
	for {
		var res *github.ListCheckRunsResults
		var resp *github.Response
		err := s.policy.Do(ctx, "list check runs", isTransient, func(ctx context.Context) error {
			var err error
			res, resp, err = s.client.Checks.ListCheckRunsForRef(ctx, s.owner, s.repo, sha, runOpts)
			return err
		})
		if err != nil {
			return nil, s.wrap(err, "list check runs")
		}
		for _, run := range res.CheckRuns {
			state := CheckPending
			if run.GetStatus() == "completed" {
				state = NormalizeState(run.GetConclusion())
			}
			checks = append(checks, Check{Name: run.GetName(), State: state})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		runOpts.Page = resp.NextPage
	}

	var combined *github.CombinedStatus
	err := s.policy.Do(ctx, "get combined status", isTransient, func(ctx context.Context) error {
		var err error
		combined, _, err = s.client.Repositories.GetCombinedStatus(ctx, s.owner, s.repo, sha, &github.ListOptions{PerPage: pageSize})
		return err
	})
	if err != nil {
		return nil, s.wrap(err, "get combined status")
	}
	for _, st := range combined.Statuses {
		checks = append(checks, Check{Name: st.GetContext(), State: NormalizeState(st.GetState())})
	}
	return checks, nil
}

func (s *GitHubSource) wrap(err error, op string) error {
	b := ferrors.WrapError(err, ferrors.CategoryForge, "GitHub API request failed").
		Retryable().
		WithOperation(op).
		WithContext("repository", s.owner+"/"+s.repo)
	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		b = b.RateLimit().WithHint("wait for the rate limit to reset or configure forge.token")
	}
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil && er.Response.StatusCode == http.StatusUnauthorized {
		b = b.UserAction().WithHint("check GITHUB_TOKEN or forge.token")
	}
	return b.Build()
}

// isTransient reports rate limiting, server errors and network failures.
func isTransient(err error) bool {
	var rle *github.RateLimitError
	var arle *github.AbuseRateLimitError
	if errors.As(err, &rle) || errors.As(err, &arle) {
		return true
	}
	var er *github.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return er.Response.StatusCode >= http.StatusInternalServerError
	}
	var ne net.Error
	return errors.As(err, &ne)
}
