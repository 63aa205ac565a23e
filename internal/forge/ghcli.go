package forge

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/depmerge/internal/logfields"
	"git.home.luguber.info/inful/depmerge/internal/process"
)

const ghFields = "number,author,headRefName,headRefOid,statusCheckRollup"

// GHCLISource lists pull requests by shelling out to the GitHub CLI, reusing its login.
type GHCLISource struct {
	runner process.Runner
	dir    string
	binary string
	limit  int
	logger *slog.Logger
}

// NewGHCLISource returns a source that runs gh inside dir.
func NewGHCLISource(dir string, runner process.Runner, logger *slog.Logger) *GHCLISource {
	if runner == nil {
		runner = process.ExecRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GHCLISource{runner: runner, dir: dir, binary: "gh", limit: 500, logger: logger}
}

// Name implements Source.
func (s *GHCLISource) Name() string { return "gh" }

type ghPull struct {
	Number int `json:"number"`
	Author struct {
		Login string `json:"login"`
		IsBot bool   `json:"is_bot"`
	} `json:"author"`
	HeadRefName       string        `json:"headRefName"`
	HeadRefOid        string        `json:"headRefOid"`
	StatusCheckRollup []ghRollEntry `json:"statusCheckRollup"`
}

// ghRollEntry is either a CheckRun or a StatusContext.
type ghRollEntry struct {
	Typename   string `json:"__typename"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Conclusion string `json:"conclusion"`
	Context    string `json:"context"`
	State      string `json:"state"`
}

func (e ghRollEntry) check() Check {
	if e.Typename == "StatusContext" {
		return Check{Name: e.Context, State: NormalizeState(e.State)}
	}
	if !strings.EqualFold(e.Status, "COMPLETED") {
		return Check{Name: e.Name, State: CheckPending}
	}
	return Check{Name: e.Name, State: NormalizeState(e.Conclusion)}
}

// ListChangeRequests implements Source.
func (s *GHCLISource) ListChangeRequests(ctx context.Context) ([]ChangeRequest, error) {
	cmd := process.Command{
		Name: s.binary,
		Args: []string{"pr", "list", "--state", "open", "--limit", strconv.Itoa(s.limit), "--json", ghFields},
		Dir:  s.dir,
	}
	res, err := s.runner.Run(ctx, cmd)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryForge, "gh pr list failed").
			WithOperation("list pull requests").
			WithHint("install the GitHub CLI and run 'gh auth login', or set forge.source to github").
			Build()
	}
	return parseGHPulls(res.Stdout, s.logger)
}

func parseGHPulls(out string, logger *slog.Logger) ([]ChangeRequest, error) {
	var pulls []ghPull
	if err := json.Unmarshal([]byte(out), &pulls); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryForge, "unexpected gh output").
			WithOperation("list pull requests").
			Build()
	}
	crs := make([]ChangeRequest, 0, len(pulls))
	for _, p := range pulls {
		cr := ChangeRequest{
			Number:  p.Number,
			Author:  normalizeLogin(p.Author.Login, p.Author.IsBot),
			Branch:  p.HeadRefName,
			HeadSHA: p.HeadRefOid,
		}
		for _, e := range p.StatusCheckRollup {
			cr.Checks = append(cr.Checks, e.check())
		}
		logger.Debug("Listed pull request", logfields.Candidate(cr.Branch), logfields.Author(cr.Author))
		crs = append(crs, cr)
	}
	return crs, nil
}

// normalizeLogin maps gh's "app/dependabot" bot form onto the REST login "dependabot[bot]".
func normalizeLogin(login string, isBot bool) string {
	if name, ok := strings.CutPrefix(login, "app/"); ok {
		return name + "[bot]"
	}
	if isBot && !strings.HasSuffix(login, "[bot]") {
		return login + "[bot]"
	}
	return login
}
