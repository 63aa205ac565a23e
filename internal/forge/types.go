// Package forge lists candidate change requests from the hosting service and splits
// them into those that can be merged and those whose CI is failing.
package forge

import (
	"context"
	"strings"
)

// CheckState is a normalized CI check state.
type CheckState string

const (
	CheckSuccess CheckState = "success"
	CheckFailure CheckState = "failure"
	CheckPending CheckState = "pending"
	CheckNeutral CheckState = "neutral"
)

// Check is one CI check or commit status attached to a change request.
type Check struct {
	Name  string
	State CheckState
}

// ChangeRequest is an open pull request.
type ChangeRequest struct {
	Number  int
	Author  string
	Branch  string
	HeadSHA string
	Checks  []Check
}

// Failing reports whether any check failed.
func (cr ChangeRequest) Failing() bool {
	for _, c := range cr.Checks {
		if c.State == CheckFailure {
			return true
		}
	}
	return false
}

// Source lists open change requests.
type Source interface {
	Name() string
	ListChangeRequests(ctx context.Context) ([]ChangeRequest, error)
}

// NormalizeState maps the conclusions and states reported by GitHub's REST and GraphQL
// APIs onto CheckState. Unknown values count as pending.
func NormalizeState(raw string) CheckState {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SUCCESS", "SKIPPED":
		return CheckSuccess
	case "FAILURE", "TIMED_OUT", "ERROR", "STARTUP_FAILURE", "ACTION_REQUIRED":
		return CheckFailure
	case "NEUTRAL", "CANCELLED", "STALE":
		return CheckNeutral
	default:
		return CheckPending
	}
}
