package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyCandidate  = "candidate"
	KeyPhase      = "phase"
	KeyOutcome    = "outcome"
	KeyBranch     = "branch"
	KeyCommit     = "commit"
	KeyOperation  = "operation"
	KeyPath       = "path"
	KeyDependency = "dependency"
	KeyTable      = "table"
	KeyAuthor     = "author"
	KeyCount      = "count"
	KeyAttempt    = "attempt"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Candidate(name string) slog.Attr { return slog.String(KeyCandidate, name) }
func Phase(p string) slog.Attr        { return slog.String(KeyPhase, p) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Branch(b string) slog.Attr       { return slog.String(KeyBranch, b) }
func Commit(sha string) slog.Attr     { return slog.String(KeyCommit, sha) }
func Operation(op string) slog.Attr   { return slog.String(KeyOperation, op) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Dependency(n string) slog.Attr   { return slog.String(KeyDependency, n) }
func Table(t string) slog.Attr        { return slog.String(KeyTable, t) }
func Author(a string) slog.Attr       { return slog.String(KeyAuthor, a) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
