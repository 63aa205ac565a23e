package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// CLIErrorAdapter handles error presentation and exit code determination for the CLI.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		out:     os.Stderr,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if classified, ok := AsClassified(err); ok {
		return exitCodeFromCategory(classified.Category())
	}
	return 1
}

func exitCodeFromCategory(category ErrorCategory) int {
	switch category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryParse:
		return 3
	case CategoryState:
		return 4
	case CategoryConflict:
		return 6
	case CategoryConfig:
		return 7
	case CategoryGit:
		return 8
	case CategoryForge:
		return 9
	case CategoryInternal:
		return 10
	case CategoryBuild:
		return 11
	case CategoryFileSystem, CategoryJournal:
		return 12
	default:
		return 1
	}
}

// FormatError formats an error for display: the cause, the failing operation and any hint.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	classified, ok := AsClassified(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	if a.verbose {
		return "Error: " + err.Error()
	}

	var b strings.Builder
	b.WriteString("Error: ")
	if op := classified.Operation(); op != "" {
		b.WriteString(op)
		b.WriteString(": ")
	}
	b.WriteString(classified.Message())
	if cause := classified.Cause(); cause != nil {
		b.WriteString(": ")
		b.WriteString(cause.Error())
	}
	if hint := classified.Hint(); hint != "" {
		b.WriteString("\nHint: ")
		b.WriteString(hint)
	}
	return b.String()
}

// HandleError prints the error and exits with the mapped code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	if a.shouldLog(err) {
		a.logError(err)
	}
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	os.Exit(a.ExitCodeFor(err))
}

func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}
	if classified, ok := AsClassified(err); ok {
		return classified.Severity() == SeverityFatal
	}
	return true
}

func (a *CLIErrorAdapter) logError(err error) {
	if classified, ok := AsClassified(err); ok {
		attrs := []slog.Attr{
			slog.String("category", string(classified.Category())),
		}
		if op := classified.Operation(); op != "" {
			attrs = append(attrs, slog.String("op", op))
		}
		if classified.CanRetry() {
			attrs = append(attrs, slog.Bool("retryable", true))
		}
		a.logger.LogAttrs(context.Background(), slogLevelFromSeverity(classified.Severity()), classified.Message(), attrs...)
		return
	}
	a.logger.Error("Unclassified error", "error", err)
}

func slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
