package build

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
	"git.home.luguber.info/inful/depmerge/internal/logfields"
	"git.home.luguber.info/inful/depmerge/internal/process"
)

// DefaultCommand is used when no build command is configured.
var DefaultCommand = []string{"cargo", "build"}

// Result describes a successful validation run.
type Result struct {
	Command  string
	Duration time.Duration
}

// Service runs the configured build command in the repository root.
type Service struct {
	dir     string
	command []string
	runner  process.Runner
	stream  io.Writer
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCommand overrides the build argv.
func WithCommand(argv ...string) Option {
	return func(s *Service) {
		if len(argv) > 0 {
			s.command = argv
		}
	}
}

// WithRunner replaces the process runner.
func WithRunner(r process.Runner) Option {
	return func(s *Service) { s.runner = r }
}

// WithOutput streams build output to w as it is produced.
func WithOutput(w io.Writer) Option {
	return func(s *Service) { s.stream = w }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewService returns a validator rooted at dir.
func NewService(dir string, opts ...Option) *Service {
	s := &Service{
		dir:     dir,
		command: DefaultCommand,
		runner:  process.ExecRunner{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Command returns the argv that Validate runs.
func (s *Service) Command() []string { return s.command }

// Validate runs the build. A non-zero exit is a build error naming the command.
func (s *Service) Validate(ctx context.Context) (*Result, error) {
	line := strings.Join(s.command, " ")
	start := time.Now()
	s.logger.Info("Validating merge", logfields.Operation(line))

	res, err := s.runner.Run(ctx, process.Command{
		Name:   s.command[0],
		Args:   s.command[1:],
		Dir:    s.dir,
		Stream: s.stream,
	})
	elapsed := time.Since(start)
	if err != nil {
		b := ferrors.WrapError(err, ferrors.CategoryBuild, "validation failed").
			WithOperation(line).
			WithContext("exit_code", process.ExitCode(err))
		if tail := lastLines(res.Stderr, 20); tail != "" {
			b = b.WithContext("stderr", tail)
		}
		s.logger.Warn("Validation failed", logfields.Operation(line), logfields.DurationMS(float64(elapsed.Milliseconds())), logfields.Error(err))
		return nil, b.Build()
	}
	s.logger.Info("Validation passed", logfields.Operation(line), logfields.DurationMS(float64(elapsed.Milliseconds())))
	return &Result{Command: line, Duration: elapsed}, nil
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
