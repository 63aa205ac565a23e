// Package process runs external tools with captured or pass-through output.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Command describes one invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Env entries are appended to the current environment.
	Env []string
	// Interactive attaches the terminal to the child; output is not captured.
	Interactive bool
	// Stream, when set, receives combined output as it is produced in addition to capture.
	Stream io.Writer
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Result is the captured output of a finished command.
type Result struct {
	Stdout string
	Stderr string
}

// Runner executes commands. Implementations return *ExitError for non-zero exits.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExitError reports a command that ran and failed.
type ExitError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: exit status %d: %s", e.Command, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s: exit status %d", e.Command, e.ExitCode)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run implements Runner.
func (ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	// #nosec G204 -- command names come from configuration and fixed call sites
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stdout, stderr bytes.Buffer
	if c.Interactive {
		cmd.Stdin = os.Stdin
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	} else {
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if c.Stream != nil {
			cmd.Stdout = io.MultiWriter(&stdout, c.Stream)
			cmd.Stderr = io.MultiWriter(&stderr, c.Stream)
		}
	}

	err := cmd.Run()
	res := Result{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return res, nil
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return res, &ExitError{
			Command:  c.String(),
			ExitCode: ee.ExitCode(),
			Stderr:   strings.TrimSpace(res.Stderr),
			Err:      err,
		}
	}
	return res, err
}

// ExitCode extracts the exit status from err, or -1 if the command did not run to completion.
func ExitCode(err error) int {
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode
	}
	return -1
}
