package process

import (
	"context"
	"strings"
	"sync"
)

// Handler produces the outcome of a faked command.
type Handler func(cmd Command) (Result, error)

// FakeRunner records invocations and answers them from registered handlers.
// Commands without a handler succeed with empty output.
type FakeRunner struct {
	mu       sync.Mutex
	handlers []fakeHandler
	Calls    []Command
}

type fakeHandler struct {
	prefix string
	fn     Handler
}

// On registers fn for commands whose "name args..." line starts with prefix.
// Later registrations take precedence.
func (f *FakeRunner) On(prefix string, fn Handler) *FakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers = append(f.handlers, fakeHandler{prefix: prefix, fn: fn})
	return f
}

// Fail makes commands matching prefix exit with code and stderr.
func (f *FakeRunner) Fail(prefix string, code int, stderr string) *FakeRunner {
	return f.On(prefix, func(cmd Command) (Result, error) {
		return Result{Stderr: stderr}, &ExitError{Command: cmd.String(), ExitCode: code, Stderr: stderr}
	})
}

// Stdout makes commands matching prefix succeed with out.
func (f *FakeRunner) Stdout(prefix, out string) *FakeRunner {
	return f.On(prefix, func(Command) (Result, error) { return Result{Stdout: out}, nil })
}

// Run implements Runner.
func (f *FakeRunner) Run(_ context.Context, cmd Command) (Result, error) {
	f.mu.Lock()
	f.Calls = append(f.Calls, cmd)
	var fn Handler
	line := cmd.String()
	for i := len(f.handlers) - 1; i >= 0; i-- {
		if strings.HasPrefix(line, f.handlers[i].prefix) {
			fn = f.handlers[i].fn
			break
		}
	}
	f.mu.Unlock()
	if fn == nil {
		return Result{}, nil
	}
	return fn(cmd)
}

// Lines returns every recorded invocation as "name args...".
func (f *FakeRunner) Lines() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Calls))
	for i, c := range f.Calls {
		out[i] = c.String()
	}
	return out
}
