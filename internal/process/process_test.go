package process

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitErrorFormatting(t *testing.T) {
	err := &ExitError{Command: "git merge", ExitCode: 1, Stderr: "CONFLICT"}
	assert.Equal(t, "git merge: exit status 1: CONFLICT", err.Error())
	assert.Equal(t, 1, ExitCode(err))
	assert.Equal(t, -1, ExitCode(errors.New("not started")))
}

func TestFakeRunner(t *testing.T) {
	f := &FakeRunner{}
	f.Stdout("git rev-parse", "abc\n")
	f.Fail("git merge", 1, "conflict")
	f.Stdout("git merge --abort", "")

	res, err := f.Run(context.Background(), Command{Name: "git", Args: []string{"rev-parse", "HEAD"}})
	require.NoError(t, err)
	assert.Equal(t, "abc\n", res.Stdout)

	_, err = f.Run(context.Background(), Command{Name: "git", Args: []string{"merge", "origin/x"}})
	assert.Equal(t, 1, ExitCode(err))

	_, err = f.Run(context.Background(), Command{Name: "git", Args: []string{"merge", "--abort"}})
	require.NoError(t, err)

	_, err = f.Run(context.Background(), Command{Name: "cargo", Args: []string{"build"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"git rev-parse HEAD", "git merge origin/x", "git merge --abort", "cargo build"}, f.Lines())
}
