package git

import (
	"fmt"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
)

// DefaultMergeToolName is the mergetool entry depmerge registers and invokes.
const DefaultMergeToolName = "depmerge"

// MergeToolCommand is the mergetool command line for binary.
func MergeToolCommand(binary string) string {
	return fmt.Sprintf(`%s auto-merge "$LOCAL" "$REMOTE" "$MERGED"`, binary)
}

// InstallMergeTool registers `mergetool.<name>.cmd` in the repository config with
// trustExitCode so a failed resolution leaves the path conflicted.
func (c *Client) InstallMergeTool(name, command string) error {
	if name == "" {
		name = c.mergeTool
	}
	cfg, err := c.repo.Config()
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryGit, "read repository config").Build()
	}
	cfg.Raw.Section("mergetool").Subsection(name).
		SetOption("cmd", command).
		SetOption("trustExitCode", "true")
	if err := c.repo.SetConfig(cfg); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryGit, "write repository config").Build()
	}
	return nil
}

// MergeToolConfigured returns the command registered for name, if any.
func (c *Client) MergeToolConfigured(name string) (string, bool, error) {
	cfg, err := c.repo.Config()
	if err != nil {
		return "", false, ferrors.WrapError(err, ferrors.CategoryGit, "read repository config").Build()
	}
	sec := cfg.Raw.Section("mergetool")
	if !sec.HasSubsection(name) {
		return "", false, nil
	}
	cmd := sec.Subsection(name).Option("cmd")
	return cmd, cmd != "", nil
}
