package manifest

import (
	"os"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
)

// MergeFiles reads the local and remote revisions, merges them and writes mergedPath.
// It is the entry point used when running as a git merge tool.
func MergeFiles(localPath, remotePath, mergedPath string, opts ...Option) (*Result, error) {
	local, err := readFile(localPath)
	if err != nil {
		return nil, err
	}
	remote, err := readFile(remotePath)
	if err != nil {
		return nil, err
	}
	res, err := MergeWithReport(local, remote, opts...)
	if err != nil {
		return nil, err
	}

	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(mergedPath); statErr == nil {
		mode = info.Mode().Perm()
	}
	// #nosec G306 -- manifests are regular project files
	if err := os.WriteFile(mergedPath, []byte(res.Text), mode); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "write merged manifest").
			WithPath(mergedPath).
			Build()
	}
	return res, nil
}

func readFile(path string) (string, error) {
	// #nosec G304 -- paths come from git mergetool arguments
	data, err := os.ReadFile(path)
	if err != nil {
		return "", ferrors.WrapError(err, ferrors.CategoryFileSystem, "read manifest").
			WithPath(path).
			Build()
	}
	return string(data), nil
}
