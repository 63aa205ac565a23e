package git

import (
	"io/fs"
	"path/filepath"
	"slices"
	"sort"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
)

// LockPatterns selects lock artifacts by base name.
type LockPatterns struct {
	// Names are filepath.Match patterns applied to base names.
	Names []string
	// SkipDirs are directory base names that are never descended into.
	SkipDirs []string
}

// DefaultLockPatterns matches Cargo lock files and skips build output.
func DefaultLockPatterns() LockPatterns {
	return LockPatterns{
		Names:    []string{"Cargo.lock"},
		SkipDirs: []string{"target", "node_modules"},
	}
}

// Match reports whether the base name of path is a lock artifact.
func (p LockPatterns) Match(path string) bool {
	base := filepath.Base(path)
	for _, pattern := range p.Names {
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// LockArtifacts walks the work tree and returns lock artifacts as slash-separated
// paths relative to the root, sorted.
func (c *Client) LockArtifacts() ([]string, error) {
	return findLockArtifacts(c.root, c.locks)
}

func findLockArtifacts(root string, p LockPatterns) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && (d.Name() == ".git" || slices.Contains(p.SkipDirs, d.Name())) {
				return filepath.SkipDir
			}
			return nil
		}
		if !p.Match(path) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		found = append(found, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "scan for lock artifacts").WithPath(root).Build()
	}
	sort.Strings(found)
	return found, nil
}
