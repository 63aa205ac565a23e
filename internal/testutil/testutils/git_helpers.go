package helpers

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// SetupTestGitRepo initializes a temporary git repository for testing.
// Returns the repository, its worktree, and the absolute path to the temporary directory.
func SetupTestGitRepo(t *testing.T) (*git.Repository, *git.Worktree, string) {
	t.Helper()

	tempDir := t.TempDir()

	repo, err := git.PlainInitWithOptions(tempDir, &git.PlainInitOptions{
		InitOptions: git.InitOptions{DefaultBranch: plumbing.NewBranchReferenceName("main")},
	})
	if err != nil {
		t.Fatalf("failed to initialize git repo: %v", err)
	}

	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}

	return repo, w, tempDir
}

// CommitFile writes content to rel inside the worktree and commits it. Returns the commit hash.
func CommitFile(t *testing.T, w *git.Worktree, root, rel, content string) string {
	t.Helper()

	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", rel, err)
	}
	if _, err := w.Add(rel); err != nil {
		t.Fatalf("failed to stage %s: %v", rel, err)
	}
	hash, err := w.Commit("update "+rel, &git.CommitOptions{
		Author: &object.Signature{Name: "Test", Email: "test@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("failed to commit: %v", err)
	}
	return hash.String()
}

// AddRemote registers a remote with a single URL.
func AddRemote(t *testing.T, repo *git.Repository, name, url string) {
	t.Helper()

	if _, err := repo.CreateRemote(&config.RemoteConfig{Name: name, URLs: []string{url}}); err != nil {
		t.Fatalf("failed to add remote: %v", err)
	}
}
