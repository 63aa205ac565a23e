// Package git is the version-control collaborator.
//
// Repository reads (HEAD, branch, remotes, config) use go-git. Operations that must
// leave the working tree exactly as the git CLI would (merge, mergetool, reset,
// restore) shell out to git through a process.Runner so they can be faked in tests.
package git
