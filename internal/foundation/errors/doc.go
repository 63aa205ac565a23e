// Package errors provides the classified error primitives used across depmerge.
//
// Every failure a control operation can surface carries a category that maps onto the
// operator-facing taxonomy: parse failures, external tool failures (git, build, forge),
// state file misuse, and per-candidate unresolved conflicts. The CLI adapter turns the
// category into an exit code and prints the failing operation next to the cause.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryGit, "merge failed").
//		WithOperation("merge").
//		WithContext("branch", branch).
//		Build()
package errors
