// Package versionspec models the version requirement declared for a dependency and the
// partial order used to pick a winner between two requirements for the same name.
//
// A Spec is one of three kinds: an exact version, a requirement range, or versionless
// (path and workspace dependencies). Specs are parsed once and never mutated. Compare
// reports false when two specs cannot be ordered, and callers decide how to break the tie.
package versionspec
