// Package manifest merges the dependency tables of two revisions of a TOML manifest.
//
// The merged output is the local revision with only dependency values rewritten and
// remote-only dependencies appended, so comments, ordering and every other section
// survive byte-for-byte. Decoding and validation go through go-toml; a small span
// locator records where each dependency's value sits in the source text.
package manifest
