// Package normalization maps free-form configuration strings onto typed enum values.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer resolves case- and whitespace-insensitive spellings of an enum.
type Normalizer[T comparable] struct {
	name   string
	values map[string]T
	keys   []string
}

// New returns a normalizer for the named enum. Keys of values are cleaned with Clean.
func New[T comparable](name string, values map[string]T) *Normalizer[T] {
	n := &Normalizer[T]{name: name, values: make(map[string]T, len(values))}
	for k, v := range values {
		k = Clean(k)
		n.values[k] = v
		n.keys = append(n.keys, k)
	}
	sort.Strings(n.keys)
	return n
}

// Normalize returns the value raw names and whether it was recognized.
func (n *Normalizer[T]) Normalize(raw string) (T, bool) {
	v, ok := n.values[Clean(raw)]
	return v, ok
}

// Parse is Normalize with an error listing the accepted spellings.
func (n *Normalizer[T]) Parse(raw string) (T, error) {
	if v, ok := n.Normalize(raw); ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("invalid %s %q (want %s)", n.name, raw, strings.Join(n.keys, " or "))
}

// Keys returns the accepted spellings, sorted.
func (n *Normalizer[T]) Keys() []string {
	return append([]string(nil), n.keys...)
}

// Clean lowercases s and trims surrounding whitespace.
func Clean(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
