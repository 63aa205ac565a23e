package versionspec

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
)

// Kind discriminates the three shapes of a Spec.
type Kind int

const (
	KindVersionless Kind = iota
	KindExact
	KindRange
)

func (k Kind) String() string {
	switch k {
	case KindExact:
		return "exact"
	case KindRange:
		return "range"
	default:
		return "versionless"
	}
}

// Spec is an immutable version requirement.
type Spec struct {
	kind  Kind
	raw   string
	exact *semver.Version
	req   *Requirement
}

// Versionless returns the spec of a dependency that declares no version.
func Versionless() Spec {
	return Spec{kind: KindVersionless}
}

// Parse classifies text as an exact version when it is a strict semantic version,
// otherwise as a requirement. Comparators without an operator default to caret.
func Parse(text string) (Spec, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Spec{}, ferrors.ParseError("empty version requirement").Build()
	}
	if v, err := semver.StrictNewVersion(trimmed); err == nil {
		return Spec{kind: KindExact, raw: text, exact: v}, nil
	}
	req, err := ParseRequirement(trimmed)
	if err != nil {
		return Spec{}, err
	}
	return Spec{kind: KindRange, raw: text, req: req}, nil
}

// MustParse is Parse for literals known to be valid. It panics on error.
func MustParse(text string) Spec {
	s, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return s
}

// Kind reports which variant s holds.
func (s Spec) Kind() Kind { return s.kind }

// Raw returns the text the spec was parsed from.
func (s Spec) Raw() string { return s.raw }

// Version returns the exact version, or nil for other kinds.
func (s Spec) Version() *semver.Version { return s.exact }

// Requirement returns the range, or nil for other kinds.
func (s Spec) Requirement() *Requirement { return s.req }

// IsVersionless reports whether no version was declared.
func (s Spec) IsVersionless() bool { return s.kind == KindVersionless }

func (s Spec) String() string {
	switch s.kind {
	case KindExact:
		return s.exact.String()
	case KindRange:
		return s.req.String()
	default:
		return "<versionless>"
	}
}

// Greater reports whether s is strictly greater than other.
func (s Spec) Greater(other Spec) bool {
	ord, ok := Compare(s, other)
	return ok && ord == Greater
}
