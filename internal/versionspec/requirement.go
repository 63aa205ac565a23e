package versionspec

import (
	"strconv"
	"strings"

	"github.com/Masterminds/semver/v3"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
)

// Op is a comparator operator.
type Op string

const (
	OpExact        Op = "="
	OpGreater      Op = ">"
	OpGreaterEq    Op = ">="
	OpLess         Op = "<"
	OpLessEq       Op = "<="
	OpTilde        Op = "~"
	OpCaret        Op = "^"
	OpWildcard     Op = "*"
	opTildeGreater Op = "~>"
)

// operator prefixes, longest first so ">=" wins over ">".
var opPrefixes = []Op{OpGreaterEq, OpLessEq, opTildeGreater, OpGreater, OpLess, OpExact, OpTilde, OpCaret}

// Comparator is one clause of a requirement. Minor and Patch are nil when omitted or wildcarded.
type Comparator struct {
	Op    Op
	Major uint64
	Minor *uint64
	Patch *uint64
	Pre   string
}

func (c Comparator) String() string {
	var b strings.Builder
	if c.Op != OpWildcard {
		b.WriteString(string(c.Op))
	}
	b.WriteString(strconv.FormatUint(c.Major, 10))
	switch {
	case c.Minor != nil:
		b.WriteString("." + strconv.FormatUint(*c.Minor, 10))
	case c.Op == OpWildcard:
		b.WriteString(".*")
	}
	switch {
	case c.Patch != nil:
		b.WriteString("." + strconv.FormatUint(*c.Patch, 10))
	case c.Op == OpWildcard && c.Minor != nil:
		b.WriteString(".*")
	}
	if c.Pre != "" {
		b.WriteString("-" + c.Pre)
	}
	return b.String()
}

// Requirement is a comma-separated list of comparators that must all match.
// An empty list ("*") matches every release.
type Requirement struct {
	Comparators []Comparator
	constraints *semver.Constraints
}

// ParseRequirement parses a Cargo-style requirement such as "^1.2", ">=1, <2" or "*".
func ParseRequirement(text string) (*Requirement, error) {
	text = strings.TrimSpace(text)
	if text == "*" {
		c, err := semver.NewConstraint("*")
		if err != nil {
			return nil, invalid(text, err)
		}
		return &Requirement{constraints: c}, nil
	}

	parts := strings.Split(text, ",")
	req := &Requirement{Comparators: make([]Comparator, 0, len(parts))}
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		cmp, err := parseComparator(strings.TrimSpace(part))
		if err != nil {
			return nil, invalid(text, err)
		}
		req.Comparators = append(req.Comparators, cmp)
		normalized = append(normalized, cmp.constraintText())
	}

	c, err := semver.NewConstraint(strings.Join(normalized, ", "))
	if err != nil {
		return nil, invalid(text, err)
	}
	req.constraints = c
	return req, nil
}

func invalid(text string, cause error) error {
	return ferrors.WrapError(cause, ferrors.CategoryParse, "invalid version requirement").
		Fatal().
		WithContext("requirement", text).
		Build()
}

func parseComparator(text string) (Comparator, error) {
	if text == "" {
		return Comparator{}, ferrors.ParseError("empty comparator").Build()
	}
	op := OpCaret
	explicit := false
	for _, prefix := range opPrefixes {
		if strings.HasPrefix(text, string(prefix)) {
			op = prefix
			explicit = true
			text = strings.TrimSpace(text[len(prefix):])
			break
		}
	}
	if op == opTildeGreater {
		op = OpTilde
	}

	core, pre, _ := strings.Cut(text, "-")
	core, _, _ = strings.Cut(core, "+")
	fields := strings.Split(core, ".")
	if len(fields) > 3 {
		return Comparator{}, ferrors.ParseError("too many version components").WithContext("comparator", text).Build()
	}

	var cmp Comparator
	cmp.Pre = pre
	values := make([]*uint64, 3)
	wildcard := false
	for i, f := range fields {
		if isWildcard(f) {
			if i == 0 {
				return Comparator{}, ferrors.ParseError("wildcard major version must stand alone").WithContext("comparator", text).Build()
			}
			wildcard = true
			continue
		}
		if wildcard {
			return Comparator{}, ferrors.ParseError("version component after wildcard").WithContext("comparator", text).Build()
		}
		n, err := parseNumber(f)
		if err != nil {
			return Comparator{}, ferrors.WrapError(err, ferrors.CategoryParse, "invalid version component").WithContext("comparator", text).Build()
		}
		values[i] = &n
	}
	if wildcard {
		if explicit && op != OpExact {
			return Comparator{}, ferrors.ParseError("wildcard cannot follow an operator").WithContext("comparator", text).Build()
		}
		op = OpWildcard
		if pre != "" {
			return Comparator{}, ferrors.ParseError("wildcard cannot carry a pre-release").WithContext("comparator", text).Build()
		}
	}
	if pre != "" && values[2] == nil {
		return Comparator{}, ferrors.ParseError("pre-release requires a full version").WithContext("comparator", text).Build()
	}
	cmp.Op = op
	cmp.Major = *values[0]
	cmp.Minor = values[1]
	cmp.Patch = values[2]
	return cmp, nil
}

func isWildcard(s string) bool {
	return s == "*" || s == "x" || s == "X"
}

func parseNumber(s string) (uint64, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseUint(s, 10, 64)
}

// constraintText renders the comparator in the constraint grammar used for matching.
// Wildcards map to x-ranges so "1.*" becomes "1.x".
func (c Comparator) constraintText() string {
	if c.Op == OpWildcard {
		s := strconv.FormatUint(c.Major, 10)
		if c.Minor != nil {
			return s + "." + strconv.FormatUint(*c.Minor, 10) + ".x"
		}
		return s + ".x"
	}
	return c.String()
}

// Matches reports whether v satisfies every comparator.
func (r *Requirement) Matches(v *semver.Version) bool {
	if r == nil || v == nil || r.constraints == nil {
		return false
	}
	return r.constraints.Check(v)
}

// SingleCaret returns the comparator when the requirement is exactly one caret clause.
func (r *Requirement) SingleCaret() (Comparator, bool) {
	if r == nil || len(r.Comparators) != 1 || r.Comparators[0].Op != OpCaret {
		return Comparator{}, false
	}
	return r.Comparators[0], true
}

func (r *Requirement) String() string {
	if r == nil || len(r.Comparators) == 0 {
		return "*"
	}
	parts := make([]string, len(r.Comparators))
	for i, c := range r.Comparators {
		parts[i] = c.String()
	}
	return strings.Join(parts, ", ")
}
