package versionspec

// Ordering is the result of a successful comparison.
type Ordering int

const (
	Less    Ordering = -1
	Equal   Ordering = 0
	Greater Ordering = 1
)

func (o Ordering) String() string {
	switch o {
	case Less:
		return "less"
	case Greater:
		return "greater"
	default:
		return "equal"
	}
}

// Reverse flips Less and Greater.
func (o Ordering) Reverse() Ordering { return -o }

// Compare orders two specs. The boolean is false when they are incomparable:
//   - a versionless spec on either side;
//   - two ranges unless both are a single caret comparator;
//   - two single carets with equal major, minor and patch.
//
// An exact version is greater than a range that matches it and less than one that does not.
func Compare(a, b Spec) (Ordering, bool) {
	switch {
	case a.kind == KindVersionless || b.kind == KindVersionless:
		return 0, false
	case a.kind == KindExact && b.kind == KindExact:
		return Ordering(a.exact.Compare(b.exact)), true
	case a.kind == KindExact && b.kind == KindRange:
		return exactAgainstRange(a, b), true
	case a.kind == KindRange && b.kind == KindExact:
		return exactAgainstRange(b, a).Reverse(), true
	default:
		return compareCarets(a.req, b.req)
	}
}

func exactAgainstRange(exact, rng Spec) Ordering {
	if rng.req.Matches(exact.exact) {
		return Greater
	}
	return Less
}

func compareCarets(a, b *Requirement) (Ordering, bool) {
	ca, ok := a.SingleCaret()
	if !ok {
		return 0, false
	}
	cb, ok := b.SingleCaret()
	if !ok {
		return 0, false
	}
	if ord := cmpUint(ca.Major, cb.Major); ord != Equal {
		return ord, true
	}
	if ord := cmpUint(orZero(ca.Minor), orZero(cb.Minor)); ord != Equal {
		return ord, true
	}
	if ord := cmpUint(orZero(ca.Patch), orZero(cb.Patch)); ord != Equal {
		return ord, true
	}
	return 0, false
}

func orZero(p *uint64) uint64 {
	if p == nil {
		return 0
	}
	return *p
}

func cmpUint(a, b uint64) Ordering {
	switch {
	case a < b:
		return Less
	case a > b:
		return Greater
	default:
		return Equal
	}
}
