package versionspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		name       string
		a, b       Spec
		want       Ordering
		comparable bool
	}{
		{"exact precedence", MustParse("1.2.0"), MustParse("1.1.9"), Greater, true},
		{"exact lower", MustParse("1.0.0"), MustParse("2.0.0"), Less, true},
		{"exact equal", MustParse("1.0.0"), MustParse("1.0.0"), Equal, true},
		{"exact pre-release", MustParse("1.0.0-alpha"), MustParse("1.0.0"), Less, true},
		{"exact inside range wins", MustParse("1.5.0"), MustParse("^1"), Greater, true},
		{"exact outside range loses", MustParse("2.0.0"), MustParse("^1"), Less, true},
		{"range against matching exact", MustParse("^1"), MustParse("1.5.0"), Less, true},
		{"range against exact outside it", MustParse("^1"), MustParse("2.0.0"), Greater, true},
		{"caret minor", MustParse("^1.2"), MustParse("^1.3"), Less, true},
		{"caret major", MustParse("^2"), MustParse("^1.9.9"), Greater, true},
		{"caret patch", MustParse("^1.2.4"), MustParse("^1.2.3"), Greater, true},
		{"caret defaults", MustParse("^1"), MustParse("^1.0.1"), Less, true},
		{"bare requirement is caret", MustParse("1.3"), MustParse("^1.2"), Greater, true},
		{"caret equal", MustParse("^1.2.3"), MustParse("^1.2.3"), Equal, false},
		{"caret equal by default", MustParse("^1"), MustParse("^1.0.0"), Equal, false},
		{"tilde range", MustParse("~1.2"), MustParse("^1.3"), Equal, false},
		{"multi comparator", MustParse(">=1, <2"), MustParse("^1.3"), Equal, false},
		{"wildcard", MustParse("*"), MustParse("^1"), Equal, false},
		{"versionless left", Versionless(), MustParse("1.0.0"), Equal, false},
		{"versionless right", MustParse("^1"), Versionless(), Equal, false},
		{"versionless both", Versionless(), Versionless(), Equal, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Compare(tt.a, tt.b)
			assert.Equal(t, tt.comparable, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestCompareIsAntisymmetric(t *testing.T) {
	specs := []Spec{
		MustParse("1.0.0"), MustParse("1.5.0"), MustParse("2.0.0"),
		MustParse("^1"), MustParse("^1.3"), MustParse("^2.1.4"),
		MustParse("~1"), Versionless(),
	}
	for _, a := range specs {
		for _, b := range specs {
			ab, okAB := Compare(a, b)
			ba, okBA := Compare(b, a)
			assert.Equal(t, okAB, okBA, "%s vs %s", a, b)
			if okAB {
				assert.Equal(t, ab, ba.Reverse(), "%s vs %s", a, b)
			}
		}
	}
}

func TestGreater(t *testing.T) {
	assert.True(t, MustParse("2.0.0").Greater(MustParse("1.0.0")))
	assert.False(t, MustParse("1.0.0").Greater(MustParse("1.0.0")))
	assert.False(t, Versionless().Greater(MustParse("1.0.0")))
	assert.False(t, MustParse("^1.2.3").Greater(MustParse("^1.2.3")))
}
