package versionspec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/depmerge/internal/foundation/errors"
)

func TestParseKinds(t *testing.T) {
	tests := []struct {
		in   string
		kind Kind
		str  string
	}{
		{"1.2.3", KindExact, "1.2.3"},
		{"1.0.0-beta.1", KindExact, "1.0.0-beta.1"},
		{"1.2", KindRange, "^1.2"},
		{"1", KindRange, "^1"},
		{"^0.4.0", KindRange, "^0.4.0"},
		{"~1.2", KindRange, "~1.2"},
		{">=1.0, <2", KindRange, ">=1.0, <2"},
		{"1.*", KindRange, "1.*"},
		{"*", KindRange, "*"},
		{"=1.2.3", KindRange, "=1.2.3"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s, err := Parse(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, s.Kind())
			assert.Equal(t, tt.str, s.String())
			assert.Equal(t, tt.in, s.Raw())
		})
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "1.2.3.4", "^01.2", ">=", "1.*.3", "^1.*", "1,,2", "1.2-beta"} {
		t.Run(in, func(t *testing.T) {
			_, err := Parse(in)
			require.Error(t, err)
			assert.True(t, ferrors.HasCategory(err, ferrors.CategoryParse), "got %v", err)
		})
	}
}

func TestRequirementShape(t *testing.T) {
	star := MustParse("*").Requirement()
	assert.Empty(t, star.Comparators)
	_, ok := star.SingleCaret()
	assert.False(t, ok)

	caret := MustParse("1.2").Requirement()
	c, ok := caret.SingleCaret()
	require.True(t, ok)
	assert.Equal(t, uint64(1), c.Major)
	require.NotNil(t, c.Minor)
	assert.Equal(t, uint64(2), *c.Minor)
	assert.Nil(t, c.Patch)

	_, ok = MustParse("~1.2").Requirement().SingleCaret()
	assert.False(t, ok)
	_, ok = MustParse("^1, <1.5").Requirement().SingleCaret()
	assert.False(t, ok)
}

func TestRequirementMatches(t *testing.T) {
	tests := []struct {
		req     string
		version string
		want    bool
	}{
		{"^1", "1.5.0", true},
		{"^1", "2.0.0", false},
		{"1.2", "1.9.0", true},
		{"1.2", "1.1.0", false},
		{"^0.4", "0.4.7", true},
		{"^0.4", "0.5.0", false},
		{"~1.2", "1.2.9", true},
		{"~1.2", "1.3.0", false},
		{">=1.0, <2", "1.9.9", true},
		{"1.*", "1.7.0", true},
		{"*", "42.0.0", true},
	}
	for _, tt := range tests {
		t.Run(tt.req+"@"+tt.version, func(t *testing.T) {
			v := MustParse(tt.version).Version()
			require.NotNil(t, v)
			assert.Equal(t, tt.want, MustParse(tt.req).Requirement().Matches(v))
		})
	}
}

func TestVersionlessAccessors(t *testing.T) {
	v := Versionless()
	assert.True(t, v.IsVersionless())
	assert.Nil(t, v.Version())
	assert.Nil(t, v.Requirement())
	assert.Equal(t, "versionless", v.Kind().String())
}
