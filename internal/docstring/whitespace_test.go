package docstring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeadingWhitespace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want int
	}{
		{"", 0},
		{"abc", 0},
		{"  abc", 2},
		{"\t\tabc", 2},
		{"    ", 4},
		{"  x", 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, leadingWhitespace(tt.line), "line %q", tt.line)
	}
}

func TestEndsSection(t *testing.T) {
	t.Parallel()

	assert.False(t, endsSection("", 0), "blank lines never end a section")
	assert.False(t, endsSection("      ", 2))
	assert.False(t, endsSection("    deeper", 2))
	assert.True(t, endsSection("  same", 2))
	assert.True(t, endsSection("shallower", 2))
}

func TestCollectExamples(t *testing.T) {
	t.Parallel()

	lines := []string{"  Examples:", "    a()", "", "      b()", "  Args:"}
	got, next := collectExamples(lines, 0)
	assert.Equal(t, []string{"    a()", "", "      b()"}, got)
	assert.Equal(t, 4, next)
}

func TestCollectExamples_RunsToEnd(t *testing.T) {
	t.Parallel()

	got, next := collectExamples([]string{"Examples:", "  x"}, 0)
	assert.Equal(t, []string{"  x"}, got)
	assert.Equal(t, 2, next)
}

func TestParseFields_ReturnsStopIndex(t *testing.T) {
	t.Parallel()

	lines := []string{"Args:", "  a: one", "", "    continued", "Prose"}
	fields := NewFields()
	next := NewParser().parseFields(lines, 0, fields)
	assert.Equal(t, 4, next)
	doc, _ := fields.Get("a")
	assert.Equal(t, "one\n\ncontinued", doc)
}

func TestFields_NilSafe(t *testing.T) {
	t.Parallel()

	var f *Fields
	assert.Equal(t, 0, f.Len())
	assert.Nil(t, f.Pairs())
	assert.Empty(t, f.Keys())
	_, ok := f.Get("x")
	assert.False(t, ok)

	var zero Fields
	zero.Set("x", "y")
	assert.Equal(t, []Field{{Name: "x", Doc: "y"}}, zero.Pairs())
}
