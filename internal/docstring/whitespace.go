package docstring

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Escaper transforms a finalized field description for the target output
// format.
type Escaper func(string) string

// HTMLEscaper escapes <, >, &, ' and " so descriptions can be embedded in
// HTML or Markdown tables.
var HTMLEscaper Escaper = html.EscapeString

// NoEscape returns descriptions unchanged.
func NoEscape(s string) string { return s }

// leadingWhitespace returns the number of whitespace characters at the start
// of line.
func leadingWhitespace(line string) int {
	trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
	return utf8.RuneCountInString(line[:len(line)-len(trimmed)])
}

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// endsSection reports whether line closes a section opened by a heading
// indented by headingIndent characters.
func endsSection(line string, headingIndent int) bool {
	return !isBlank(line) && leadingWhitespace(line) <= headingIndent
}
