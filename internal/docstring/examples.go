package docstring

// collectExamples returns the raw lines of the example section whose heading
// is lines[start], along with the index of the first line after it.
// Indentation is kept; Parse strips the common margin once everything has
// been collected.
func collectExamples(lines []string, start int) ([]string, int) {
	headingIndent := leadingWhitespace(lines[start])

	var collected []string
	i := start + 1
	for ; i < len(lines); i++ {
		if endsSection(lines[i], headingIndent) {
			break
		}
		collected = append(collected, lines[i])
	}
	return collected, i
}
