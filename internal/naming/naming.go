// Package naming decides where generated documentation is written: the output
// format, its file extension, and the optional rename map that overrides the
// default output name of an input file.
package naming

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InputError reports a mistake in user-supplied input. Path and Line locate
// the mistake when known.
type InputError struct {
	Path string
	Line int
	Msg  string
}

func (e *InputError) Error() string {
	switch {
	case e.Path != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	case e.Path != "":
		return fmt.Sprintf("%s: %s", e.Path, e.Msg)
	default:
		return e.Msg
	}
}

// Format is an output documentation format.
type Format string

const (
	Markdown Format = "markdown"
	HTML     Format = "html"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case Markdown, HTML:
		return f, nil
	}
	return "", &InputError{Msg: fmt.Sprintf("invalid output format %q; possible formats are %q and %q", s, HTML, Markdown)}
}

// Extension returns the file extension used for the format, without a dot.
func (f Format) Extension() string {
	if f == HTML {
		return "html"
	}
	return "md"
}

// ReadRenames loads a rename map from path. Each line holds a source file and
// its output file name separated by a tab. An empty path yields an empty map.
func ReadRenames(path string) (map[string]string, error) {
	renames := make(map[string]string)
	if path == "" {
		return renames, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening renames file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	n := 0
	for scanner.Scan() {
		n++
		line := scanner.Text()
		parts := strings.Split(line, "\t")
		if len(parts) != 2 {
			return nil, invalidRename(path, n, line)
		}
		src := strings.TrimSpace(parts[0])
		dest := strings.TrimSpace(parts[1])
		if src == "" || dest == "" {
			return nil, invalidRename(path, n, line)
		}
		renames[src] = dest
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading renames file: %w", err)
	}
	return renames, nil
}

func invalidRename(path string, line int, text string) error {
	return &InputError{
		Path: path,
		Line: line,
		Msg:  fmt.Sprintf("invalid file mapping format for renames file:\n\n%s\n", text),
	}
}

// ReplaceExtension swaps the extension of path for ext. A path without a dot
// is returned unchanged.
func ReplaceExtension(path, ext string) string {
	i := strings.LastIndex(path, ".")
	if i < 0 {
		return path
	}
	return path[:i+1] + ext
}

// OutputFilename returns the name of the documentation file generated for
// bzlFile.
func OutputFilename(bzlFile string, renames map[string]string, format Format) string {
	if dest, ok := renames[bzlFile]; ok {
		return dest
	}
	return ReplaceExtension(filepath.Base(bzlFile), format.Extension())
}

// ValidateRenames checks that no two input files are written to the same
// output file.
func ValidateRenames(renames map[string]string, bzlFiles []string, format Format) error {
	seen := make(map[string]bool, len(bzlFiles))
	for _, bzlFile := range bzlFiles {
		out := OutputFilename(bzlFile, renames, format)
		if seen[out] {
			return &InputError{Msg: fmt.Sprintf("conflicting output file %s for input file %s", out, bzlFile)}
		}
		seen[out] = true
	}
	return nil
}
