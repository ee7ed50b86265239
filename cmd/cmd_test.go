package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jcdickinson/ruledoc/internal/docstring"
	"github.com/jcdickinson/ruledoc/internal/naming"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDocstring = "Builds things.\n\nArgs:\n  srcs: Sources.\n  deps: <Deps>.\n"

// run executes the root command with args and returns what it printed.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Cleanup(func() {
		parseOutput = "json"
		parseNoEscape = false
		extractOutput = "json"
	})

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestWriteOutput(t *testing.T) {
	t.Parallel()

	docs := docstring.Parse(testDocstring)

	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, "json", docs))
	assert.Contains(t, buf.String(), `"doc": "Builds things."`)
	assert.Contains(t, buf.String(), `"deps": "&lt;Deps&gt;."`)

	buf.Reset()
	require.NoError(t, writeOutput(&buf, "yaml", docs))
	assert.Contains(t, buf.String(), "doc: Builds things.\n")
	assert.Contains(t, buf.String(), "attr_docs:\n  srcs: Sources.\n  deps: ")
	assert.Contains(t, buf.String(), "&lt;Deps&gt;.")

	err := writeOutput(&buf, "xml", docs)
	var inputErr *naming.InputError
	assert.True(t, errors.As(err, &inputErr))
}

func TestParseCommand_Stdin(t *testing.T) {
	out, err := run(t, testDocstring, "parse", "--no-escape")
	require.NoError(t, err)
	assert.Contains(t, out, `"doc": "Builds things."`)
	assert.Contains(t, out, `"deps": "<Deps>."`)
}

func TestParseCommand_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte(testDocstring), 0644))

	out, err := run(t, "", "parse", "--output", "yaml", path)
	require.NoError(t, err)
	assert.Contains(t, out, "srcs: Sources.")
}

func TestExtractCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lib.bzl")
	require.NoError(t, os.WriteFile(path, []byte("lib = rule(implementation = _impl)\n\"\"\"Builds a library.\"\"\"\n"), 0644))

	out, err := run(t, "", "extract", "-o", "yaml", path)
	require.NoError(t, err)
	assert.Contains(t, out, "- name: lib\n")
	assert.Contains(t, out, "doc: Builds a library.\n")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "ruledoc "), "got %q", out)
}
