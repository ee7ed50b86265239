package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jcdickinson/ruledoc/internal/docstring"
	"github.com/jcdickinson/ruledoc/internal/naming"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	parseOutput   string
	parseNoEscape bool
)

var parseCmd = &cobra.Command{
	Use:   "parse [FILE|-]",
	Short: "Split a single docstring into its sections",
	Long: `Parse reads one rule docstring from FILE, or standard input when FILE is
omitted or "-", and prints the description, attribute docs (Args:), example
block (Examples:) and output docs (Outputs:) it contains.`,
	Example: `  ruledoc parse docstring.txt
  printf 'Doc.\n\nArgs:\n  srcs: Sources.\n' | ruledoc parse --output yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVarP(&parseOutput, "output", "o", "json", "output encoding: json or yaml")
	parseCmd.Flags().BoolVar(&parseNoEscape, "no-escape", false, "keep attribute and output docs unescaped")
}

func runParse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	escape, err := cfg.Parser.Escaper()
	if err != nil {
		return err
	}
	if parseNoEscape {
		escape = docstring.NoEscape
	}

	in := cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening docstring file: %w", err)
		}
		defer f.Close()
		in = f
	}
	src, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading docstring: %w", err)
	}

	docs := docstring.NewParser(docstring.WithEscaper(escape)).Parse(string(src))
	return writeOutput(cmd.OutOrStdout(), parseOutput, docs)
}

// writeOutput encodes v as JSON or YAML.
func writeOutput(w io.Writer, encoding string, v any) error {
	switch encoding {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return &naming.InputError{Msg: fmt.Sprintf("invalid output encoding %q; possible values are \"json\" and \"yaml\"", encoding)}
}
