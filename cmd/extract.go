package cmd

import (
	"context"
	"log/slog"

	"github.com/jcdickinson/ruledoc/internal/generate"
	"github.com/spf13/cobra"
)

var extractOutput string

var extractCmd = &cobra.Command{
	Use:   "extract FILE.bzl...",
	Short: "Print the rules and macros extracted from .bzl files",
	Example: `  ruledoc extract java.bzl
  ruledoc extract --output yaml --escape none rules/*.bzl`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "json", "output encoding: json or yaml")
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	g := &generate.Generator{Config: cfg, Cache: openCache(cfg), Logger: slog.Default()}
	rulesets, err := g.Extract(context.Background(), args)
	if err != nil {
		return err
	}

	if len(rulesets) == 1 {
		return writeOutput(cmd.OutOrStdout(), extractOutput, rulesets[0])
	}
	return writeOutput(cmd.OutOrStdout(), extractOutput, rulesets)
}
