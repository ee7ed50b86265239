package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/jcdickinson/ruledoc/internal/cache"
	"github.com/spf13/cobra"
)

var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Remove cached extraction results",
	Run:   runClearCache,
}

func runClearCache(cmd *cobra.Command, args []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	n, err := cache.New(cfg.Cache.Dir).Clear()
	if err != nil {
		slog.Error("failed to clear cache", "dir", cfg.Cache.Dir, "error", err)
		os.Exit(1)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %d cache entries from %s\n", n, cfg.Cache.Dir)
}
