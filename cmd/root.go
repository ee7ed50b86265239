package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jcdickinson/ruledoc/internal/cache"
	"github.com/jcdickinson/ruledoc/internal/config"
	"github.com/jcdickinson/ruledoc/internal/generate"
	"github.com/jcdickinson/ruledoc/internal/naming"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "ruledoc [flags] FILE.bzl...",
	Short: "Generate reference documentation for Starlark rules and macros",
	Example: `  ruledoc --format=html --output-file=docs.zip rules/*.bzl
  ruledoc --zip=false --output-dir=docs java.bzl go.bzl`,
	Args:             cobra.MinimumNArgs(1),
	SilenceUsage:     true,
	SilenceErrors:    true,
	PersistentPreRun: setupLogging,
	RunE:             runGenerate,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var inputErr *naming.InputError
		if errors.As(err, &inputErr) {
			fmt.Fprintf(os.Stderr, "error: %v\n", inputErr)
			os.Exit(1)
		}
		log.Fatalf("command failed: %v", err)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "log debug output")
	pf.String("format", string(naming.Markdown), "output format: markdown or html")
	pf.String("escape", "html", "escaping of attribute and output docs: html or none")
	pf.Bool("cache", false, "cache extraction results between runs")
	pf.String("cache-dir", "", "directory of the extraction cache")
	pf.Int("workers", config.DefaultWorkers, "number of files extracted in parallel")

	f := rootCmd.Flags()
	f.String("output-dir", "", "directory to write documentation to when --zip=false (default \".\")")
	f.String("output-file", "", "zip archive to write when --zip=true (default \"ruledoc.zip\")")
	f.Bool("zip", true, "write a zip archive instead of a directory")
	f.String("renames", "", "file mapping input .bzl files to output names, one \"src<TAB>dest\" per line")
	f.Bool("front-matter", false, "prepend YAML front matter to markdown pages")

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(clearCacheCmd)
	rootCmd.AddCommand(versionCmd)
}

func setupLogging(cmd *cobra.Command, args []string) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// loadConfig reads the configuration with the flags of cmd applied on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := viper.New()
	if err := config.BindFlags(v, cmd.Flags()); err != nil {
		return nil, err
	}
	return config.Load(v)
}

// openCache returns the extraction cache, or nil when caching is off.
func openCache(cfg *config.Config) *cache.Cache {
	if !cfg.Cache.Enabled {
		return nil
	}
	return cache.New(cfg.Cache.Dir)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g := &generate.Generator{Config: cfg, Cache: openCache(cfg), Logger: slog.Default()}
	res, err := g.Run(ctx, args)
	if err != nil {
		return err
	}
	for _, f := range res.Files {
		slog.Debug("output", "path", f)
	}
	return nil
}

func waitForSignal(errCh chan error) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigs:
		log.Printf("received signal: %s", sig)
		return nil
	case err := <-errCh:
		return err
	}
}
