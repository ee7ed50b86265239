// Package generate runs the documentation pipeline: it extracts every input
// .bzl file, renders one page per file and writes the pages out.
package generate

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jcdickinson/ruledoc/internal/bzl"
	"github.com/jcdickinson/ruledoc/internal/cache"
	"github.com/jcdickinson/ruledoc/internal/config"
	"github.com/jcdickinson/ruledoc/internal/docstring"
	"github.com/jcdickinson/ruledoc/internal/markdown"
	"github.com/jcdickinson/ruledoc/internal/naming"
	"github.com/jcdickinson/ruledoc/internal/render"
	"github.com/jcdickinson/ruledoc/internal/writer"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Generator turns .bzl files into documentation as configured by Config.
// Cache may be nil.
type Generator struct {
	Config *config.Config
	Cache  *cache.Cache
	Logger *slog.Logger

	extractGroup singleflight.Group
}

// Result describes a finished run.
type Result struct {
	// Files lists what was written: the archive in zip mode, otherwise every
	// page.
	Files    []string
	RuleSets []*bzl.RuleSet
}

func (g *Generator) logger() *slog.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return slog.Default()
}

// Run generates documentation for files.
func (g *Generator) Run(ctx context.Context, files []string) (*Result, error) {
	if len(files) == 0 {
		return nil, &naming.InputError{Msg: "no .bzl files given"}
	}
	cfg := g.Config
	format := cfg.Output.Format

	renames, err := naming.ReadRenames(cfg.Output.Renames)
	if err != nil {
		return nil, err
	}
	if err := naming.ValidateRenames(renames, files, format); err != nil {
		return nil, err
	}

	rulesets, err := g.Extract(ctx, files)
	if err != nil {
		return nil, err
	}

	outputs := make([]string, len(files))
	links := make(map[string]string, len(files))
	for i, f := range files {
		outputs[i] = naming.OutputFilename(f, renames, format)
		links[f] = outputs[i]
	}

	renderer, err := render.New(links)
	if err != nil {
		return nil, err
	}
	nav := render.Nav(rulesets, outputs)

	var pages []writer.File
	for i, rs := range rulesets {
		if len(rs.Rules) == 0 {
			g.logger().Debug("skipping file without rules", "file", rs.File)
			continue
		}
		var content string
		if format == naming.HTML {
			content, err = renderer.HTML(rs, outputs[i], nav)
		} else {
			content, err = renderer.Markdown(rs)
			if err == nil && cfg.Output.FrontMatter {
				content = markdown.AddFrontMatter(content, frontMatter(rs))
			}
		}
		if err != nil {
			return nil, err
		}
		pages = append(pages, writer.File{Path: outputs[i], Content: []byte(content)})
	}

	w := &writer.Writer{
		Format:     format,
		OutputDir:  cfg.Output.Dir,
		OutputFile: cfg.Output.File,
		Zip:        cfg.Output.Zip,
		Logger:     g.logger(),
	}
	written, err := w.Write(ctx, pages)
	if err != nil {
		return nil, err
	}

	g.logger().Info("generated documentation", "inputs", len(files), "pages", len(pages), "format", format)
	return &Result{Files: written, RuleSets: rulesets}, nil
}

// Extract extracts files concurrently, returning their rulesets in input
// order.
func (g *Generator) Extract(ctx context.Context, files []string) ([]*bzl.RuleSet, error) {
	escape, err := g.Config.Parser.Escaper()
	if err != nil {
		return nil, err
	}
	extractor := bzl.NewExtractor(docstring.NewParser(docstring.WithEscaper(escape)))

	workers := g.Config.Workers
	if workers < 1 {
		workers = 1
	}

	rulesets := make([]*bzl.RuleSet, len(files))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, path := range files {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			// Singleflight: concurrent requests for the same file share one
			// extraction.
			v, err, _ := g.extractGroup.Do(path, func() (interface{}, error) {
				return g.extractFile(ctx, extractor, path)
			})
			if err != nil {
				return err
			}
			rulesets[i] = v.(*bzl.RuleSet)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return rulesets, nil
}

func (g *Generator) extractFile(ctx context.Context, extractor *bzl.Extractor, path string) (*bzl.RuleSet, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	var key string
	if g.Cache != nil {
		// Escaping changes the extracted text, so it is part of the key.
		key = cache.Key(append([]byte(g.Config.Parser.Escape+"\x00"), src...))
		var rs bzl.RuleSet
		ok, err := g.Cache.Get(key, &rs)
		if err != nil {
			g.logger().Warn("ignoring unreadable cache entry", "file", path, "error", err)
		} else if ok {
			g.logger().Debug("cache hit", "file", path)
			rs.File = path
			return &rs, nil
		}
	}

	rs, err := extractor.Extract(ctx, path, src)
	if err != nil {
		return nil, err
	}
	g.logger().Debug("extracted file", "file", path, "rules", len(rs.Rules))

	if g.Cache != nil {
		if err := g.Cache.Put(key, rs); err != nil {
			g.logger().Warn("failed to cache extraction", "file", path, "error", err)
		}
	}
	return rs, nil
}

func frontMatter(rs *bzl.RuleSet) map[string]string {
	fields := map[string]string{"source": rs.File}
	if rs.Title != "" {
		fields["title"] = rs.Title
	}
	return fields
}
