package mcp

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jcdickinson/ruledoc/internal/bzl"
	"github.com/jcdickinson/ruledoc/internal/cache"
	"github.com/jcdickinson/ruledoc/internal/config"
	"github.com/jcdickinson/ruledoc/internal/docstring"
	"github.com/jcdickinson/ruledoc/internal/generate"
	"github.com/jcdickinson/ruledoc/internal/naming"
	"github.com/jcdickinson/ruledoc/internal/render"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

//go:embed instructions.md
var instructions string

const resourcePrefix = "bzl://"

type Server struct {
	mcpServer *server.MCPServer
	cfg       *config.Config
	generator *generate.Generator
}

// NewServer builds the MCP server. c may be nil to disable the extraction
// cache.
func NewServer(cfg *config.Config, c *cache.Cache, version string) *Server {
	s := &Server{
		cfg:       cfg,
		generator: &generate.Generator{Config: cfg, Cache: c},
	}

	mcpServer := server.NewMCPServer(
		"ruledoc",
		version,
		server.WithInstructions(instructions),
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTools(mcpServer)
	s.registerResources(mcpServer)

	s.mcpServer = mcpServer
	return s
}

func (s *Server) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("parse_docstring",
			mcp.WithDescription("Split a Starlark rule docstring into its description, attribute docs (Args:), example block (Examples:) and output docs (Outputs:). Returns JSON."),
			mcp.WithString("docstring",
				mcp.Description("The docstring text, without the surrounding quotes"),
				mcp.Required(),
			),
			mcp.WithString("escape",
				mcp.Description("How field descriptions are escaped: \"html\" (default) or \"none\""),
			),
		),
		s.handleParseDocstring,
	)

	mcpServer.AddTool(
		mcp.NewTool("extract_docs",
			mcp.WithDescription("Extract the public rules, repository rules and macros of a .bzl file with their attributes, outputs and docs. Returns JSON."),
			mcp.WithString("path",
				mcp.Description("Path of the .bzl file"),
				mcp.Required(),
			),
		),
		s.handleExtractDocs,
	)

	mcpServer.AddTool(
		mcp.NewTool("render_docs",
			mcp.WithDescription("Render reference documentation for a .bzl file."),
			mcp.WithString("path",
				mcp.Description("Path of the .bzl file"),
				mcp.Required(),
			),
			mcp.WithString("format",
				mcp.Description("\"markdown\" or \"html\"; defaults to the configured format"),
			),
		),
		s.handleRenderDocs,
	)
}

func (s *Server) registerResources(mcpServer *server.MCPServer) {
	mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(
			resourcePrefix+"{+path}",
			"Starlark file documentation",
			mcp.WithTemplateDescription("Markdown reference documentation for a .bzl file."),
			mcp.WithTemplateMIMEType("text/markdown"),
		),
		s.handleReadResource,
	)
}

func (s *Server) handleParseDocstring(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	doc, ok := args["docstring"].(string)
	if !ok {
		return mcp.NewToolResultError("missing required parameter: docstring"), nil
	}

	escapeName, _ := args["escape"].(string)
	escape, err := config.ParserConfig{Escape: escapeName}.Escaper()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	docs := docstring.NewParser(docstring.WithEscaper(escape)).Parse(doc)
	resultJSON, _ := json.MarshalIndent(docs, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleExtractDocs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, _ := req.GetArguments()["path"].(string)
	if path == "" {
		return mcp.NewToolResultError("missing required parameter: path"), nil
	}

	rs, err := s.extract(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("extraction failed: %v", err)), nil
	}

	resultJSON, _ := json.MarshalIndent(rs, "", "  ")
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleRenderDocs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	path, _ := args["path"].(string)
	if path == "" {
		return mcp.NewToolResultError("missing required parameter: path"), nil
	}

	format := s.cfg.Output.Format
	if f, ok := args["format"].(string); ok && f != "" {
		parsed, err := naming.ParseFormat(f)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		format = parsed
	}

	out, err := s.render(ctx, path, format)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rendering failed: %v", err)), nil
	}
	return mcp.NewToolResultText(out), nil
}

func (s *Server) handleReadResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	path := strings.TrimPrefix(uri, resourcePrefix)
	if path == "" || path == uri {
		return nil, fmt.Errorf("invalid resource URI: %s", uri)
	}

	out, err := s.render(ctx, path, naming.Markdown)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", path, err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/markdown",
			Text:     out,
		},
	}, nil
}

func (s *Server) extract(ctx context.Context, path string) (*bzl.RuleSet, error) {
	rulesets, err := s.generator.Extract(ctx, []string{path})
	if err != nil {
		return nil, err
	}
	return rulesets[0], nil
}

func (s *Server) render(ctx context.Context, path string, format naming.Format) (string, error) {
	rs, err := s.extract(ctx, path)
	if err != nil {
		return "", err
	}
	r, err := render.New(nil)
	if err != nil {
		return "", err
	}
	if format == naming.HTML {
		file := naming.OutputFilename(path, nil, format)
		return r.HTML(rs, file, render.Nav([]*bzl.RuleSet{rs}, []string{file}))
	}
	return r.Markdown(rs)
}

func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) Shutdown(_ context.Context) error {
	return nil
}
