// Package server exposes event graph queries as MCP tools over stdio.
package server

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"eventgraph/internal/analyzer"
	"eventgraph/util"
)

const systemPrompt = `# eventgraph

eventgraph finds implicit coupling between files that emit named events and
files that listen for them. Every query rescans the requested directories, so
results always reflect the files on disk.

- Use "scan" to get the whole graph (dot, mermaid or json).
- Use "find_listeners" before renaming or removing an event.
- Use "file_events" to see what a single file emits and listens for.
- Use "list_events" for an inventory of every event name.

Directories default to the git root of the server's working directory.
Directory arguments may be plain paths or file:// URIs.
`

// Server wraps an MCP server backed by an analyzer.
type Server struct {
	mcpServer    *mcp.Server
	analyzer     *analyzer.Analyzer
	systemPrompt string
	logger       *slog.Logger
}

// New creates a server and registers its tools and resources.
func New(an *analyzer.Analyzer, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		mcpServer: mcp.NewServer(&mcp.Implementation{
			Name:    "eventgraph",
			Version: version,
		}, nil),
		analyzer:     an,
		systemPrompt: systemPrompt,
		logger:       logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// Run serves over stdin/stdout until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server starting")
	return s.mcpServer.Run(ctx, &mcp.StdioTransport{})
}

// resolveDirs normalizes directory arguments, defaulting to the git root.
func resolveDirs(dirs []string) ([]string, error) {
	if len(dirs) == 0 {
		root, err := util.FindGitRoot()
		if err != nil {
			return nil, err
		}
		return []string{root}, nil
	}
	out := make([]string, len(dirs))
	for i, d := range dirs {
		out[i] = filepath.Clean(util.URIToPath(d))
	}
	return out, nil
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	res := textResult(text)
	res.IsError = true
	return res
}
