package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"eventgraph/internal/graph"
	"eventgraph/internal/render"
	"eventgraph/util"
)

// Arguments structs

type ScanArgs struct {
	Dirs         []string `json:"dirs,omitempty" jsonschema:"Directories to scan; defaults to the git root"`
	IgnoreEvents []string `json:"ignore_events,omitempty" jsonschema:"Event names excluded from the graph"`
	Format       string   `json:"format,omitempty" jsonschema:"Output format: dot (default), mermaid or json"`
}

type ListEventsArgs struct {
	Dirs []string `json:"dirs,omitempty" jsonschema:"Directories to scan; defaults to the git root"`
}

type FindListenersArgs struct {
	Dirs  []string `json:"dirs,omitempty" jsonschema:"Directories to scan; defaults to the git root"`
	Event string   `json:"event" jsonschema:"The event name to look up"`
}

type FileEventsArgs struct {
	Dirs []string `json:"dirs,omitempty" jsonschema:"Directories to scan; defaults to the git root"`
	File string   `json:"file" jsonschema:"Path of the file relative to the scanned directory"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "scan",
		Description: "Scans directories and renders the event graph",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ScanArgs) (*mcp.CallToolResult, any, error) {
		format := render.FormatDOT
		if args.Format != "" {
			f, err := render.ParseFormat(args.Format)
			if err != nil || !f.IsText() {
				return errorResult(fmt.Sprintf("Unsupported format: %q", args.Format)), nil, nil
			}
			format = f
		}

		res, errRes := s.build(ctx, "scan", args.Dirs, args.IgnoreEvents)
		if errRes != nil {
			return errRes, nil, nil
		}

		out, err := render.Render(res, format)
		if err != nil {
			return errorResult(fmt.Sprintf("Render failed: %v", err)), nil, nil
		}
		return textResult(out), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_events",
		Description: "Lists every event name with the files emitting and listening for it",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args ListEventsArgs) (*mcp.CallToolResult, any, error) {
		res, errRes := s.build(ctx, "list_events", args.Dirs, nil)
		if errRes != nil {
			return errRes, nil, nil
		}

		type EventInfo struct {
			Event   string   `json:"event"`
			Sources []string `json:"sources"`
			Sinks   []string `json:"sinks"`
		}
		ix := res.Indexes
		seen := graph.NewOrderedSet()
		for _, e := range ix.EventSources.Keys() {
			seen.Add(e)
		}
		for _, e := range ix.EventSinks.Keys() {
			seen.Add(e)
		}
		events := make([]EventInfo, 0, seen.Len())
		for _, e := range seen.Values() {
			events = append(events, EventInfo{
				Event:   e,
				Sources: nonNil(ix.EventSources.Get(e)),
				Sinks:   nonNil(ix.EventSinks.Get(e)),
			})
		}

		return jsonResult(events), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "find_listeners",
		Description: "Finds the files listening for an event and the files emitting it",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args FindListenersArgs) (*mcp.CallToolResult, any, error) {
		if args.Event == "" {
			return errorResult("event is required"), nil, nil
		}
		res, errRes := s.build(ctx, "find_listeners", args.Dirs, nil)
		if errRes != nil {
			return errRes, nil, nil
		}

		return jsonResult(map[string][]string{
			"listeners": nonNil(res.Indexes.EventSinks.Get(args.Event)),
			"emitters":  nonNil(res.Indexes.EventSources.Get(args.Event)),
		}), nil, nil
	})

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "file_events",
		Description: "Returns the events a file emits and listens for",
	}, func(ctx context.Context, req *mcp.CallToolRequest, args FileEventsArgs) (*mcp.CallToolResult, any, error) {
		if args.File == "" {
			return errorResult("file is required"), nil, nil
		}
		dirs, err := resolveDirs(args.Dirs)
		if err != nil {
			return errorResult(fmt.Sprintf("Resolve directories: %v", err)), nil, nil
		}
		res, errRes := s.build(ctx, "file_events", dirs, nil)
		if errRes != nil {
			return errRes, nil, nil
		}

		file := filepath.ToSlash(args.File)
		ix := res.Indexes
		emits, listens := ix.FileSources.Get(file), ix.FileSinks.Get(file)
		if emits == nil && listens == nil {
			return textResult(fmt.Sprintf("No events found in %s.", file)), nil, nil
		}

		var uris []string
		for _, d := range dirs {
			path := filepath.Join(d, filepath.FromSlash(file))
			if _, err := os.Stat(path); err == nil {
				uris = append(uris, util.PathToURI(path))
			}
		}

		return jsonResult(map[string][]string{
			"emits":     nonNil(emits),
			"listens":   nonNil(listens),
			"locations": nonNil(uris),
		}), nil, nil
	})
}

// build runs the analyzer for a tool call. A non-nil *mcp.CallToolResult
// reports a failure to the client.
func (s *Server) build(ctx context.Context, tool string, dirs, ignore []string) (*graph.Result, *mcp.CallToolResult) {
	resolved, err := resolveDirs(dirs)
	if err != nil {
		return nil, errorResult(fmt.Sprintf("Resolve directories: %v", err))
	}
	s.logger.Info("tool call", slog.String("tool", tool), slog.Any("dirs", resolved))

	res, err := s.analyzer.Run(ctx, resolved, ignore)
	if err != nil {
		s.logger.Warn("scan failed", slog.String("tool", tool), slog.String("error", err.Error()))
		return nil, errorResult(fmt.Sprintf("Scan failed: %v", err))
	}
	return res, nil
}

func jsonResult(v any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("Encode result: %v", err))
	}
	return textResult(string(b))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
