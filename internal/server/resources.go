package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	usageURI        = "eventgraph://usage-guidelines"
	schemaURIPrefix = "eventgraph://schemas/"
	schemaMIMEType  = "application/schema+json"
)

// toolSchemas infers the argument schema of each tool on demand.
var toolSchemas = map[string]func() (*jsonschema.Schema, error){
	"scan":           schemaOf[ScanArgs],
	"list_events":    schemaOf[ListEventsArgs],
	"find_listeners": schemaOf[FindListenersArgs],
	"file_events":    schemaOf[FileEventsArgs],
}

func schemaOf[T any]() (*jsonschema.Schema, error) {
	return jsonschema.For[T](nil)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         usageURI,
		Name:        "Usage Guidelines",
		Description: "How and when to use the eventgraph tools",
		MIMEType:    "text/markdown",
	}, s.readUsage)

	s.mcpServer.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: schemaURIPrefix + "{tool_name}",
		Name:        "Tool Schema",
		Description: "Argument schema of an eventgraph tool",
		MIMEType:    schemaMIMEType,
	}, readSchema)
}

func (s *Server) readUsage(_ context.Context, _ *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return singleContent(usageURI, "text/markdown", s.systemPrompt), nil
}

func readSchema(_ context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	text, err := schemaJSON(strings.TrimPrefix(uri, schemaURIPrefix))
	if err != nil {
		return nil, err
	}
	return singleContent(uri, schemaMIMEType, text), nil
}

// schemaJSON renders the argument schema of the named tool.
func schemaJSON(tool string) (string, error) {
	infer, ok := toolSchemas[tool]
	if !ok {
		return "", fmt.Errorf("no tool named %q", tool)
	}
	schema, err := infer()
	if err != nil {
		return "", fmt.Errorf("infer %s schema: %w", tool, err)
	}
	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s schema: %w", tool, err)
	}
	return string(b), nil
}

func singleContent(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{URI: uri, MIMEType: mimeType, Text: text}},
	}
}
