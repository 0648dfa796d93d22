// Package render serializes a synthesized event graph.
package render

import (
	"encoding/json"
	"fmt"
	"strings"

	"eventgraph/internal/graph"
	"eventgraph/util"
)

// Format names an output format.
type Format string

const (
	FormatDOT     Format = "dot"
	FormatMermaid Format = "mermaid"
	FormatJSON    Format = "json"
	// FormatSQLite is written by the store package, not by Render.
	FormatSQLite Format = "sqlite"
)

// Formats lists every supported format.
var Formats = []Format{FormatDOT, FormatMermaid, FormatJSON, FormatSQLite}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported format: %q", s)
}

// IsText reports whether the format is produced by Render.
func (f Format) IsText() bool {
	return f != FormatSQLite
}

// Render produces the textual representation of res.
func Render(res *graph.Result, format Format) (string, error) {
	switch format {
	case FormatDOT:
		return DOT(res.Edges), nil
	case FormatMermaid:
		return Mermaid(res.Edges), nil
	case FormatJSON:
		return JSON(res)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// DOT renders edges as a Graphviz digraph. Every edge is one statement whose
// label lists the shared events separated by left-justified line breaks.
// Nodes are implied by the edge statements.
func DOT(edges []graph.Edge) string {
	var sb strings.Builder

	sb.WriteString("digraph {\n")
	sb.WriteString("\tsplines=curved;\n")
	sb.WriteString("\tsep=\"+50,50\";\n")
	sb.WriteString("\toverlap=scalexy;\n")
	sb.WriteString("\tnodesep=0.6;\n")

	for _, e := range edges {
		labels := make([]string, len(e.Events))
		for i, ev := range e.Events {
			labels[i] = escapeDOT(ev)
		}
		fmt.Fprintf(&sb, "\t\"%s\" -> \"%s\" [label = \"%s\" ];\n",
			escapeDOT(e.Source), escapeDOT(e.Sink), strings.Join(labels, `\l`))
	}

	sb.WriteString("}\n")
	return sb.String()
}

// escapeDOT makes s safe inside a double-quoted DOT string.
func escapeDOT(s string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
	)
	return replacer.Replace(s)
}

// Mermaid renders edges as a left-to-right flowchart.
func Mermaid(edges []graph.Edge) string {
	var sb strings.Builder

	sb.WriteString("flowchart LR\n")

	declared := make(map[string]bool)
	node := func(file string) string {
		id := mermaidID(file)
		if !declared[id] {
			declared[id] = true
			fmt.Fprintf(&sb, "    %s[\"%s\"]\n", id, escapeMermaidLabel(file))
		}
		return id
	}

	for _, e := range edges {
		src := node(e.Source)
		dst := node(e.Sink)
		labels := make([]string, len(e.Events))
		for i, ev := range e.Events {
			labels[i] = escapeMermaidLabel(ev)
		}
		fmt.Fprintf(&sb, "    %s -->|\"%s\"| %s\n", src, strings.Join(labels, "<br/>"), dst)
	}

	return sb.String()
}

func mermaidID(file string) string {
	return "f_" + util.GenerateNodeID(file)[:12]
}

func escapeMermaidLabel(s string) string {
	replacer := strings.NewReplacer(
		"\"", "#quot;",
		"<", "&lt;",
		">", "&gt;",
		"|", "#124;",
		"\r\n", "<br/>",
		"\n", "<br/>",
		"\r", "<br/>",
	)
	return replacer.Replace(s)
}

type jsonGraph struct {
	Edges      []graph.Edge       `json:"edges"`
	Unresolved []graph.Occurrence `json:"unresolved"`
}

// JSON renders the edges and the unresolved source events.
func JSON(res *graph.Result) (string, error) {
	out := jsonGraph{Edges: res.Edges, Unresolved: res.Unresolved}
	if out.Edges == nil {
		out.Edges = []graph.Edge{}
	}
	if out.Unresolved == nil {
		out.Unresolved = []graph.Occurrence{}
	}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal graph: %w", err)
	}
	return string(b) + "\n", nil
}
