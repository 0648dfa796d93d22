package extract

import (
	"fmt"
	"slices"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

type grammar struct {
	language  *tree_sitter.Language
	query     *tree_sitter.Query
	methodIdx uint32
	argsIdx   uint32
}

// TreeSitter parses JavaScript and TypeScript and matches call expressions
// in the syntax tree, so calls inside comments and strings are not counted.
// Files in other languages go through the regex extractor.
type TreeSitter struct {
	grammars map[string]*grammar
	fallback *Regex

	sinks   map[string]bool
	sources map[string]bool
	target  string
}

// NewTreeSitter compiles the call query for every supported grammar.
func NewTreeSitter(p Patterns) (*TreeSitter, error) {
	fallback, err := NewRegex(p)
	if err != nil {
		return nil, err
	}

	languages := map[string]*tree_sitter.Language{
		"javascript": tree_sitter.NewLanguage(tree_sitter_javascript.Language()),
		"typescript": tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
		"tsx":        tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
	}

	t := &TreeSitter{
		grammars: make(map[string]*grammar, len(languages)),
		fallback: fallback,
		sinks:    toSet(p.SinkMethods),
		sources:  toSet(p.SourceMethods),
		target:   p.Target,
	}
	for name, lang := range languages {
		query, qerr := tree_sitter.NewQuery(lang, Queries[name])
		if qerr != nil {
			t.Close()
			return nil, fmt.Errorf("extract: compile %s query: %v", name, qerr)
		}
		names := query.CaptureNames()
		t.grammars[name] = &grammar{
			language:  lang,
			query:     query,
			methodIdx: uint32(slices.Index(names, "method")),
			argsIdx:   uint32(slices.Index(names, "args")),
		}
	}
	return t, nil
}

// Close releases the compiled queries.
func (t *TreeSitter) Close() {
	for _, g := range t.grammars {
		g.query.Close()
	}
}

func (t *TreeSitter) Extract(path string, src []byte) Events {
	g, ok := t.grammars[languageFor(path)]
	if !ok {
		return t.fallback.Extract(path, src)
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(g.language); err != nil {
		return t.fallback.Extract(path, src)
	}
	tree := parser.Parse(src, nil)
	if tree == nil {
		return t.fallback.Extract(path, src)
	}
	defer tree.Close()

	cursor := tree_sitter.NewQueryCursor()
	defer cursor.Close()

	var ev Events
	matches := cursor.Matches(g.query, tree.RootNode(), src)
	for m := matches.Next(); m != nil; m = matches.Next() {
		var method string
		var args []*tree_sitter.Node
		for i := range m.Captures {
			c := &m.Captures[i]
			switch c.Index {
			case g.methodIdx:
				method = c.Node.Utf8Text(src)
			case g.argsIdx:
				args = arguments(&c.Node)
			}
		}

		if t.sinks[method] && len(args) >= 2 && args[0].Utf8Text(src) == t.target {
			if name, ok := literal(args[1], src); ok {
				ev.Sinks = appendNonEmpty(ev.Sinks, name)
			}
		}
		if t.sources[method] && len(args) >= 1 {
			ref := args[0]
			if len(args) >= 2 && ref.Utf8Text(src) == t.target {
				ref = args[1]
			}
			if name, ok := literal(ref, src); ok {
				ev.Sources = appendNonEmpty(ev.Sources, name)
			}
		}
	}
	return ev
}

// arguments returns the named children of an argument list, skipping comments.
func arguments(list *tree_sitter.Node) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	for i := uint(0); i < list.NamedChildCount(); i++ {
		child := list.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// literal returns the decoded contents of a string literal or of a template
// string without substitutions.
func literal(n *tree_sitter.Node, src []byte) (string, bool) {
	switch n.Kind() {
	case "string":
	case "template_string":
		for i := uint(0); i < n.NamedChildCount(); i++ {
			if c := n.NamedChild(i); c != nil && c.Kind() == "template_substitution" {
				return "", false
			}
		}
	default:
		return "", false
	}
	text := n.Utf8Text(src)
	if len(text) < 2 {
		return "", false
	}
	return unescape(text[1 : len(text)-1]), true
}

func toSet(values []string) map[string]bool {
	m := make(map[string]bool, len(values))
	for _, v := range values {
		m[v] = true
	}
	return m
}
