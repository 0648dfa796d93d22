// Package extract recognises event subscription and emission call shapes in
// source text. Extractors only report literal event names; they never
// resolve identifiers or check that a match is a real call.
package extract

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Events holds the event names found in one file, in order of appearance.
type Events struct {
	Sinks   []string
	Sources []string
}

// Extractor finds sink and source declarations in a file. The path is only
// used to pick a grammar; it is never opened.
type Extractor interface {
	Extract(path string, src []byte) Events
}

// Patterns describes which calls count as declarations.
type Patterns struct {
	// SinkMethods are methods whose call with Target as first argument and a
	// string literal second declares a listener, as in .on(document, "x").
	SinkMethods []string
	// SourceMethods are methods whose call with a string literal first, or
	// Target then a string literal, declares an emitter, as in .trigger("x").
	SourceMethods []string
	Target        string
}

// DefaultPatterns matches the jQuery document event idiom.
func DefaultPatterns() Patterns {
	return Patterns{
		SinkMethods:   []string{"on"},
		SourceMethods: []string{"trigger"},
		Target:        "document",
	}
}

const (
	ExtractorRegex      = "regex"
	ExtractorTreeSitter = "treesitter"
)

// New builds the extractor named by kind.
func New(kind string, p Patterns) (Extractor, error) {
	switch strings.ToLower(kind) {
	case "", ExtractorRegex:
		return NewRegex(p)
	case ExtractorTreeSitter:
		return NewTreeSitter(p)
	default:
		return nil, fmt.Errorf("unknown extractor %q", kind)
	}
}

// languageFor maps a file extension to a tree-sitter grammar name.
func languageFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	case ".ts":
		return "typescript"
	case ".tsx":
		return "tsx"
	default:
		return ""
	}
}

func appendNonEmpty(dst []string, name string) []string {
	if name == "" {
		return dst
	}
	return append(dst, name)
}
