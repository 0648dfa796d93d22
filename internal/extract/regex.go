package extract

import (
	"errors"
	"regexp"
	"strings"
)

// Regex is the lexical extractor. Each call shape is matched lazily up to the
// first closing parenthesis on the same line, then the event name is pulled
// from the quoted argument.
type Regex struct {
	sinkCall   *regexp.Regexp
	sourceCall *regexp.Regexp
	targetArg  *regexp.Regexp
	firstArg   *regexp.Regexp
}

// NewRegex compiles the patterns for p.
func NewRegex(p Patterns) (*Regex, error) {
	if len(p.SinkMethods) == 0 || len(p.SourceMethods) == 0 {
		return nil, errors.New("extract: sink and source methods are required")
	}
	if p.Target == "" {
		return nil, errors.New("extract: listen target is required")
	}
	target := regexp.QuoteMeta(p.Target)

	sinkCall, err := regexp.Compile(`\.` + alternation(p.SinkMethods) + `\(` + target + `, .*?\)`)
	if err != nil {
		return nil, err
	}
	sourceCall, err := regexp.Compile(`\.` + alternation(p.SourceMethods) + `\(.*?\)`)
	if err != nil {
		return nil, err
	}
	return &Regex{
		sinkCall:   sinkCall,
		sourceCall: sourceCall,
		targetArg:  regexp.MustCompile(target + `, ['"](.*?)['"]`),
		firstArg:   regexp.MustCompile(`\(['"](.*?)['"]`),
	}, nil
}

func (r *Regex) Extract(_ string, src []byte) Events {
	var ev Events
	for _, call := range r.sinkCall.FindAll(src, -1) {
		if m := r.targetArg.FindSubmatch(call); m != nil {
			ev.Sinks = appendNonEmpty(ev.Sinks, string(m[1]))
		}
	}
	for _, call := range r.sourceCall.FindAll(src, -1) {
		m := r.targetArg.FindSubmatch(call)
		if m == nil {
			m = r.firstArg.FindSubmatch(call)
		}
		if m != nil {
			ev.Sources = appendNonEmpty(ev.Sources, string(m[1]))
		}
	}
	return ev
}

func alternation(methods []string) string {
	quoted := make([]string, len(methods))
	for i, m := range methods {
		quoted[i] = regexp.QuoteMeta(m)
	}
	return "(?:" + strings.Join(quoted, "|") + ")"
}
