package graph

// IgnoreSet holds event names excluded from edge derivation.
type IgnoreSet map[string]struct{}

// NewIgnoreSet builds an ignore set from names. Duplicates are harmless.
func NewIgnoreSet(names ...string) IgnoreSet {
	s := make(IgnoreSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s IgnoreSet) Contains(event string) bool {
	_, ok := s[event]
	return ok
}

type edgeKey struct {
	source string
	sink   string
}

// Edges is the ordered edge map produced by Synthesize. Edges iterate in the
// order their (source, sink) pair was first created.
type Edges struct {
	keys   []edgeKey
	labels map[edgeKey]*OrderedSet
}

func newEdges() *Edges {
	return &Edges{labels: make(map[edgeKey]*OrderedSet)}
}

func (e *Edges) add(source, sink, event string) {
	k := edgeKey{source: source, sink: sink}
	s, ok := e.labels[k]
	if !ok {
		s = NewOrderedSet()
		e.labels[k] = s
		e.keys = append(e.keys, k)
	}
	s.Add(event)
}

func (e *Edges) Len() int {
	return len(e.keys)
}

// Events returns the labels of the edge source -> sink, or nil.
func (e *Edges) Events(source, sink string) []string {
	s, ok := e.labels[edgeKey{source: source, sink: sink}]
	if !ok {
		return nil
	}
	return s.Values()
}

// List returns the edges in creation order.
func (e *Edges) List() []Edge {
	out := make([]Edge, 0, len(e.keys))
	for _, k := range e.keys {
		out = append(out, Edge{
			Source: k.source,
			Sink:   k.sink,
			Events: e.labels[k].Values(),
		})
	}
	return out
}

// Synthesize derives file-to-file edges. For every file in sources and every
// event it emits that is not ignored, it links the file to each file that
// sinks lists for the event. Events without sinks are dropped.
func Synthesize(sources, sinks *Index, ignore IgnoreSet) *Edges {
	edges := newEdges()
	sources.each(func(file string, events []string) {
		for _, e := range events {
			if ignore.Contains(e) {
				continue
			}
			listeners, ok := sinks.sets[e]
			if !ok {
				continue
			}
			for _, sink := range listeners.items {
				edges.add(file, sink, e)
			}
		}
	})
	return edges
}

// Unresolved lists the source occurrences whose event has no sink, skipping
// ignored events.
func Unresolved(sources, sinks *Index, ignore IgnoreSet) []Occurrence {
	var out []Occurrence
	sources.each(func(file string, events []string) {
		for _, e := range events {
			if ignore.Contains(e) {
				continue
			}
			if s, ok := sinks.sets[e]; ok && s.Len() > 0 {
				continue
			}
			out = append(out, Occurrence{File: file, Event: e, Kind: Source})
		}
	})
	return out
}

// Result bundles everything a renderer or exporter needs from one run.
type Result struct {
	Indexes    *Indexes
	Edges      []Edge
	Unresolved []Occurrence
}

// Build runs synthesis over frozen indexes.
func Build(ix *Indexes, ignore IgnoreSet) *Result {
	return &Result{
		Indexes:    ix,
		Edges:      Synthesize(ix.FileSources, ix.EventSinks, ignore).List(),
		Unresolved: Unresolved(ix.FileSources, ix.EventSinks, ignore),
	}
}
