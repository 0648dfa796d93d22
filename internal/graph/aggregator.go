package graph

import "sync"

// Aggregator accumulates occurrences from every scanned file into four
// indexes: event -> files and file -> events, one pair per Kind.
//
// Record is safe for concurrent use. Once Snapshot has been called the
// aggregator is frozen and further Record calls panic.
type Aggregator struct {
	mu     sync.Mutex
	frozen bool

	byEvent [2]*Index
	byFile  [2]*Index
}

// NewAggregator creates an aggregator with empty indexes.
func NewAggregator() *Aggregator {
	return &Aggregator{
		byEvent: [2]*Index{NewIndex(), NewIndex()},
		byFile:  [2]*Index{NewIndex(), NewIndex()},
	}
}

// Record folds one occurrence into the indexes. Recording the same triple
// twice has no further effect. Any string, including "", is a valid event.
func (a *Aggregator) Record(file, event string, kind Kind) {
	if kind != Sink && kind != Source {
		panic("graph: record with unknown kind " + kind.String())
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.frozen {
		panic("graph: record after snapshot")
	}
	a.byEvent[kind].add(event, file)
	a.byFile[kind].add(file, event)
}

// RecordFile records every sink and source event found in a single file.
func (a *Aggregator) RecordFile(file string, sinks, sources []string) {
	for _, e := range sinks {
		a.Record(file, e, Sink)
	}
	for _, e := range sources {
		a.Record(file, e, Source)
	}
}

// Snapshot freezes the aggregator and returns a read-only view of its
// indexes. It may be called more than once.
func (a *Aggregator) Snapshot() *Indexes {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.frozen = true
	return &Indexes{
		EventSinks:   a.byEvent[Sink],
		EventSources: a.byEvent[Source],
		FileSinks:    a.byFile[Sink],
		FileSources:  a.byFile[Source],
	}
}

// Indexes is the frozen result of a scan. Callers must not mutate it.
type Indexes struct {
	EventSinks   *Index // event -> files listening for it
	EventSources *Index // event -> files emitting it
	FileSinks    *Index // file -> events it listens for
	FileSources  *Index // file -> events it emits
}

// ByEvent returns the event-keyed index for kind.
func (ix *Indexes) ByEvent(kind Kind) *Index {
	if kind == Sink {
		return ix.EventSinks
	}
	return ix.EventSources
}

// ByFile returns the file-keyed index for kind.
func (ix *Indexes) ByFile(kind Kind) *Index {
	if kind == Sink {
		return ix.FileSinks
	}
	return ix.FileSources
}

// Files returns every file that emits or listens for at least one event,
// listeners first, each once.
func (ix *Indexes) Files() []string {
	files := NewOrderedSet()
	for _, f := range ix.FileSinks.keys {
		files.Add(f)
	}
	for _, f := range ix.FileSources.keys {
		files.Add(f)
	}
	return files.items
}

// Occurrences lists every recorded occurrence, sinks first, in file order.
func (ix *Indexes) Occurrences() []Occurrence {
	var out []Occurrence
	for _, kind := range []Kind{Sink, Source} {
		ix.ByFile(kind).each(func(file string, events []string) {
			for _, e := range events {
				out = append(out, Occurrence{File: file, Event: e, Kind: kind})
			}
		})
	}
	return out
}
