package graph

import "fmt"

// Kind is the role a file declares for an event.
type Kind int

const (
	Sink   Kind = iota // the file listens for the event
	Source             // the file emits the event
)

const (
	KindSink   = "sink"
	KindSource = "source"
)

func (k Kind) String() string {
	switch k {
	case Sink:
		return KindSink
	case Source:
		return KindSource
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	if k != Sink && k != Source {
		return nil, fmt.Errorf("unknown kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case KindSink:
		*k = Sink
	case KindSource:
		*k = Source
	default:
		return fmt.Errorf("unknown kind %q", string(b))
	}
	return nil
}

// Occurrence is a single (file, event, role) declaration found by an extractor.
type Occurrence struct {
	File  string `json:"file"`
	Event string `json:"event"`
	Kind  Kind   `json:"kind"`
}

// Edge connects a file emitting events to a file listening for them.
type Edge struct {
	Source string   `json:"source"`
	Sink   string   `json:"sink"`
	Events []string `json:"events"`
}
