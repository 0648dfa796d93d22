// Package telemetry configures OpenTelemetry tracing for a run.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ErrUnknownExporter is returned for an unsupported EVENTGRAPH_TRACE value.
var ErrUnknownExporter = errors.New("unknown trace exporter")

// Setup installs a global tracer provider according to exporter. An empty
// exporter or "none" leaves the no-op provider in place. "stdout" and
// "stderr" pretty-print spans to w (stderr when w is nil) so they never mix
// with the graph on stdout unless asked to. The returned shutdown function
// flushes pending spans.
func Setup(exporter string, w io.Writer) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	switch exporter {
	case "", "none":
		return noop, nil
	case "stdout", "stderr":
	default:
		return noop, fmt.Errorf("%w: %s", ErrUnknownExporter, exporter)
	}

	if w == nil {
		w = os.Stderr
	}
	exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
	if err != nil {
		return noop, fmt.Errorf("create exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}
