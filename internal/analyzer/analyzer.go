// Package analyzer runs one full scan-then-synthesize cycle.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"eventgraph/internal/config"
	"eventgraph/internal/extract"
	"eventgraph/internal/graph"
	"eventgraph/internal/scanner"
)

var tracer = otel.Tracer("eventgraph/analyzer")

// Analyzer builds event graphs with a fixed configuration. It holds no state
// between runs and is safe for concurrent use.
type Analyzer struct {
	extractor extract.Extractor
	scanner   *scanner.Scanner
	ignore    []string
	logger    *slog.Logger
}

// New creates an analyzer from a validated configuration.
func New(cfg config.Config, logger *slog.Logger) (*Analyzer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ex, err := extract.New(cfg.Extractor, cfg.Patterns())
	if err != nil {
		return nil, fmt.Errorf("create extractor: %w", err)
	}
	return &Analyzer{
		extractor: ex,
		scanner:   scanner.New(ex, cfg.ScanOptions(), logger),
		ignore:    cfg.IgnoreEvents,
		logger:    logger,
	}, nil
}

// Close releases extractor resources.
func (a *Analyzer) Close() {
	if c, ok := a.extractor.(interface{ Close() }); ok {
		c.Close()
	}
}

// Run scans dirs and synthesizes the graph. ignore is merged with the
// configured ignore list. On any scan error no result is returned.
func (a *Analyzer) Run(ctx context.Context, dirs []string, ignore []string) (*graph.Result, error) {
	ctx, span := tracer.Start(ctx, "analyzer.Run",
		trace.WithAttributes(attribute.StringSlice("dirs", dirs)))
	defer span.End()

	start := time.Now()
	agg := graph.NewAggregator()
	if err := a.scanner.Scan(ctx, dirs, agg); err != nil {
		return nil, err
	}
	ix := agg.Snapshot()

	_, synth := tracer.Start(ctx, "analyzer.synthesize")
	ignoreSet := graph.NewIgnoreSet(append(append([]string(nil), a.ignore...), ignore...)...)
	res := graph.Build(ix, ignoreSet)
	synth.SetAttributes(attribute.Int("edges", len(res.Edges)))
	synth.End()

	a.logger.Info("graph built",
		slog.Int("dirs", len(dirs)),
		slog.Int("files", len(ix.Files())),
		slog.Int("edges", len(res.Edges)),
		slog.Int("unresolved", len(res.Unresolved)),
		slog.Duration("elapsed", time.Since(start)))
	return res, nil
}
