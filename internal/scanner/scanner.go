// Package scanner walks input directories and feeds every eligible file
// through an extractor into a graph.Aggregator.
package scanner

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"eventgraph/internal/extract"
	"eventgraph/internal/graph"
)

const (
	DefaultDirConcurrency  = 4
	DefaultFileConcurrency = 16
)

var tracer = otel.Tracer("eventgraph/scanner")

// Options configures a Scanner.
type Options struct {
	Walk WalkOptions

	// DirConcurrency bounds how many directories are scanned at once.
	DirConcurrency int
	// FileConcurrency bounds how many files per directory are read at once.
	FileConcurrency int
}

// Scanner runs the scan phase of a graph build.
type Scanner struct {
	extractor extract.Extractor
	opts      Options
	logger    *slog.Logger
}

// New creates a scanner. Non-positive concurrency limits fall back to the
// defaults.
func New(ex extract.Extractor, opts Options, logger *slog.Logger) *Scanner {
	if opts.DirConcurrency <= 0 {
		opts.DirConcurrency = DefaultDirConcurrency
	}
	if opts.FileConcurrency <= 0 {
		opts.FileConcurrency = DefaultFileConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{extractor: ex, opts: opts, logger: logger}
}

// Scan records every occurrence found under dirs into agg. Files are
// identified by their path relative to the directory they were found in.
// Extraction runs concurrently; recording happens after every file has been
// extracted, in directory then walk order, so repeated runs over the same
// tree produce identical indexes. The first enumeration or read error
// cancels the remaining work and is returned with agg left untouched.
func (s *Scanner) Scan(ctx context.Context, dirs []string, agg *graph.Aggregator) error {
	ctx, span := tracer.Start(ctx, "scanner.Scan",
		trace.WithAttributes(attribute.Int("scan.dirs", len(dirs))))
	defer span.End()

	results := make([][]fileEvents, len(dirs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.DirConcurrency)
	for i, dir := range dirs {
		g.Go(func() error {
			found, err := s.scanDir(ctx, dir)
			results[i] = found
			return err
		})
	}
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	for _, found := range results {
		for _, f := range found {
			agg.RecordFile(f.rel, f.events.Sinks, f.events.Sources)
		}
	}
	return nil
}

type fileEvents struct {
	rel    string
	events extract.Events
}

func (s *Scanner) scanDir(ctx context.Context, dir string) ([]fileEvents, error) {
	ctx, span := tracer.Start(ctx, "scanner.scanDir",
		trace.WithAttributes(attribute.String("scan.dir", dir)))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	files, err := Walk(dir, s.opts.Walk)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("scan.files", len(files)))
	s.logger.Debug("scanning directory", slog.String("dir", dir), slog.Int("files", len(files)))

	found := make([]fileEvents, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.FileConcurrency)
	for i, rel := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ev, err := s.scanFile(dir, rel)
			if err != nil {
				return err
			}
			found[i] = fileEvents{rel: rel, events: ev}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return found, nil
}

func (s *Scanner) scanFile(dir, rel string) (extract.Events, error) {
	path := filepath.Join(dir, filepath.FromSlash(rel))
	src, err := os.ReadFile(path)
	if err != nil {
		return extract.Events{}, &ReadError{Path: path, Err: err}
	}
	return s.extractor.Extract(rel, src), nil
}
