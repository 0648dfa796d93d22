// Package store exports a built event graph to a SQLite database so it can
// be queried with ordinary SQL. The database is recreated on every export
// and never read back by eventgraph.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	_ "github.com/mattn/go-sqlite3"

	"eventgraph/internal/graph"
)

const schema = `
CREATE TABLE occurrences (
	file  TEXT NOT NULL,
	event TEXT NOT NULL,
	kind  TEXT NOT NULL CHECK (kind IN ('sink', 'source')),
	PRIMARY KEY (file, event, kind)
);
CREATE TABLE edges (
	source   TEXT NOT NULL,
	sink     TEXT NOT NULL,
	event    TEXT NOT NULL,
	position INTEGER NOT NULL,
	PRIMARY KEY (source, sink, event)
);
CREATE INDEX edges_sink ON edges (sink);
CREATE INDEX occurrences_event ON occurrences (event, kind);
`

// Export writes res to a fresh SQLite database at path, replacing any
// existing file.
func Export(ctx context.Context, path string, res *graph.Result) error {
	if path == "" {
		return errors.New("store: output path is required")
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("store: remove existing database: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("store: open %s: %w", path, err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("store: create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	if err := insertOccurrences(ctx, tx, res.Indexes); err != nil {
		return err
	}
	if err := insertEdges(ctx, tx, res.Edges); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

func insertOccurrences(ctx context.Context, tx *sql.Tx, ix *graph.Indexes) error {
	if ix == nil {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO occurrences (file, event, kind) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare occurrences: %w", err)
	}
	defer stmt.Close()

	for _, o := range ix.Occurrences() {
		if _, err := stmt.ExecContext(ctx, o.File, o.Event, o.Kind.String()); err != nil {
			return fmt.Errorf("store: insert occurrence %s/%s: %w", o.File, o.Event, err)
		}
	}
	return nil
}

func insertEdges(ctx context.Context, tx *sql.Tx, edges []graph.Edge) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO edges (source, sink, event, position) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare edges: %w", err)
	}
	defer stmt.Close()

	for _, e := range edges {
		for i, ev := range e.Events {
			if _, err := stmt.ExecContext(ctx, e.Source, e.Sink, ev, i); err != nil {
				return fmt.Errorf("store: insert edge %s -> %s: %w", e.Source, e.Sink, err)
			}
		}
	}
	return nil
}
