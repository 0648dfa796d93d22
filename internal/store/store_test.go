package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventgraph/internal/graph"
)

func buildResult() *graph.Result {
	agg := graph.NewAggregator()
	agg.Record("a.js", "x", graph.Source)
	agg.Record("a.js", "y", graph.Source)
	agg.Record("a.js", "orphan", graph.Source)
	agg.Record("b.js", "x", graph.Sink)
	agg.Record("b.js", "y", graph.Sink)
	return graph.Build(agg.Snapshot(), nil)
}

func TestExport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")
	require.NoError(t, Export(context.Background(), path, buildResult()))

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var occurrences int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM occurrences`).Scan(&occurrences))
	assert.Equal(t, 5, occurrences)

	rows, err := db.Query(`SELECT source, sink, event FROM edges ORDER BY position`)
	require.NoError(t, err)
	defer rows.Close()

	var got [][3]string
	for rows.Next() {
		var r [3]string
		require.NoError(t, rows.Scan(&r[0], &r[1], &r[2]))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, [][3]string{{"a.js", "b.js", "x"}, {"a.js", "b.js", "y"}}, got)
}

func TestExport_ReplacesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.db")
	require.NoError(t, os.WriteFile(path, []byte("not a database"), 0o644))

	require.NoError(t, Export(context.Background(), path, buildResult()))
	require.NoError(t, Export(context.Background(), path, buildResult()))
}

func TestExport_RequiresPath(t *testing.T) {
	assert.Error(t, Export(context.Background(), "", buildResult()))
}
