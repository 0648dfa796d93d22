package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventgraph/internal/extract"
	"eventgraph/internal/graph"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func newTestScanner(t *testing.T, opts Options) *Scanner {
	t.Helper()
	ex, err := extract.NewRegex(extract.DefaultPatterns())
	require.NoError(t, err)
	return New(ex, opts, nil)
}

func jsOnly() Options {
	return Options{Walk: WalkOptions{Extensions: []string{"js"}, RespectGitignore: true}}
}

func TestWalk_FiltersAndSorts(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"b.js":              "",
		"a/c.JS":            "",
		"a/d.ts":            "",
		".hidden/e.js":      "",
		".eslintrc.js":      "",
		"a/.local.js":       "",
		"vendor/f.js":       "",
		"build/g.js":        "",
		"notes.txt":         "",
		".gitignore":        "build/\n",
		"vendor/.gitignore": "ignored-only-at-root-level\n",
	})

	files, err := Walk(root, WalkOptions{Extensions: []string{".js"}, RespectGitignore: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"a/c.JS", "b.js", "vendor/f.js"}, files)

	files, err = Walk(root, WalkOptions{Extensions: []string{"js", ".ts"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a/c.JS", "a/d.ts", "b.js", "build/g.js", "vendor/f.js"}, files)
}

func TestWalk_MissingDirectory(t *testing.T) {
	_, err := Walk(filepath.Join(t.TempDir(), "nope"), WalkOptions{Extensions: []string{"js"}})
	var enumErr *EnumerationError
	require.ErrorAs(t, err, &enumErr)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestWalk_NotADirectory(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.js": ""})

	_, err := Walk(filepath.Join(root, "a.js"), WalkOptions{Extensions: []string{"js"}})
	var enumErr *EnumerationError
	assert.ErrorAs(t, err, &enumErr)
}

func TestScan_BuildsIndexes(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.js":     `$(x).trigger('ready'); $(x).trigger("x"); $(x).trigger('ready');`,
		"lib/b.js": `$.on(document, 'ready', f); $.on(document, 'x', g);`,
	})

	agg := graph.NewAggregator()
	require.NoError(t, newTestScanner(t, jsOnly()).Scan(context.Background(), []string{root}, agg))

	ix := agg.Snapshot()
	assert.Equal(t, []string{"ready", "x"}, ix.FileSources.Get("a.js"))
	assert.Equal(t, []string{"lib/b.js"}, ix.EventSinks.Get("ready"))

	res := graph.Build(ix, nil)
	require.Len(t, res.Edges, 1)
	assert.Equal(t, graph.Edge{Source: "a.js", Sink: "lib/b.js", Events: []string{"ready", "x"}}, res.Edges[0])
}

func TestScan_MultipleDirectories(t *testing.T) {
	emitters, listeners := t.TempDir(), t.TempDir()
	writeFiles(t, emitters, map[string]string{"emit.js": `el.trigger('saved')`})
	writeFiles(t, listeners, map[string]string{"listen.js": `$.on(document, 'saved', f)`})

	agg := graph.NewAggregator()
	s := newTestScanner(t, Options{
		Walk:            WalkOptions{Extensions: []string{"js"}},
		DirConcurrency:  1,
		FileConcurrency: 1,
	})
	require.NoError(t, s.Scan(context.Background(), []string{emitters, listeners}, agg))

	res := graph.Build(agg.Snapshot(), nil)
	require.Len(t, res.Edges, 1)
	assert.Equal(t, "emit.js", res.Edges[0].Source)
	assert.Equal(t, "listen.js", res.Edges[0].Sink)
}

func TestScan_NoDirectories(t *testing.T) {
	agg := graph.NewAggregator()
	require.NoError(t, newTestScanner(t, jsOnly()).Scan(context.Background(), nil, agg))
	assert.Zero(t, agg.Snapshot().FileSources.Len())
}

func TestScan_MissingDirectoryAborts(t *testing.T) {
	good := t.TempDir()
	writeFiles(t, good, map[string]string{"a.js": `el.trigger('x')`})

	agg := graph.NewAggregator()
	err := newTestScanner(t, jsOnly()).Scan(context.Background(), []string{good, filepath.Join(good, "missing")}, agg)

	var enumErr *EnumerationError
	require.ErrorAs(t, err, &enumErr)
	assert.Equal(t, filepath.Join(good, "missing"), enumErr.Dir)
}

func TestScan_CancelledContext(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"a.js": `el.trigger('x')`})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := newTestScanner(t, jsOnly()).Scan(ctx, []string{root}, graph.NewAggregator())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanFile_ReadError(t *testing.T) {
	root := t.TempDir()
	s := newTestScanner(t, jsOnly())

	_, err := s.scanFile(root, "gone.js")
	var readErr *ReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, filepath.Join(root, "gone.js"), readErr.Path)
}

func TestScan_UnreadableFileAborts(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced")
	}
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"a.js":      `el.trigger('x')`,
		"b.js":      `$.on(document, 'x', f)`,
		"locked.js": `el.trigger('y')`,
	})
	locked := filepath.Join(root, "locked.js")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { os.Chmod(locked, 0o644) })

	agg := graph.NewAggregator()
	err := newTestScanner(t, jsOnly()).Scan(context.Background(), []string{root}, agg)

	var readErr *ReadError
	require.ErrorAs(t, err, &readErr)
	assert.Equal(t, locked, readErr.Path)
	assert.ErrorIs(t, err, fs.ErrPermission)

	ix := agg.Snapshot()
	assert.Zero(t, ix.FileSinks.Len())
	assert.Zero(t, ix.FileSources.Len())
}

func TestScan_DeterministicOrder(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{"emit.js": `el.trigger('go')`}
	var want []string
	for _, name := range []string{"l0.js", "l1.js", "l2.js", "l3.js", "l4.js", "l5.js", "l6.js", "l7.js"} {
		files[name] = `$.on(document, 'go', f)`
		want = append(want, name)
	}
	writeFiles(t, root, files)

	for i := 0; i < 5; i++ {
		agg := graph.NewAggregator()
		require.NoError(t, newTestScanner(t, jsOnly()).Scan(context.Background(), []string{root}, agg))
		assert.Equal(t, want, agg.Snapshot().EventSinks.Get("go"))
	}
}

func TestNew_Defaults(t *testing.T) {
	s := newTestScanner(t, Options{})
	assert.Equal(t, DefaultDirConcurrency, s.opts.DirConcurrency)
	assert.Equal(t, DefaultFileConcurrency, s.opts.FileConcurrency)
}
