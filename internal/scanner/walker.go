package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// WalkOptions controls which files under a root are eligible for scanning.
type WalkOptions struct {
	// Extensions are matched case-insensitively, with or without the dot.
	Extensions []string
	// RespectGitignore skips paths matched by the root's .gitignore.
	RespectGitignore bool
}

// Walk returns the slash-separated paths, relative to root, of every file
// eligible for scanning, sorted. Hidden directories and files are skipped.
func Walk(root string, opts WalkOptions) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &EnumerationError{Dir: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &EnumerationError{Dir: root, Err: errors.New("not a directory")}
	}

	allowed := normalizeExtensions(opts.Extensions)
	if len(allowed) == 0 {
		return nil, nil
	}

	var matcher *ignore.GitIgnore
	if opts.RespectGitignore {
		matcher, err = loadGitignore(root)
		if err != nil {
			return nil, &EnumerationError{Dir: root, Err: err}
		}
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			if matcher != nil && matcher.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		if _, ok := allowed[strings.ToLower(filepath.Ext(rel))]; !ok {
			return nil
		}
		if matcher != nil && matcher.MatchesPath(rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, &EnumerationError{Dir: root, Err: err}
	}

	sort.Strings(files)
	return files, nil
}

func loadGitignore(root string) (*ignore.GitIgnore, error) {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	m, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return m, nil
}

func normalizeExtensions(exts []string) map[string]struct{} {
	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = struct{}{}
	}
	return allowed
}
