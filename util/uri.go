package util

import (
	"path/filepath"
	"strings"
)

const fileScheme = "file://"

// PathToURI returns the file:// URI of path, made absolute when possible.
func PathToURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return fileScheme + filepath.ToSlash(path)
}

// URIToPath strips a file:// scheme. Anything else is returned unchanged so
// callers can accept plain paths and URIs alike.
func URIToPath(uri string) string {
	if rest, ok := strings.CutPrefix(uri, fileScheme); ok {
		return filepath.FromSlash(rest)
	}
	return uri
}
