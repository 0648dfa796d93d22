package util

import (
	"os"
	"path/filepath"
)

// FindGitRoot walks up from the working directory looking for a .git entry.
// The working directory itself is returned when none is found.
func FindGitRoot() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return gitRootFrom(cwd), nil
}

func gitRootFrom(start string) string {
	for dir := start; ; {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return start
		}
		dir = parent
	}
}
