package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const configFileName = "config.yaml"

// GetHome returns the directory holding the eventgraph config file.
// Priority: $EVENTGRAPH_HOME -> $XDG_CONFIG_HOME/eventgraph -> ~/.config/eventgraph (Unix) / %APPDATA%\eventgraph (Windows)
func GetHome() (string, error) {
	if home := os.Getenv("EVENTGRAPH_HOME"); home != "" {
		return home, nil
	}

	if runtime.GOOS != "windows" {
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			return filepath.Join(xdgConfig, "eventgraph"), nil
		}
	}

	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		return filepath.Join(userHome, "AppData", "Roaming", "eventgraph"), nil
	default:
		return filepath.Join(userHome, ".config", "eventgraph"), nil
	}
}

// DefaultConfigPath returns the config file used when none is given.
// $EVENTGRAPH_CONFIG wins over the home directory.
func DefaultConfigPath() (string, error) {
	if path := os.Getenv("EVENTGRAPH_CONFIG"); path != "" {
		return path, nil
	}
	home, err := GetHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}
