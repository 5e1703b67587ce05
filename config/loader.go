package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// expandPath resolves paths like "~/" to the user's home directory.
func expandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := osUserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not get user home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// getConfigPath constructs the full path to a config file in
// ~/Paginator/config.
func getConfigPath(filename string) (string, error) {
	return expandPath(filepath.Join("~/Paginator/config", filename))
}
