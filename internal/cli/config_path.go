package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"stepgrade/internal/config"
)

// resolveConfigPath makes an explicit path absolute or searches upward from CWD.
func resolveConfigPath(configPath string) (string, error) {
	if strings.TrimSpace(configPath) == "" {
		return config.FindConfigPath("")
	}
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return abs, nil
}

// loadConfig resolves, loads and validates the config. It returns the config
// and the workspace root relative paths resolve against.
func loadConfig(configPath string) (config.Config, string, error) {
	path, err := resolveConfigPath(configPath)
	if err != nil {
		return config.Config{}, "", err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, "", err
	}
	return cfg, config.RepoRootFromConfigPath(path), nil
}
