package config

import (
	"fmt"
	"os"
	"path/filepath"
)

var toolsFileNames = []string{"tools.json", "tools.yaml", "tools.yml", "tools.toml"}

// ResolveToolsPath returns the tools file to load. An explicit path must
// exist. Otherwise the directories from cwd up to the enclosing repository
// root (the first directory holding .git) are searched for a tools file.
func ResolveToolsPath(explicit, cwd string) (string, error) {
	if explicit != "" {
		path := explicit
		if !filepath.IsAbs(path) {
			path = filepath.Join(cwd, path)
		}
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("configuration file not found: %s", path)
		}
		return path, nil
	}

	abs, err := filepath.Abs(cwd)
	if err != nil {
		return "", err
	}
	dir := abs
	for {
		for _, name := range toolsFileNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("configuration file not found: %s", filepath.Join(abs, toolsFileNames[0]))
}
