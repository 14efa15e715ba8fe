package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type ResolvedPaths struct {
	ProjectRoot string
	// Output is empty when the program goes to stdout.
	Output      string
	HistoryPath string
}

// ResolvePaths anchors the project root at the config file's directory and
// everything else at the project root.
func ResolvePaths(cfg *Config, configDir string) (ResolvedPaths, error) {
	if strings.TrimSpace(configDir) == "" {
		return ResolvedPaths{}, fmt.Errorf("config dir must not be empty")
	}
	root := ResolveRelative(configDir, cfg.ProjectRoot)
	resolved := ResolvedPaths{
		ProjectRoot: root,
		HistoryPath: ResolveRelative(root, cfg.History.Path),
	}
	if !cfg.WritesStdout() {
		resolved.Output = ResolveRelative(root, cfg.Output)
	}
	return resolved, nil
}

func ResolveRelative(base, value string) string {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return filepath.Clean(base)
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw)
	}
	return filepath.Clean(filepath.Join(base, raw))
}

// FindConfig walks up from dir looking for cjsflat.toml. ok is false when
// none exists up to the filesystem root.
func FindConfig(dir string) (string, bool) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", false
	}
	for {
		candidate := filepath.Join(abs, DefaultFile)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(abs)
		if parent == abs {
			return "", false
		}
		abs = parent
	}
}
