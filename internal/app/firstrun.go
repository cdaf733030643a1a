package app

import (
	"log/slog"
	"os"
	"path/filepath"
)

const (
	markerFileName = "first_run_completed"
	appName        = "snowspectre"
)

// ConfigDir returns the per-user configuration directory for the tool.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, appName), nil
}

// IsFirstRun reports whether the tool has never completed a run on this
// machine, creating the marker file as a side effect. Errors are treated
// as "not first run".
func IsFirstRun() bool {
	dir, err := ConfigDir()
	if err != nil {
		slog.Error("failed to resolve config directory", slog.String("error", err.Error()))
		return false
	}

	marker := filepath.Join(dir, markerFileName)

	_, err = os.Stat(marker)
	switch {
	case err == nil:
		slog.Debug("marker file exists, not first run", slog.String("path", marker))
		return false
	case !os.IsNotExist(err):
		slog.Error("failed to check first run marker", slog.String("path", marker), slog.String("error", err.Error()))
		return false
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("failed to create config directory", slog.String("path", dir), slog.String("error", err.Error()))
		return false
	}
	file, err := os.Create(marker)
	if err != nil {
		slog.Error("failed to create first run marker", slog.String("path", marker), slog.String("error", err.Error()))
		return false
	}
	file.Close()

	slog.Debug("first run detected", slog.String("path", marker))
	return true
}
