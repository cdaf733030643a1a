package logging

import (
	"log/slog"
	"os"
)

// Init configures the default slog logger. Normal runs only surface
// warnings so report output stays clean; verbose runs log everything.
func Init(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
