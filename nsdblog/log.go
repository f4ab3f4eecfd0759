// Package nsdblog configures the process-wide structured logger, the same
// way the teacher's util.InitSlog configures slog from LOG_LEVEL.
package nsdblog

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures slog based on the NSDB_LOG_LEVEL environment variable.
// Supported levels: debug, info, warn, error. Unset or unrecognized
// values default to info.
func Init() {
	level := slog.LevelInfo
	if raw, ok := os.LookupEnv("NSDB_LOG_LEVEL"); ok {
		switch strings.ToLower(raw) {
		case "debug":
			level = slog.LevelDebug
		case "info":
			level = slog.LevelInfo
		case "warn":
			level = slog.LevelWarn
		case "error":
			level = slog.LevelError
		}
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}
