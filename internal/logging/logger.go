// README: Structured JSON logger shared by the HTTP layer and services.
package logging

import (
	"log/slog"
	"os"
	"strings"
)

// New builds the process-wide slog logger. Level is one of debug, info,
// warn, error; anything else falls back to info.
func New(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	return slog.New(h)
}
