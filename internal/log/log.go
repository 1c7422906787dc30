package log

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs the default slog logger. Level is one of DEBUG, INFO, WARN,
// ERROR; anything else falls back to INFO. Dev environments get a text
// handler, everything else JSON.
func Setup(level, appEnv string) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	if appEnv == "dev" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
