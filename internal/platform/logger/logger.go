// Package logger configures the process-wide structured logger and carries
// request-scoped loggers through context.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/phrazzld/registrar-api/internal/config"
)

// Setup builds the application's slog logger from the server configuration
// and installs it as the process default. Output is JSON on stdout.
func Setup(cfg config.ServerConfig) (*slog.Logger, error) {
	level, ok := parseLevel(cfg.LogLevel)
	if !ok {
		level = slog.LevelInfo
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Warn(
			"unrecognized log level, falling back to info",
			slog.String("configured_level", cfg.LogLevel))
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return logger, nil
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
