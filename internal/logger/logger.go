// Package logger builds the process-wide structured logger from config.
package logger

import (
	"log/slog"
	"os"
	"strings"

	"github.com/laala-payout-service/internal/config"
)

// NewLogger creates a JSON slog.Logger at the configured level. Unknown or
// empty levels fall back to info. Source locations are only recorded at
// debug level to keep production log lines small.
func NewLogger(cfg *config.Config) *slog.Logger {
	level := parseLevel(cfg.Logging.Level)

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	})
	logger := slog.New(handler)

	logger.Info("logger initialized", "level", level)

	return logger
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
