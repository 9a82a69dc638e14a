package logging

import (
	"log/slog"
	"os"
	"strings"
)

// Init configures the global slog logger.
// In production (ENV=production) it uses JSON output for log aggregation.
// Otherwise it uses the human-readable text handler.
func Init() {
	env := strings.ToLower(os.Getenv("ENV"))

	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithTool returns a logger with tool invocation fields attached.
// Use this for all logging within a single execution.
func WithTool(executionID, tool string) *slog.Logger {
	return slog.With(
		"execution_id", executionID,
		"tool", tool,
	)
}

// WithRequest returns a logger scoped to an HTTP request.
func WithRequest(logger *slog.Logger, method, path string) *slog.Logger {
	return logger.With(
		"method", method,
		"path", path,
	)
}
