// Package logging wires log/slog for the server and the CLI.
//
// Lines logged while serving a request carry chi's request id, so a
// support code returned to a client can be traced to the technical error.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Setup installs the default logger on stdout. Unknown levels fall back to
// info and unknown formats to text.
func Setup(level, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

// New builds a logger writing to w. The CLI logs to stderr so that
// normalized output on stdout stays clean.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// FromContext returns the default logger, tagged with request_id when ctx
// went through chi's RequestID middleware.
func FromContext(ctx context.Context) *slog.Logger {
	if id := middleware.GetReqID(ctx); id != "" {
		return slog.Default().With("request_id", id)
	}
	return slog.Default()
}

// WithFields is FromContext(ctx).With(args...).
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}

// BatchSummary logs the outcome of validating one sheet with the fields
// shared by the service and the CLI.
func BatchSummary(logger *slog.Logger, profile string, rows, valid, invalid int, elapsed time.Duration) {
	level := slog.LevelInfo
	if invalid > 0 {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, "batch validated",
		"profile", profile,
		"rows", rows,
		"valid", valid,
		"invalid", invalid,
		"duration_ms", elapsed.Milliseconds(),
	)
}
