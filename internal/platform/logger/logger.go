package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. JSON output so log
// aggregation can index the audit and request_id attributes.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// NewNop returns a logger that discards everything; for tests.
func NewNop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
