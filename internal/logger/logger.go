package logger

import (
	"log/slog"
	"os"
)

// InitJSONLogger sets the default slog logger to emit JSON lines on stdout.
// Both marketplace binaries call it first thing in main so every log record,
// lifecycle or infrastructure, lands in the same structured stream.
func InitJSONLogger() {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
}
