// Package logging builds the application's slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"medinsight/internal/config"
)

// NewLogger returns a text logger on stdout in development and test, and a
// JSON logger writing to stdout and a rotated file in production.
func NewLogger(cfg *config.Config) *slog.Logger {
	return NewLoggerWithWriter(cfg, os.Stdout)
}

// NewLoggerWithWriter is NewLogger with an explicit console writer.
func NewLoggerWithWriter(cfg *config.Config, console io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(string(cfg.LogLevel))}

	if !cfg.IsProduction() {
		return slog.New(slog.NewTextHandler(console, opts))
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Join(cfg.LogsDirectory, cfg.AppName+".log"),
		MaxSize:    cfg.LogsMaxSizeInMb,
		MaxBackups: cfg.LogsMaxBackups,
		MaxAge:     cfg.LogsMaxAgeInDays,
		Compress:   true,
	}
	return slog.New(slog.NewJSONHandler(io.MultiWriter(console, file), opts)).
		With(slog.String("app", cfg.AppName))
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case string(config.LogLevelDebug):
		return slog.LevelDebug
	case string(config.LogLevelWarn), "warning":
		return slog.LevelWarn
	case string(config.LogLevelError):
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
