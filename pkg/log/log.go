package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Level represents log levels
type Level string

// Log levels
const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Format represents log output format
type Format string

// Log formats
const (
	TextFormat Format = "text"
	JSONFormat Format = "json"
)

// Config holds configuration for the logger
type Config struct {
	// Level is the minimum log level that will be output
	Level Level `yaml:"level"`

	// Format specifies the output format (text or json)
	Format Format `yaml:"format"`
}

// DefaultConfig returns the default logging configuration
func DefaultConfig() Config {
	return Config{
		Level:  InfoLevel,
		Format: TextFormat,
	}
}

// contextKey is a private type for context keys
type contextKey int

const (
	// loggerKey is the key for storing the logger in a context
	loggerKey contextKey = iota
)

// parseLevel converts a configured level string to a slog level.
func parseLevel(l Level) slog.Level {
	switch strings.ToLower(string(l)) {
	case string(DebugLevel):
		return slog.LevelDebug
	case string(InfoLevel):
		return slog.LevelInfo
	case string(WarnLevel):
		return slog.LevelWarn
	case string(ErrorLevel):
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Setup initializes the global logger with the given configuration
func Setup(cfg Config) *slog.Logger {
	logger := SetupWithOutput(cfg, os.Stdout)
	slog.SetDefault(logger)
	return logger
}

// SetupWithOutput is like Setup but allows specifying the output destination
func SetupWithOutput(cfg Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	switch strings.ToLower(string(cfg.Format)) {
	case string(JSONFormat):
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger from the context
// If no logger is found, it returns the default logger
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithMemory returns a logger with the memory store name attached
func WithMemory(logger *slog.Logger, name string) *slog.Logger {
	return logger.With(slog.String("memory", name))
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	slog.Debug(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	slog.Info(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	slog.Warn(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	slog.Error(msg, args...)
}

// DebugContext logs a debug message with context
func DebugContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Debug(msg, args...)
}

// InfoContext logs an info message with context
func InfoContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Info(msg, args...)
}

// WarnContext logs a warning message with context
func WarnContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Warn(msg, args...)
}

// ErrorContext logs an error message with context
func ErrorContext(ctx context.Context, msg string, args ...any) {
	FromContext(ctx).Error(msg, args...)
}
