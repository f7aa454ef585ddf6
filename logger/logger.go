// Package logger is the structured logging setup shared by the engine and the
// command line tools.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel reads a level name as given on the command line.
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToLower(name) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", name)
}

type Config struct {
	Level     LogLevel
	Format    string // "text" or "json"
	Output    io.Writer
	AddSource bool
	LogFile   string
}

func DefaultConfig() Config {
	return Config{
		Level:     LevelWarn,
		Format:    "text",
		Output:    os.Stderr,
		AddSource: false,
	}
}

// Init replaces the package logger and slog's default.
func Init(cfg Config) error {
	var handler slog.Handler

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}
	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		output = file
	}

	opts := &slog.HandlerOptions{
		Level:     toSlogLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)

	return nil
}

// InitDev logs everything, with source locations, to stderr.
func InitDev() {
	_ = Init(Config{
		Level:     LevelDebug,
		Format:    "text",
		Output:    os.Stderr,
		AddSource: true,
	})
}

func toSlogLevel(level LogLevel) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func Debug(msg string, args ...any) {
	if defaultLogger != nil {
		defaultLogger.Debug(msg, args...)
	}
}

func Info(msg string, args ...any) {
	if defaultLogger != nil {
		defaultLogger.Info(msg, args...)
	}
}

func Warn(msg string, args ...any) {
	if defaultLogger != nil {
		defaultLogger.Warn(msg, args...)
	}
}

func Error(msg string, args ...any) {
	if defaultLogger != nil {
		defaultLogger.Error(msg, args...)
	}
}

// With returns a logger carrying the given attributes.
func With(args ...any) *slog.Logger {
	if defaultLogger != nil {
		return defaultLogger.With(args...)
	}
	return slog.Default().With(args...)
}

// Grading helpers

// LogTransition records a step of the evaluation state machine.
func LogTransition(question string, from, to fmt.Stringer) {
	Debug("Evaluation transition", "question", question, "from", from.String(), "to", to.String())
}

// LogCase records the outcome of one test case.
func LogCase(question string, index int, passed bool, fault string) {
	if fault != "" {
		Debug("Test case faulted", "question", question, "case", index, "fault", fault)
		return
	}
	Debug("Test case complete", "question", question, "case", index, "passed", passed)
}

// LogReferenceFailure records a reference solution that does not run.
func LogReferenceFailure(question string, err error) {
	Warn("Reference solution failed", "question", question, "error", err)
}

// LogVerdict records the final grading result.
func LogVerdict(question string, status string, score float64, level string) {
	Info("Evaluation complete", "question", question, "status", status, "score", score, "level", level)
}
