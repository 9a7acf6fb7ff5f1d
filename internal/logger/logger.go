package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

type ctxKey int

const (
	runIDKey ctxKey = iota
	paperIDKey
	stageKey
)

type implLogger struct {
	logger *slog.Logger
	level  string
}

// New creates a text Logger writing to stdout
func New(level string) Logger {
	return NewWithFormat(level, "text", os.Stdout)
}

// NewWithFormat creates a Logger with the given format ("text" or "json")
func NewWithFormat(level, format string, w io.Writer) Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelDebug}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &implLogger{
		logger: slog.New(handler),
		level:  NormalizeLevel(level),
	}
}

// WithRunID attaches the run identifier to every line logged with ctx
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// WithPaperID attaches the paper being processed
func WithPaperID(ctx context.Context, paperID string) context.Context {
	return context.WithValue(ctx, paperIDKey, paperID)
}

// WithStage attaches the pipeline stage
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

// NormalizeLevel lowercases level and maps the "warning" and "critical"
// spellings onto warn and error.
func NormalizeLevel(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	switch level {
	case "warning":
		return "warn"
	case "critical", "fatal":
		return "error"
	}
	return level
}

// ValidLevel reports whether level is one of debug, info, warn, error
// after normalization.
func ValidLevel(level string) bool {
	_, ok := levels[NormalizeLevel(level)]
	return ok
}

var levels = map[string]int{
	"debug": 0,
	"info":  1,
	"warn":  2,
	"error": 3,
}

func (l *implLogger) shouldLog(level string) bool {
	currentLevel, ok := levels[l.level]
	if !ok {
		currentLevel = 1 // default to info
	}

	targetLevel, ok := levels[level]
	if !ok {
		return true
	}

	return targetLevel >= currentLevel
}

func (l *implLogger) log(ctx context.Context, name string, level slog.Level, msg string, args []interface{}) {
	if !l.shouldLog(name) {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	l.logger.Log(ctx, level, msg, contextAttrs(ctx)...)
}

func contextAttrs(ctx context.Context) []any {
	var attrs []any
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		attrs = append(attrs, slog.String("run_id", v))
	}
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		attrs = append(attrs, slog.String("stage", v))
	}
	if v, ok := ctx.Value(paperIDKey).(string); ok && v != "" {
		attrs = append(attrs, slog.String("paper_id", v))
	}
	return attrs
}

func (l *implLogger) Debug(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, "debug", slog.LevelDebug, msg, args)
}

func (l *implLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, "info", slog.LevelInfo, msg, args)
}

func (l *implLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, "warn", slog.LevelWarn, msg, args)
}

func (l *implLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	l.log(ctx, "error", slog.LevelError, msg, args)
}

// Nop returns a Logger that discards everything
func Nop() Logger {
	return NewWithFormat("error", "text", io.Discard)
}
