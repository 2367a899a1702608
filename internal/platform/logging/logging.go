package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	Level      zerolog.Level
	Format     string // "json" or "console"
	TimeFormat string
	// Levels, when set, is the live level of the logger. Level is stored
	// into it by New.
	Levels *LevelVar
}

func DefaultConfig() Config {
	return Config{
		Level:      zerolog.InfoLevel,
		Format:     "console",
		TimeFormat: time.RFC3339,
	}
}

// LevelVar is a minimum log level that can change while loggers built on it
// are in use.
type LevelVar struct {
	level atomic.Int32
}

func NewLevelVar(level zerolog.Level) *LevelVar {
	v := &LevelVar{}
	v.Set(level)
	return v
}

func (v *LevelVar) Set(level zerolog.Level) { v.level.Store(int32(level)) }

func (v *LevelVar) Level() zerolog.Level { return zerolog.Level(v.level.Load()) }

// levelFilter drops events below the current level of a LevelVar.
type levelFilter struct {
	out    io.Writer
	levels *LevelVar
}

func (f levelFilter) Write(p []byte) (int, error) {
	return f.out.Write(p)
}

func (f levelFilter) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	if level < f.levels.Level() {
		return len(p), nil
	}
	return f.out.Write(p)
}

// New creates a zerolog logger writing to out (stderr when nil). The logger
// itself accepts every level; filtering happens in the writer so the level
// can be raised or lowered later through cfg.Levels.
func New(cfg Config, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}
	if cfg.Format == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: cfg.TimeFormat}
	}
	levels := cfg.Levels
	if levels == nil {
		levels = &LevelVar{}
	}
	levels.Set(cfg.Level)
	return zerolog.New(levelFilter{out: out, levels: levels}).
		Level(zerolog.TraceLevel).
		With().
		Timestamp().
		Logger()
}

// NewFromValues builds a logger from the string values found in config files
// and returns the LevelVar that controls it. Unknown levels fall back to info,
// unknown formats to console.
func NewFromValues(level, format string, out io.Writer) (zerolog.Logger, *LevelVar) {
	cfg := DefaultConfig()
	cfg.Level = ParseLevel(level)
	cfg.Levels = &LevelVar{}
	if format == "json" {
		cfg.Format = format
	}
	return New(cfg, out), cfg.Levels
}

func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// FromContext extracts the logger from context.
// If no logger is found, returns a disabled logger (no-op).
func FromContext(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

func WithContext(ctx context.Context, logger zerolog.Logger) context.Context {
	return logger.WithContext(ctx)
}

type levelsKey struct{}

// WithLevels stores the LevelVar of the context logger so SetLevel can reach it.
func WithLevels(ctx context.Context, levels *LevelVar) context.Context {
	return context.WithValue(ctx, levelsKey{}, levels)
}

// SetLevel changes the live level of the context logger. It reports false when
// the context carries no LevelVar.
func SetLevel(ctx context.Context, level zerolog.Level) bool {
	levels, ok := ctx.Value(levelsKey{}).(*LevelVar)
	if !ok || levels == nil {
		return false
	}
	levels.Set(level)
	return true
}

// WithComponent creates a child logger with a component field.
func WithComponent(ctx context.Context, component string) context.Context {
	logger := FromContext(ctx)
	child := logger.With().Str("component", component).Logger()
	return WithContext(ctx, child)
}
