// Package envconfig reads tt settings from the environment.
//
// Getters re-read the environment on every call. Load snapshots the
// current values into a Config that callers pass explicitly.
package envconfig

import (
	"log/slog"
	"math/bits"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/born-ml/tt/internal/parallel"
	"github.com/born-ml/tt/internal/tensor"
)

// LogLevel returns the log level for the application.
// Values are 0 or false INFO (Default), 1 or true DEBUG, 2 TRACE.
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("TT_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// DefaultDType returns the element type used when a command is not told
// otherwise. Configurable via TT_DEFAULT_DTYPE. Default: float32.
func DefaultDType() tensor.DType {
	if s := Var("TT_DEFAULT_DTYPE"); s != "" {
		dt, err := tensor.ParseDType(s)
		if err != nil {
			slog.Warn("invalid environment variable, using default", "key", "TT_DEFAULT_DTYPE", "value", s, "default", tensor.Float32)
			return tensor.Float32
		}
		return dt
	}
	return tensor.Float32
}

// TileExtent returns the tile side for tiled layouts.
// Configurable via TT_TILE; must be a power of two. Default: 4.
func TileExtent() tensor.Index {
	n := tileExtent()
	if bits.OnesCount(n) != 1 {
		slog.Warn("tile extent must be a power of two, using default", "key", "TT_TILE", "value", n, "default", tensor.DefaultTileExtent)
		return tensor.DefaultTileExtent
	}
	return n
}

var (
	// NumThreads caps conversion workers. Configurable via TT_NUM_THREADS.
	NumThreads = Uint("TT_NUM_THREADS", uint(runtime.NumCPU()))
	// Sequential disables parallel conversion. Configurable via TT_SEQUENTIAL.
	Sequential = Bool("TT_SEQUENTIAL")

	tileExtent = Uint("TT_TILE", tensor.DefaultTileExtent)
)

// Config is a snapshot of the environment.
type Config struct {
	LogLevel     slog.Level
	DefaultDType tensor.DType
	NumThreads   uint
	Sequential   bool
	TileExtent   tensor.Index
}

// Load reads every setting once.
func Load() Config {
	return Config{
		LogLevel:     LogLevel(),
		DefaultDType: DefaultDType(),
		NumThreads:   NumThreads(),
		Sequential:   Sequential(),
		TileExtent:   TileExtent(),
	}
}

// Parallel returns the worker configuration from TT_NUM_THREADS and
// TT_SEQUENTIAL as currently set.
func Parallel() parallel.Config {
	return Config{NumThreads: NumThreads(), Sequential: Sequential()}.Parallel()
}

// Parallel returns the worker configuration for bulk conversions.
func (c Config) Parallel() parallel.Config {
	cfg := parallel.DefaultConfig()
	if c.Sequential || c.NumThreads == 1 {
		return parallel.Sequential()
	}
	if c.NumThreads > 0 {
		cfg.NumWorkers = int(c.NumThreads)
		cfg.Enabled = true
	}
	return cfg
}

// BoolWithDefault returns a getter for a boolean variable. Values that do
// not parse count as true.
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Bool returns a getter for a boolean variable that defaults to false.
func Bool(k string) func() bool {
	withDefault := BoolWithDefault(k)
	return func() bool {
		return withDefault(false)
	}
}

// Uint returns a getter for an unsigned variable.
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// EnvVar describes one setting.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every setting keyed by variable name.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"TT_DEBUG":         {"TT_DEBUG", LogLevel(), "Show additional debug information (e.g. TT_DEBUG=1)"},
		"TT_DEFAULT_DTYPE": {"TT_DEFAULT_DTYPE", DefaultDType(), "Element type used when none is given"},
		"TT_NUM_THREADS":   {"TT_NUM_THREADS", NumThreads(), "Maximum workers for bulk conversions"},
		"TT_SEQUENTIAL":    {"TT_SEQUENTIAL", Sequential(), "Run bulk conversions on the calling goroutine"},
		"TT_TILE":          {"TT_TILE", TileExtent(), "Tile side for tiled layouts (power of two)"},
	}
}

// Var returns an environment variable stripped of leading and trailing
// quotes or spaces.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
