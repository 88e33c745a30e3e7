// Package logging configures the process-wide zap logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Environment variables read by FromEnv.
const (
	EnvLevel = "TUXMUX_LOG"
	EnvFile  = "TUXMUX_LOG_FILE"
)

// Options controls logger construction.
type Options struct {
	Verbose  bool   // forces debug level
	Level    string // debug, info, warn, error; empty disables logging
	FilePath string // optional rotating JSON log file
	Console  io.Writer // console sink; stderr when nil

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// FromEnv builds Options from the environment.
func FromEnv(verbose bool) Options {
	return Options{
		Verbose:  verbose,
		Level:    os.Getenv(EnvLevel),
		FilePath: os.Getenv(EnvFile),
	}
}

// New creates a logger for the given options. When neither Verbose nor
// Level is set a no-op logger is returned.
func New(opts Options) (*zap.Logger, error) {
	levelName := strings.TrimSpace(strings.ToLower(opts.Level))
	if opts.Verbose {
		levelName = "debug"
	}
	if levelName == "" {
		return zap.NewNop(), nil
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}

	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.TimeKey = ""
	consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	var console zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	if opts.Console != nil {
		console = zapcore.AddSync(opts.Console)
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), gated{console}, level),
	}

	if opts.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(opts.FilePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}

		if opts.MaxSizeMB == 0 {
			opts.MaxSizeMB = 10
		}
		if opts.MaxBackups == 0 {
			opts.MaxBackups = 3
		}
		if opts.MaxAgeDays == 0 {
			opts.MaxAgeDays = 7
		}

		fileWriter := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}

		fileCfg := zap.NewProductionEncoderConfig()
		fileCfg.TimeKey = "ts"
		fileCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		fileCfg.EncodeLevel = zapcore.LowercaseLevelEncoder
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(fileCfg), zapcore.AddSync(fileWriter), level))
	}

	return zap.New(zapcore.NewTee(cores...)), nil
}

// Setup builds the logger and installs it as the zap global. The returned
// function flushes buffered entries and restores the previous global.
func Setup(opts Options) (func(), error) {
	logger, err := New(opts)
	if err != nil {
		return func() {}, err
	}

	restore := zap.ReplaceGlobals(logger)
	return func() {
		_ = logger.Sync()
		restore()
	}, nil
}

var consoleMuted atomic.Bool

// MuteConsole drops console output until the returned function is called,
// so log lines do not draw over a full-screen program on the same
// terminal. The file sink keeps every entry.
func MuteConsole() (unmute func()) {
	prev := consoleMuted.Swap(true)
	return func() { consoleMuted.Store(prev) }
}

// gated discards writes while the console is muted.
type gated struct {
	zapcore.WriteSyncer
}

func (g gated) Write(p []byte) (int, error) {
	if consoleMuted.Load() {
		return len(p), nil
	}
	return g.WriteSyncer.Write(p)
}
