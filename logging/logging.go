// Package logging builds the zerolog loggers used by the command line tools.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const DefaultTimeFormat = "01-02 15:04:05"

// Config selects level, format and an optional rotating log file.
type Config struct {
	Level  string // trace, debug, info, warn, error
	Format string // console, json or auto (console on a terminal)
	File   string // empty disables the file sink

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

var defaultConfig = Config{
	Level:      "info",
	Format:     "auto",
	MaxSizeMB:  10,
	MaxBackups: 5,
	MaxAgeDays: 7,
}

func DefaultConfig() Config { return defaultConfig }

// applyDefaults fills missing config values from defaultConfig
func applyDefaults(cfg *Config) {
	if cfg.Level == "" {
		cfg.Level = defaultConfig.Level
	}
	if cfg.Format == "" {
		cfg.Format = defaultConfig.Format
	}
	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = defaultConfig.MaxSizeMB
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = defaultConfig.MaxBackups
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = defaultConfig.MaxAgeDays
	}
}

// New builds a logger writing to out and, if cfg.File is set, to a rotating
// file. The returned closer releases the file.
func New(cfg Config, out io.Writer) (zerolog.Logger, io.Closer, error) {
	applyDefaults(&cfg)

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	var console io.Writer
	switch cfg.Format {
	case "json":
		console = out
	case "console":
		console = zerolog.ConsoleWriter{Out: out, TimeFormat: DefaultTimeFormat}
	case "auto":
		console = out
		if isTerminal(out) {
			console = zerolog.ConsoleWriter{Out: out, TimeFormat: DefaultTimeFormat}
		}
	default:
		return zerolog.Nop(), nopCloser{}, fmt.Errorf("invalid log format %q", cfg.Format)
	}

	var closer io.Closer = nopCloser{}
	w := console
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		w = zerolog.MultiLevelWriter(console, file)
		closer = file
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), closer, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
