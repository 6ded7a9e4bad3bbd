// Package logger configures the global zerolog logger.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds logger configuration.
type Config struct {
	Level         string // debug, info, warn, error
	Format        string // json, pretty
	File          string // optional log file, rotated
	RotationSize  int    // MB
	RetentionDays int
	Service       string
}

// Init installs the global logger. The returned closer flushes the log file,
// if any.
func Init(cfg Config) (io.Closer, error) {
	w, closer, err := writer(cfg, os.Stderr)
	if err != nil {
		return nil, err
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	log.Logger = zerolog.New(w).With().
		Timestamp().
		Str("service", cfg.Service).
		Logger()

	log.Info().
		Str("level", level.String()).
		Str("format", cfg.Format).
		Str("file", cfg.File).
		Msg("logger initialized")
	return closer, nil
}

func writer(cfg Config, console io.Writer) (io.Writer, io.Closer, error) {
	writers := []io.Writer{console}
	if cfg.Format == "pretty" {
		writers[0] = zerolog.ConsoleWriter{Out: console, TimeFormat: "15:04:05"}
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		f := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    orDefault(cfg.RotationSize, 50),
			MaxAge:     orDefault(cfg.RetentionDays, 14),
			MaxBackups: 10,
			Compress:   true,
		}
		writers = append(writers, f)
		closer = f
	}
	return zerolog.MultiLevelWriter(writers...), closer, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
