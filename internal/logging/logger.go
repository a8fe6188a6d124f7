// Package logging provides the leveled printf-style logger used across
// clipsmith, backed by zerolog with an optional lumberjack-rotated file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/backmassage/clipsmith/internal/config"
)

// Logger provides leveled, optionally colored logging with an optional
// rotating file sink.
type Logger struct {
	zl   zerolog.Logger
	file io.Closer
}

// NewLogger builds a Logger from cfg. Console output goes to stderr so
// command results on stdout stay clean. Call Close when done if LogFile was set.
func NewLogger(cfg *config.Config) (*Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if cfg.Verbose && lvl > zerolog.DebugLevel {
		lvl = zerolog.DebugLevel
	}

	var writers []io.Writer
	if cfg.LogFormat == config.LogJSON {
		writers = append(writers, os.Stderr)
	} else {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			NoColor:    !ColorEnabled(cfg.ColorMode, os.Stderr),
			TimeFormat: "2006-01-02 15:04:05",
		})
	}

	l := &Logger{}
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, err
		}
		rot := &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    cfg.LogFileMaxSizeMB,
			MaxBackups: cfg.LogFileBackups,
			MaxAge:     cfg.LogFileMaxAge,
			Compress:   true,
		}
		writers = append(writers, rot)
		l.file = rot
	}

	l.zl = zerolog.New(io.MultiWriter(writers...)).Level(lvl).With().Timestamp().Logger()
	return l, nil
}

// New returns a Logger writing JSON lines to w at the given level. Intended
// for tests and embedding.
func New(w io.Writer, level zerolog.Level) *Logger {
	return &Logger{zl: zerolog.New(w).Level(level).With().Timestamp().Logger()}
}

// Nop returns a Logger that discards everything.
func Nop() *Logger {
	return &Logger{zl: zerolog.Nop()}
}

// ColorEnabled resolves mode for f: auto means a terminal without NO_COLOR
// or TERM=dumb.
func ColorEnabled(mode config.ColorMode, f *os.File) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	if os.Getenv("NO_COLOR") != "" || strings.EqualFold(os.Getenv("TERM"), "dumb") {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Close closes the rotating log file if one was opened.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// With returns a child logger carrying an extra field on every event.
func (l *Logger) With(key string, value interface{}) *Logger {
	return &Logger{zl: l.zl.With().Interface(key, value).Logger()}
}

// Info logs at INFO level.
func (l *Logger) Info(format string, args ...interface{}) {
	l.zl.Info().Msg(fmt.Sprintf(format, args...))
}

// Success logs at INFO level tagged success=true.
func (l *Logger) Success(format string, args ...interface{}) {
	l.zl.Info().Bool("success", true).Msg(fmt.Sprintf(format, args...))
}

// Warn logs at WARN level.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.zl.Warn().Msg(fmt.Sprintf(format, args...))
}

// Error logs at ERROR level.
func (l *Logger) Error(format string, args ...interface{}) {
	l.zl.Error().Msg(fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level; dropped unless the level allows it.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.zl.Debug().Msg(fmt.Sprintf(format, args...))
}

// Elapsed logs an INFO event with a duration field.
func (l *Logger) Elapsed(d time.Duration, format string, args ...interface{}) {
	l.zl.Info().Dur("elapsed", d).Msg(fmt.Sprintf(format, args...))
}
