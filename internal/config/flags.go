package config

// This file binds Config fields to pflag flag sets. Global flags (engine
// paths, logging, display) live on the root command; operation flags are
// bound by the commands that use them.

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// Version is shown by --version; override at build time with
// -ldflags "-X github.com/backmassage/clipsmith/internal/config.Version=...".
var Version = "0.3.0-dev"

// BindGlobalFlags registers engine, scratch, and display/logging flags.
func BindGlobalFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.FFmpegPath, "ffmpeg", cfg.FFmpegPath, "Path to the ffmpeg binary")
	fs.StringVar(&cfg.FFprobePath, "ffprobe", cfg.FFprobePath, "Path to the ffprobe binary")
	fs.StringVar(&cfg.ScratchDir, "scratch-dir", cfg.ScratchDir, "Directory for concat lists and progress files")

	fs.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output (stream ffmpeg stderr)")
	fs.Var(&colorModeValue{&cfg.ColorMode}, "color", "Color output: auto | always | never")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug | info | warn | error")
	fs.Var(&logFormatValue{&cfg.LogFormat}, "log-format", "Log format: console | json")
	fs.StringVarP(&cfg.LogFile, "log", "l", cfg.LogFile, "Also write logs to this rotating file")
}

// BindOutputFlags registers -o/--output-dir.
func BindOutputFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.OutputDir, "output-dir", "o", cfg.OutputDir, "Output directory (a file path selects its parent)")
}

// BindMergeFlags registers the re-encode fallback and progress monitor flags.
func BindMergeFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVar(&cfg.FallbackPreset, "fallback-preset", cfg.FallbackPreset, "x264 preset for the re-encode merge fallback")
	fs.IntVar(&cfg.FallbackCRF, "fallback-crf", cfg.FallbackCRF, "CRF for the re-encode merge fallback")
	fs.DurationVar(&cfg.ProgressPollInterval, "progress-poll", cfg.ProgressPollInterval, "Progress file poll interval")
	fs.DurationVar(&cfg.ProgressWaitTimeout, "progress-wait", cfg.ProgressWaitTimeout, "Max wait for the progress file to appear")
}

// BindBatchFlags registers batch-only behavior flags.
func BindBatchFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.BoolVar(&cfg.ValidateBounds, "validate-bounds", cfg.ValidateBounds, "Probe the source and reject segments past its end")
	fs.BoolVar(&cfg.KeepIntermediates, "keep-intermediates", cfg.KeepIntermediates, "Keep cut and pre-compression files")
	fs.StringVar(&cfg.ProgressAddr, "progress-addr", cfg.ProgressAddr, "Serve progress events over websocket at this address")
}

// pflag.Value adapters so enum types can be bound with fs.Var.

type colorModeValue struct{ p *ColorMode }

func (c *colorModeValue) String() string { return string(*c.p) }
func (c *colorModeValue) Type() string   { return "mode" }
func (c *colorModeValue) Set(s string) error {
	m := ColorMode(strings.ToLower(s))
	switch m {
	case ColorAuto, ColorAlways, ColorNever:
		*c.p = m
		return nil
	}
	return fmt.Errorf("invalid color mode %q (use auto, always or never)", s)
}

type logFormatValue struct{ p *LogFormat }

func (l *logFormatValue) String() string { return string(*l.p) }
func (l *logFormatValue) Type() string   { return "format" }
func (l *logFormatValue) Set(s string) error {
	f := LogFormat(strings.ToLower(s))
	switch f {
	case LogConsole, LogJSON:
		*l.p = f
		return nil
	}
	return fmt.Errorf("invalid log format %q (use console or json)", s)
}
