// Package config holds runtime configuration: defaults, environment overrides,
// CLI flag binding, and validation.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// LogFormat selects the console log encoding.
type LogFormat string

const (
	LogConsole LogFormat = "console" // Human-readable lines (default).
	LogJSON    LogFormat = "json"    // One JSON object per line.
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// then [ApplyEnv], then CLI flags (see [BindGlobalFlags]) before being passed by
// pointer to the packages that need it.
type Config struct {
	// Engine binaries.
	FFmpegPath  string // Default: "ffmpeg".
	FFprobePath string // Default: "ffprobe".

	// Output and scratch locations.
	OutputDir  string // Default: "." (current directory).
	ScratchDir string // Concat lists and progress files. Default: os.TempDir().

	// Merge progress monitor.
	ProgressPollInterval time.Duration // Default: 200ms.
	ProgressWaitTimeout  time.Duration // Default: 5s. Bounded wait for the progress file.

	// Re-encode fallback used when the lossless merge fails.
	FallbackCodec  string // Fixed: "libx264".
	FallbackPreset string // Default: "veryfast".
	FallbackCRF    int    // Default: 23.

	// Audio settings applied whenever audio is re-encoded.
	AudioCodec   string // Fixed: "aac".
	AudioBitrate string // Default: "128k".

	// Behavior flags.
	ValidateBounds    bool // Default: true. Probe sources and reject out-of-range segments.
	KeepIntermediates bool // Keep pre-merge cuts and pre-compression files.

	// Progress server.
	ProgressAddr string // e.g. "127.0.0.1:8787"; empty disables the server.

	// Display and logging.
	Verbose          bool
	ColorMode        ColorMode // Default: "auto".
	LogLevel         string    // Default: "info".
	LogFormat        LogFormat // Default: "console".
	LogFile          string    // Optional rotating log file.
	LogFileMaxSizeMB int       // Default: 50.
	LogFileBackups   int       // Default: 3.
	LogFileMaxAge    int       // Days. Default: 7.
}

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() Config {
	return Config{
		FFmpegPath:           "ffmpeg",
		FFprobePath:          "ffprobe",
		OutputDir:            ".",
		ScratchDir:           "",
		ProgressPollInterval: 200 * time.Millisecond,
		ProgressWaitTimeout:  5 * time.Second,
		FallbackCodec:        "libx264",
		FallbackPreset:       "veryfast",
		FallbackCRF:          23,
		AudioCodec:           "aac",
		AudioBitrate:         "128k",
		ValidateBounds:       true,
		KeepIntermediates:    false,
		ColorMode:            ColorAuto,
		LogLevel:             "info",
		LogFormat:            LogConsole,
		LogFileMaxSizeMB:     50,
		LogFileBackups:       3,
		LogFileMaxAge:        7,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields, numeric ranges, and canonicalizes the audio
// bitrate in place.
func (c *Config) Validate() error {
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	switch c.LogFormat {
	case LogConsole, LogJSON:
		// valid
	default:
		return errors.New("invalid log format (use 'console' or 'json')")
	}

	if c.FFmpegPath == "" || c.FFprobePath == "" {
		return errors.New("ffmpeg and ffprobe paths must not be empty")
	}
	if c.ProgressPollInterval <= 0 {
		return errors.New("progress poll interval must be positive")
	}
	if c.ProgressWaitTimeout <= 0 {
		return errors.New("progress wait timeout must be positive")
	}
	if c.FallbackCRF < 0 || c.FallbackCRF > 51 {
		return fmt.Errorf("fallback CRF %d out of range (0-51)", c.FallbackCRF)
	}
	if strings.TrimSpace(c.FallbackPreset) == "" {
		return errors.New("fallback preset must not be empty")
	}

	normalizedBitrate, err := normalizeAudioBitrate(c.AudioBitrate)
	if err != nil {
		return err
	}
	c.AudioBitrate = normalizedBitrate

	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	c.OutputDir = NormalizeDirArg(c.OutputDir)
	return nil
}

// normalizeAudioBitrate validates and canonicalizes user bitrate input.
// Accepted forms: "128", "128k", "128K", "128kbps". Output is "<n>k".
func normalizeAudioBitrate(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", errors.New("audio bitrate must not be empty")
	}
	if strings.HasSuffix(s, "kbps") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "kbps"))
	} else if strings.HasSuffix(s, "k") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "k"))
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return "", fmt.Errorf("invalid audio bitrate %q (use positive Kbps value, e.g. 128k)", raw)
	}
	return fmt.Sprintf("%dk", n), nil
}

// ScratchRoot returns the directory for transient artifacts: ScratchDir when
// set, the system temp directory otherwise.
func (c *Config) ScratchRoot() string {
	if c.ScratchDir != "" {
		return c.ScratchDir
	}
	return os.TempDir()
}
