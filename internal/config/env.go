package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=VALUE pairs from the given files (default ".env")
// into the process environment. Missing files are ignored; variables already
// set in the environment win.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// ApplyEnv overlays CLIPSMITH_* and LOG_* environment variables onto cfg.
// Unset or unparsable variables leave the current value in place.
func ApplyEnv(cfg *Config) {
	cfg.FFmpegPath = getenv("CLIPSMITH_FFMPEG", cfg.FFmpegPath)
	cfg.FFprobePath = getenv("CLIPSMITH_FFPROBE", cfg.FFprobePath)
	cfg.OutputDir = getenv("CLIPSMITH_OUTPUT_DIR", cfg.OutputDir)
	cfg.ScratchDir = getenv("CLIPSMITH_SCRATCH_DIR", cfg.ScratchDir)
	cfg.ProgressPollInterval = getenvDuration("CLIPSMITH_PROGRESS_POLL", cfg.ProgressPollInterval)
	cfg.ProgressWaitTimeout = getenvDuration("CLIPSMITH_PROGRESS_WAIT", cfg.ProgressWaitTimeout)
	cfg.FallbackPreset = getenv("CLIPSMITH_FALLBACK_PRESET", cfg.FallbackPreset)
	cfg.FallbackCRF = getenvInt("CLIPSMITH_FALLBACK_CRF", cfg.FallbackCRF)
	cfg.AudioBitrate = getenv("CLIPSMITH_AUDIO_BITRATE", cfg.AudioBitrate)
	cfg.ValidateBounds = getenvBool("CLIPSMITH_VALIDATE_BOUNDS", cfg.ValidateBounds)
	cfg.KeepIntermediates = getenvBool("CLIPSMITH_KEEP_INTERMEDIATES", cfg.KeepIntermediates)
	cfg.ProgressAddr = getenv("CLIPSMITH_PROGRESS_ADDR", cfg.ProgressAddr)

	cfg.LogLevel = strings.ToLower(getenv("LOG_LEVEL", cfg.LogLevel))
	cfg.LogFormat = LogFormat(strings.ToLower(getenv("LOG_FORMAT", string(cfg.LogFormat))))
	cfg.LogFile = getenv("LOG_FILE", cfg.LogFile)
	cfg.LogFileMaxSizeMB = getenvInt("LOG_FILE_MAX_SIZE", cfg.LogFileMaxSizeMB)
	cfg.LogFileBackups = getenvInt("LOG_FILE_MAX_BACKUPS", cfg.LogFileBackups)
	cfg.LogFileMaxAge = getenvInt("LOG_FILE_MAX_AGE", cfg.LogFileMaxAge)
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		cfg.ColorMode = ColorNever
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvBool(k string, def bool) bool {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		v = strings.ToLower(v)
		return v == "1" || v == "true" || v == "yes"
	}
	return def
}

func getenvDuration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
