// Package check provides system diagnostics (the check command) and
// pre-batch dependency validation (CheckDeps) for ffmpeg, ffprobe, the
// encoders clipsmith uses, the concat filter, and output disk space.
package check

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/disk"

	"github.com/backmassage/clipsmith/internal/config"
	"github.com/backmassage/clipsmith/internal/ffmpeg"
)

// Sentinel errors returned by CheckDeps when a required tool or feature is missing.
var (
	ErrFfmpegNotFound  = errors.New("ffmpeg not found")
	ErrFfprobeNotFound = errors.New("ffprobe not found")
	ErrEncoderMissing  = errors.New("required encoder not available")
	ErrConcatMissing   = errors.New("concat filter not available")
)

// minFreeBytes is the free space below which the output directory is
// reported as nearly full.
const minFreeBytes = 1 << 30

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
}

// Overridable in tests.
var (
	lookPath  = exec.LookPath
	diskUsage = disk.UsageWithContext
)

// RunCheck runs the interactive check flow and reports whether everything
// required is present. Extra codecs (for example a compression codec) are
// checked alongside the fallback video codec and the audio codec.
func RunCheck(ctx context.Context, cfg *config.Config, run ffmpeg.Runner, log Logger, codecs ...string) bool {
	log.Info("=== System Check ===")

	ok := checkBinary(ctx, run, log, "ffmpeg", cfg.FFmpegPath)
	ok = checkBinary(ctx, run, log, "ffprobe", cfg.FFprobePath) && ok
	if !ok {
		return false
	}

	encoders, err := listNames(ctx, run, cfg.FFmpegPath, ffmpeg.EncodersArgs())
	if err != nil {
		log.Warn("Could not list encoders: %v", err)
		ok = false
	} else {
		for _, c := range requiredEncoders(cfg, codecs) {
			if encoders[c] {
				log.Success("encoder %s: available", c)
			} else {
				log.Error("encoder %s: missing", c)
				ok = false
			}
		}
	}

	filters, err := listNames(ctx, run, cfg.FFmpegPath, ffmpeg.FiltersArgs())
	switch {
	case err != nil:
		log.Warn("Could not list filters: %v", err)
		ok = false
	case filters["concat"]:
		log.Success("concat filter: available")
	default:
		log.Error("concat filter: missing")
		ok = false
	}

	checkDisk(ctx, cfg.OutputDir, log)
	return ok
}

// CheckDeps is the pre-batch validation: it verifies both binaries resolve,
// every required encoder is compiled in, and the concat filter exists.
// Returns a sentinel error on failure.
func CheckDeps(ctx context.Context, cfg *config.Config, run ffmpeg.Runner, codecs ...string) error {
	if _, err := lookPath(cfg.FFmpegPath); err != nil {
		return ErrFfmpegNotFound
	}
	if _, err := lookPath(cfg.FFprobePath); err != nil {
		return ErrFfprobeNotFound
	}

	encoders, err := listNames(ctx, run, cfg.FFmpegPath, ffmpeg.EncodersArgs())
	if err != nil {
		return fmt.Errorf("list encoders: %w", err)
	}
	for _, c := range requiredEncoders(cfg, codecs) {
		if !encoders[c] {
			return fmt.Errorf("%w: %s", ErrEncoderMissing, c)
		}
	}

	filters, err := listNames(ctx, run, cfg.FFmpegPath, ffmpeg.FiltersArgs())
	if err != nil {
		return fmt.Errorf("list filters: %w", err)
	}
	if !filters["concat"] {
		return ErrConcatMissing
	}
	return nil
}

// --- internal helpers ---

// checkBinary verifies bin resolves and logs the first line of its
// -version output.
func checkBinary(ctx context.Context, run ffmpeg.Runner, log Logger, label, bin string) bool {
	path, err := lookPath(bin)
	if err != nil {
		log.Error("%s not found (%s)", label, bin)
		return false
	}
	res := run.Run(ctx, path, ffmpeg.VersionArgs())
	if res.Err != nil {
		log.Warn("%s found but -version failed: %v", label, res.Err)
		return false
	}
	firstLine := strings.TrimSpace(string(res.Stdout))
	if idx := strings.Index(firstLine, "\n"); idx > 0 {
		firstLine = firstLine[:idx]
	}
	log.Success("%s: %s", label, firstLine)
	return true
}

func requiredEncoders(cfg *config.Config, extra []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range append([]string{cfg.FallbackCodec, cfg.AudioCodec}, extra...) {
		if c != "" && !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// listNames runs one of ffmpeg's listing commands (-encoders, -filters)
// and returns the set of names in the second column of each entry. Legend
// lines ("V..... = Video") are skipped.
func listNames(ctx context.Context, run ffmpeg.Runner, bin string, args []string) (map[string]bool, error) {
	res := run.Run(ctx, bin, args)
	if res.Err != nil {
		return nil, res.Err
	}
	names := make(map[string]bool)
	sc := bufio.NewScanner(bytes.NewReader(res.Stdout))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 || fields[1] == "=" {
			continue
		}
		names[fields[1]] = true
	}
	return names, sc.Err()
}

// checkDisk reports free space on the volume holding dir. The directory
// may not exist yet, so the nearest existing ancestor is measured.
func checkDisk(ctx context.Context, dir string, log Logger) {
	path := existingAncestor(dir)
	u, err := diskUsage(ctx, path)
	if err != nil {
		log.Warn("Could not read free space for %s: %v", path, err)
		return
	}
	if u.Free < minFreeBytes {
		log.Warn("disk: only %s free on %s", humanize.IBytes(u.Free), path)
		return
	}
	log.Success("disk: %s free of %s on %s", humanize.IBytes(u.Free), humanize.IBytes(u.Total), path)
}

func existingAncestor(dir string) string {
	p, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	for {
		if _, err := os.Stat(p); err == nil {
			return p
		}
		parent := filepath.Dir(p)
		if parent == p {
			return p
		}
		p = parent
	}
}
