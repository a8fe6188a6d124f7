package check

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/clipsmith/internal/config"
	"github.com/backmassage/clipsmith/internal/ffmpeg"
	"github.com/backmassage/clipsmith/internal/ffmpeg/ffmpegtest"
)

const encodersOut = `Encoders:
 V..... = Video
 A..... = Audio
 ------
 V....D libx264              libx264 H.264 / AVC / MPEG-4 AVC (codec h264)
 V....D libx265              libx265 H.265 / HEVC (codec hevc)
 A....D aac                  AAC (Advanced Audio Coding)
`

const filtersOut = `Filters:
  T.. = Timeline support
  ... concat            N->N       Concatenate audio and video streams.
  ... scale             V->V       Scale the input video size.
`

type mockLogger struct {
	mu    sync.Mutex
	lines []string
}

func (m *mockLogger) add(level, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, level+" "+fmt.Sprintf(format, args...))
}

func (m *mockLogger) Info(f string, a ...interface{})    { m.add("INFO", f, a...) }
func (m *mockLogger) Success(f string, a ...interface{}) { m.add("OK", f, a...) }
func (m *mockLogger) Warn(f string, a ...interface{})    { m.add("WARN", f, a...) }
func (m *mockLogger) Error(f string, a ...interface{})   { m.add("ERROR", f, a...) }

func (m *mockLogger) text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return strings.Join(m.lines, "\n")
}

func fakeTools(t *testing.T, missing ...string) {
	t.Helper()
	oldLook, oldDisk := lookPath, diskUsage
	t.Cleanup(func() { lookPath, diskUsage = oldLook, oldDisk })

	lookPath = func(name string) (string, error) {
		for _, m := range missing {
			if m == name {
				return "", errors.New("executable file not found in $PATH")
			}
		}
		return "/usr/bin/" + name, nil
	}
	diskUsage = func(_ context.Context, path string) (*disk.UsageStat, error) {
		return &disk.UsageStat{Path: path, Total: 500 << 30, Free: 120 << 30}, nil
	}
}

func engine(encoders, filters string) *ffmpegtest.Runner {
	return &ffmpegtest.Runner{Handler: func(_ context.Context, c ffmpegtest.Call) ffmpeg.ExecResult {
		switch {
		case ffmpegtest.Contains(c.Args, "-version"):
			return ffmpegtest.JSON("ffmpeg version 7.0.1 Copyright (c) 2000-2024\nbuilt with gcc\n")
		case ffmpegtest.Contains(c.Args, "-encoders"):
			return ffmpegtest.JSON(encoders)
		case ffmpegtest.Contains(c.Args, "-filters"):
			return ffmpegtest.JSON(filters)
		}
		return ffmpegtest.Fail("unexpected call")
	}}
}

func TestCheckDeps_OK(t *testing.T) {
	fakeTools(t)
	cfg := config.DefaultConfig()
	assert.NoError(t, CheckDeps(context.Background(), &cfg, engine(encodersOut, filtersOut), "libx265"))
}

func TestCheckDeps_Failures(t *testing.T) {
	tests := []struct {
		name     string
		missing  []string
		encoders string
		filters  string
		codecs   []string
		want     error
	}{
		{"no ffmpeg", []string{"ffmpeg"}, encodersOut, filtersOut, nil, ErrFfmpegNotFound},
		{"no ffprobe", []string{"ffprobe"}, encodersOut, filtersOut, nil, ErrFfprobeNotFound},
		{"missing compression codec", nil, encodersOut, filtersOut, []string{"libvpx-vp9"}, ErrEncoderMissing},
		{"missing aac", nil, " V....D libx264 libx264\n", filtersOut, nil, ErrEncoderMissing},
		{"no concat", nil, encodersOut, "  ... scale V->V Scale\n", nil, ErrConcatMissing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fakeTools(t, tt.missing...)
			cfg := config.DefaultConfig()
			err := CheckDeps(context.Background(), &cfg, engine(tt.encoders, tt.filters), tt.codecs...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRunCheck_Report(t *testing.T) {
	fakeTools(t)
	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	log := &mockLogger{}

	ok := RunCheck(context.Background(), &cfg, engine(encodersOut, filtersOut), log, "libx265")

	assert.True(t, ok)
	out := log.text()
	assert.Contains(t, out, "OK ffmpeg: ffmpeg version 7.0.1")
	assert.Contains(t, out, "OK encoder libx264: available")
	assert.Contains(t, out, "OK encoder libx265: available")
	assert.Contains(t, out, "OK encoder aac: available")
	assert.Contains(t, out, "OK concat filter: available")
	assert.Contains(t, out, "OK disk: 120 GiB free of 500 GiB")
}

func TestRunCheck_MissingBinaryStops(t *testing.T) {
	fakeTools(t, "ffprobe")
	cfg := config.DefaultConfig()
	log := &mockLogger{}
	r := engine(encodersOut, filtersOut)

	assert.False(t, RunCheck(context.Background(), &cfg, r, log))
	assert.Contains(t, log.text(), "ERROR ffprobe not found")
	assert.Len(t, r.Calls(), 1, "only ffmpeg -version runs before giving up")
}

func TestRunCheck_LowDisk(t *testing.T) {
	fakeTools(t)
	diskUsage = func(_ context.Context, path string) (*disk.UsageStat, error) {
		return &disk.UsageStat{Path: path, Total: 8 << 30, Free: 200 << 20}, nil
	}
	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir() + "/not/yet/created"
	log := &mockLogger{}

	RunCheck(context.Background(), &cfg, engine(encodersOut, filtersOut), log)
	assert.Contains(t, log.text(), "WARN disk: only 200 MiB free")
}

func TestListNames(t *testing.T) {
	names, err := listNames(context.Background(), engine(encodersOut, filtersOut), "ffmpeg", ffmpeg.EncodersArgs())
	require.NoError(t, err)
	assert.True(t, names["libx264"])
	assert.True(t, names["aac"])
	assert.False(t, names["="])
	assert.False(t, names["Video"])
}

func TestExistingAncestor(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, dir, existingAncestor(dir+"/a/b/c"))
}
