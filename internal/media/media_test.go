package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/clipsmith/internal/ffmpeg"
	"github.com/backmassage/clipsmith/internal/ffmpeg/ffmpegtest"
	"github.com/backmassage/clipsmith/internal/naming"
	"github.com/backmassage/clipsmith/internal/probe"
)

func clipJSON(duration float64, audio bool) string {
	streams := `{"codec_type":"video","codec_name":"h264","width":1280,"height":720,"r_frame_rate":"30/1"}`
	if audio {
		streams += `,{"codec_type":"audio","codec_name":"aac","channels":2}`
	}
	return fmt.Sprintf(`{"streams":[%s],"format":{"duration":"%.3f"}}`, streams, duration)
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func assertDirEmpty(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "leftover scratch files")
}

func ffmpegCalls(r *ffmpegtest.Runner) []ffmpegtest.Call { return r.CallsTo("ffmpeg") }

// --- Cutter ---

func newCutter(r ffmpeg.Runner) *Cutter {
	return &Cutter{Engine: Engine{Runner: r}, Namer: naming.NewNamer()}
}

func TestCut_StreamCopyArgs(t *testing.T) {
	dir := t.TempDir()
	r := &ffmpegtest.Runner{}
	c := newCutter(r)

	out, err := c.Cut(context.Background(), "/src/talk.mp4", SegmentRequest{StartTime: 5, EndTime: 15, OutputName: "clip"}, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "clip.mp4"), out)
	assert.FileExists(t, out)

	calls := ffmpegCalls(r)
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Has("-t", "10.000"), "args: %v", calls[0].Args)
	assert.True(t, calls[0].Has("-ss", "5.000"))
	assert.True(t, calls[0].Has("-c:v", "copy"))
	assert.True(t, calls[0].Has("-c:a", "copy"))
	assert.True(t, calls[0].Has("-i", "/src/talk.mp4"))
	assert.Equal(t, 0, c.Namer.Reserved())
}

func TestCut_CollisionFreeNames(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "clip.mp4"))
	touch(t, filepath.Join(dir, "clip_1.mp4"))
	c := newCutter(&ffmpegtest.Runner{})

	out, err := c.Cut(context.Background(), "s.mp4", SegmentRequest{StartTime: 0, EndTime: 1, OutputName: "clip"}, filepath.Join(dir, "target.mp4"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "clip_2.mp4"), out)
}

func TestCut_InvalidRange(t *testing.T) {
	r := &ffmpegtest.Runner{}
	c := newCutter(r)
	_, err := c.Cut(context.Background(), "s.mp4", SegmentRequest{StartTime: 10, EndTime: 5, OutputName: "x"}, t.TempDir())

	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "end_time", ve.Field)
	assert.Empty(t, r.Calls())
}

func TestCut_EngineFailure(t *testing.T) {
	dir := t.TempDir()
	r := &ffmpegtest.Runner{Handler: func(_ context.Context, c ffmpegtest.Call) ffmpeg.ExecResult {
		touch(t, c.Output()) // partial output
		return ffmpegtest.Fail("s.mp4: Invalid data found when processing input\n")
	}}
	c := newCutter(r)
	_, err := c.Cut(context.Background(), "s.mp4", SegmentRequest{StartTime: 0, EndTime: 3, OutputName: "bad"}, dir)

	var ce *CutError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "s.mp4: Invalid data found when processing input", ce.Detail)
	assert.Equal(t, 1, ce.ExitCode)
	assert.NoFileExists(t, filepath.Join(dir, "bad.mp4"))
	assert.Equal(t, 0, c.Namer.Reserved())
}

// --- Merger ---

type mergeScript struct {
	copyFails     bool
	reencodeFails bool
	introAudio    bool
	probeFails    bool
	writeProgress bool
}

func (s mergeScript) runner(t *testing.T) *ffmpegtest.Runner {
	return &ffmpegtest.Runner{Handler: func(_ context.Context, c ffmpegtest.Call) ffmpeg.ExecResult {
		if c.Bin == "ffprobe" {
			if s.probeFails {
				return ffmpegtest.Fail("No such file or directory")
			}
			path := c.Args[len(c.Args)-1]
			if strings.Contains(path, "intro") {
				return ffmpegtest.JSON(clipJSON(2, s.introAudio))
			}
			return ffmpegtest.JSON(clipJSON(8, true))
		}

		reencode := ffmpegtest.Contains(c.Args, "-filter_complex")
		if p, ok := c.Value("-progress"); ok && s.writeProgress {
			for _, us := range []int{1000000, 3000000, 2000000, 6000000} {
				f, err := os.OpenFile(p, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
				require.NoError(t, err)
				_, _ = fmt.Fprintf(f, "out_time_ms=%d\nprogress=continue\n", us)
				f.Close()
				time.Sleep(15 * time.Millisecond)
			}
		}
		if (!reencode && s.copyFails) || (reencode && s.reencodeFails) {
			stage := "copy"
			if reencode {
				stage = "reencode"
			}
			return ffmpegtest.Fail("Conversion failed!\n[concat @ 0x1] " + stage + " boom\n")
		}
		return ffmpegtest.Succeed(c)
	}}
}

func newMerger(r ffmpeg.Runner, scratch string) *Merger {
	return &Merger{
		Engine:       Engine{Runner: r},
		Prober:       &probe.Prober{Bin: "ffprobe", Runner: r},
		ScratchDir:   scratch,
		PollInterval: 5 * time.Millisecond,
		WaitTimeout:  time.Second,
	}
}

func TestMerge_CopySucceeds(t *testing.T) {
	out, scratch := t.TempDir(), t.TempDir()
	r := mergeScript{introAudio: true}.runner(t)
	m := newMerger(r, scratch)

	path, err := m.Merge(context.Background(), "/in/intro.mp4", "/tmp/seg.mp4", out)
	require.NoError(t, err)
	assert.Equal(t, out, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "intro_seg_"), path)
	assert.FileExists(t, path)

	calls := ffmpegCalls(r)
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Has("-f", "concat"))
	assert.True(t, calls[0].Has("-c", "copy"))
	assert.Empty(t, r.CallsTo("ffprobe"), "plain merge does not probe when copy works")
	assertDirEmpty(t, scratch)
}

func TestMerge_ConcatListContent(t *testing.T) {
	scratch := t.TempDir()
	var list string
	r := &ffmpegtest.Runner{Handler: func(_ context.Context, c ffmpegtest.Call) ffmpeg.ExecResult {
		lp, _ := c.Value("-i")
		b, err := os.ReadFile(lp)
		require.NoError(t, err)
		list = string(b)
		return ffmpegtest.Succeed(c)
	}}
	_, err := newMerger(r, scratch).Merge(context.Background(), "/in/intro.mp4", "/in/main.mp4", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "file '/in/intro.mp4'\nfile '/in/main.mp4'\n", list)
}

func TestMerge_FallsBackExactlyOnce(t *testing.T) {
	scratch := t.TempDir()
	r := mergeScript{copyFails: true, introAudio: true}.runner(t)
	path, err := newMerger(r, scratch).Merge(context.Background(), "/in/intro.mp4", "/in/main.mp4", t.TempDir())
	require.NoError(t, err)
	assert.FileExists(t, path)

	calls := ffmpegCalls(r)
	require.Len(t, calls, 2)
	assert.True(t, calls[0].Has("-f", "concat"))
	assert.True(t, calls[1].Has("-filter_complex", "[0:v:0][0:a:0][1:v:0][1:a:0]concat=n=2:v=1:a=1[outv][outa]"))
	assert.True(t, calls[1].Has("-preset", "veryfast"))
	assert.True(t, calls[1].Has("-crf", "23"))
	assertDirEmpty(t, scratch)
}

func TestMerge_VideoOnlyFallbackWhenIntroSilent(t *testing.T) {
	r := mergeScript{copyFails: true, introAudio: false}.runner(t)
	_, err := newMerger(r, t.TempDir()).Merge(context.Background(), "/in/intro.mp4", "/in/main.mp4", t.TempDir())
	require.NoError(t, err)

	calls := ffmpegCalls(r)
	require.Len(t, calls, 2)
	assert.True(t, calls[1].Has("-filter_complex", "[0:v:0][1:v:0]concat=n=2:v=1:a=0[outv]"))
}

func TestMerge_BothAttemptsFail(t *testing.T) {
	out, scratch := t.TempDir(), t.TempDir()
	r := mergeScript{copyFails: true, reencodeFails: true, introAudio: true}.runner(t)
	_, err := newMerger(r, scratch).Merge(context.Background(), "/in/intro.mp4", "/in/main.mp4", out)

	var me *MergeError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "re-encode", me.Stage)
	assert.Contains(t, me.Detail, "reencode boom")
	assert.Equal(t, 1, me.ExitCode)
	assert.Len(t, ffmpegCalls(r), 2)
	assertDirEmpty(t, scratch)
	assertDirEmpty(t, out)
}

func TestMerge_CancelledDoesNotEscalate(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := &ffmpegtest.Runner{Handler: func(context.Context, ffmpegtest.Call) ffmpeg.ExecResult {
		cancel()
		return ffmpegtest.Fail("killed")
	}}
	_, err := newMerger(r, t.TempDir()).Merge(ctx, "/in/intro.mp4", "/in/main.mp4", t.TempDir())

	var me *MergeError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "copy", me.Stage)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, r.Calls(), 1)
}

type pctLog struct {
	mu   sync.Mutex
	vals []float64
}

func (p *pctLog) add(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vals = append(p.vals, v)
}

func (p *pctLog) values() []float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]float64(nil), p.vals...)
}

func TestMergeWithProgress_MonotonicEndsAt100(t *testing.T) {
	scratch := t.TempDir()
	r := mergeScript{introAudio: true, writeProgress: true}.runner(t)
	var rec pctLog

	path, err := newMerger(r, scratch).MergeWithProgress(context.Background(), "/in/intro.mp4", "/in/main.mp4", t.TempDir(), rec.add)
	require.NoError(t, err)
	assert.FileExists(t, path)

	vals := rec.values()
	require.NotEmpty(t, vals)
	assert.Equal(t, 100.0, vals[len(vals)-1])
	for i := 1; i < len(vals); i++ {
		assert.GreaterOrEqual(t, vals[i], vals[i-1], "progress went backwards: %v", vals)
	}
	for _, v := range vals {
		assert.True(t, v >= 0 && v <= 100)
	}

	calls := ffmpegCalls(r)
	require.Len(t, calls, 1)
	p, ok := calls[0].Value("-progress")
	require.True(t, ok)
	assert.Equal(t, scratch, filepath.Dir(p))
	assert.True(t, ffmpegtest.Contains(calls[0].Args, "-nostats"))
	assert.Len(t, r.CallsTo("ffprobe"), 2)
	assertDirEmpty(t, scratch)
}

func TestMergeWithProgress_FailureCleansUpAndEndsAt100(t *testing.T) {
	scratch := t.TempDir()
	r := mergeScript{copyFails: true, reencodeFails: true, introAudio: true, writeProgress: true}.runner(t)
	var rec pctLog

	_, err := newMerger(r, scratch).MergeWithProgress(context.Background(), "/in/intro.mp4", "/in/main.mp4", t.TempDir(), rec.add)
	require.Error(t, err)
	assertDirEmpty(t, scratch)
	vals := rec.values()
	require.NotEmpty(t, vals)
	assert.Equal(t, 100.0, vals[len(vals)-1])
}

func TestMergeWithProgress_ReencodeReportsAfterFailedCopy(t *testing.T) {
	scratch := t.TempDir()
	r := &ffmpegtest.Runner{Handler: func(_ context.Context, c ffmpegtest.Call) ffmpeg.ExecResult {
		if c.Bin == "ffprobe" {
			if strings.Contains(c.Args[len(c.Args)-1], "intro") {
				return ffmpegtest.JSON(clipJSON(2, true))
			}
			return ffmpegtest.JSON(clipJSON(8, true))
		}
		p, ok := c.Value("-progress")
		require.True(t, ok)
		if !ffmpegtest.Contains(c.Args, "-filter_complex") {
			writeProgress(t, p, "out_time_ms=500000\nprogress=end\n")
			return ffmpegtest.Fail("Conversion failed!\n")
		}
		for _, us := range []int{2000000, 5000000, 8000000} {
			writeProgress(t, p, fmt.Sprintf("out_time_ms=%d\nprogress=continue\n", us))
		}
		writeProgress(t, p, "progress=end\n")
		return ffmpegtest.Succeed(c)
	}}
	var rec pctLog

	_, err := newMerger(r, scratch).MergeWithProgress(context.Background(), "/in/intro.mp4", "/in/main.mp4", t.TempDir(), rec.add)
	require.NoError(t, err)

	vals := rec.values()
	var during []float64
	for _, v := range vals {
		if v > 5 && v < 100 {
			during = append(during, v)
		}
	}
	assert.NotEmpty(t, during, "re-encode progress was swallowed: %v", vals)
	assert.Equal(t, 100.0, vals[len(vals)-1])
	assertDirEmpty(t, scratch)
}

func writeProgress(t *testing.T, path, lines string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, _ = f.WriteString(lines)
	require.NoError(t, f.Close())
	time.Sleep(20 * time.Millisecond)
}

func TestMergeWithProgress_ProbeFailureIsFatal(t *testing.T) {
	r := mergeScript{probeFails: true}.runner(t)
	_, err := newMerger(r, t.TempDir()).MergeWithProgress(context.Background(), "/in/intro.mp4", "/in/main.mp4", t.TempDir(), nil)

	var me *MergeError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "probe", me.Stage)
	var pe *probe.ProbeError
	assert.True(t, errors.As(err, &pe))
	assert.Empty(t, ffmpegCalls(r))
}

// --- Compressor ---

func newCompressor(r ffmpeg.Runner) *Compressor {
	return &Compressor{Engine: Engine{Runner: r}, Namer: naming.NewNamer()}
}

func TestCompress_RateControl(t *testing.T) {
	tests := []struct {
		name  string
		codec string
		flag  string
		val   string
	}{
		{"crf codec", "libx264", "-crf", "25"},
		{"bitrate codec", "libvpx-vp9", "-b:v", "2M"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			r := &ffmpegtest.Runner{}
			out, err := newCompressor(r).Compress(context.Background(), "/in/talk_1.mp4", dir,
				CompressionProfile{Quality: 25, Preset: "medium", Codec: tt.codec})
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, "talk_1_compressed.mp4"), out)

			calls := ffmpegCalls(r)
			require.Len(t, calls, 1)
			assert.True(t, calls[0].Has(tt.flag, tt.val), "args: %v", calls[0].Args)
			assert.True(t, calls[0].Has("-c:a", "aac"))
			assert.True(t, calls[0].Has("-b:a", "128k"))
		})
	}
}

func TestCompress_CollisionAndParentDir(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "talk_compressed.mp4"))
	out, err := newCompressor(&ffmpegtest.Runner{}).Compress(context.Background(), "/in/talk.mkv",
		filepath.Join(dir, "whatever.mp4"), CompressionProfile{Quality: 20, Preset: "fast", Codec: "libx265"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "talk_compressed_1.mp4"), out)
}

func TestCompress_InvalidProfile(t *testing.T) {
	r := &ffmpegtest.Runner{}
	_, err := newCompressor(r).Compress(context.Background(), "a.mp4", t.TempDir(), CompressionProfile{Quality: 60, Preset: "fast", Codec: "libx264"})
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "quality", ve.Field)
	assert.Empty(t, r.Calls())
}

func TestCompress_Failure(t *testing.T) {
	r := &ffmpegtest.Runner{Handler: func(context.Context, ffmpegtest.Call) ffmpeg.ExecResult {
		return ffmpegtest.Fail("Unknown encoder 'libnope'\n")
	}}
	_, err := newCompressor(r).Compress(context.Background(), "a.mp4", t.TempDir(), CompressionProfile{Quality: 20, Preset: "fast", Codec: "libnope"})
	var ce *CompressError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "Unknown encoder 'libnope'", ce.Detail)
	assert.Equal(t, 1, ce.ExitCode)
}

// --- Types and Save ---

func TestSegmentRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     SegmentRequest
		wantErr bool
	}{
		{"valid", SegmentRequest{StartTime: 0, EndTime: 1}, false},
		{"negative start", SegmentRequest{StartTime: -1, EndTime: 1}, true},
		{"empty range", SegmentRequest{StartTime: 3, EndTime: 3}, true},
		{"reversed", SegmentRequest{StartTime: 4, EndTime: 3}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCompressionProfile_Validate(t *testing.T) {
	assert.NoError(t, CompressionProfile{Quality: 0, Preset: "slow", Codec: "libx264"}.Validate())
	assert.NoError(t, CompressionProfile{Quality: 51, Preset: "slow", Codec: "libx264"}.Validate())
	assert.Error(t, CompressionProfile{Quality: -1, Preset: "slow", Codec: "libx264"}.Validate())
	assert.Error(t, CompressionProfile{Quality: 20, Codec: "libx264"}.Validate())
	assert.Error(t, CompressionProfile{Quality: 20, Preset: "slow"}.Validate())
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "result.mp4")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	dst, err := Save(src, filepath.Join(dir, "exports", "final.mp4"))
	require.NoError(t, err)
	b, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(b))

	intoDir, err := Save(src, filepath.Join(dir, "exports"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "exports", "result.mp4"), intoDir)

	_, err = Save(src, src)
	assert.Error(t, err)

	_, err = Save(filepath.Join(dir, "missing.mp4"), filepath.Join(dir, "x.mp4"))
	assert.Error(t, err)
}
