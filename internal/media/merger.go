package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/backmassage/clipsmith/internal/ffmpeg"
	"github.com/backmassage/clipsmith/internal/naming"
	"github.com/backmassage/clipsmith/internal/probe"
	"github.com/backmassage/clipsmith/internal/progress"
)

// Merger joins an intro clip and a main clip. It tries a lossless concat
// first and falls back once to a filter-graph re-encode.
type Merger struct {
	Engine
	Prober     *probe.Prober
	ScratchDir string // Concat lists and progress files; os.TempDir() when empty.

	// Re-encode fallback settings.
	VideoCodec   string // "libx264" when empty.
	Preset       string // "veryfast" when empty.
	CRF          int    // 23 when zero.
	AudioCodec   string // "aac" when empty.
	AudioBitrate string // "128k" when empty.

	PollInterval time.Duration // 200ms when zero.
	WaitTimeout  time.Duration // 5s when zero.
}

// Merge writes <introStem>_<mainStem>_<token>.mp4 in outDir and returns its
// path.
func (m *Merger) Merge(ctx context.Context, intro, main, outDir string) (string, error) {
	return m.merge(ctx, intro, main, outDir, nil)
}

// MergeWithProgress is Merge plus live progress: both inputs are probed up
// front for their combined duration, the engine writes a -progress file,
// and a monitor bound to this call reports percentages to report. The
// last value reported is always 100.
func (m *Merger) MergeWithProgress(ctx context.Context, intro, main, outDir string, report func(pct float64)) (string, error) {
	if report == nil {
		report = func(float64) {}
	}
	return m.merge(ctx, intro, main, outDir, report)
}

// mergeInputs is what a probe pass learned about both clips.
type mergeInputs struct {
	total     time.Duration
	withAudio bool
	probed    bool
}

func (m *Merger) merge(ctx context.Context, intro, main, outDir string, report func(float64)) (string, error) {
	var in mergeInputs
	if report != nil {
		var err error
		in, err = m.probeInputs(ctx, intro, main)
		if err != nil {
			return "", &MergeError{Stage: "probe", Intro: intro, Main: main, Err: err}
		}
	}

	scratch := m.ScratchDir
	if scratch == "" {
		scratch = os.TempDir()
	}
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return "", &MergeError{Stage: "prepare", Intro: intro, Main: main, Err: err}
	}

	token := naming.NewToken()
	listPath := filepath.Join(scratch, "clipsmith-concat-"+token+".txt")
	progressPath := ""
	if report != nil {
		progressPath = filepath.Join(scratch, "clipsmith-progress-"+token+".txt")
	}
	defer func() {
		_ = os.Remove(listPath)
		if progressPath != "" {
			_ = os.Remove(progressPath)
			_ = os.Remove(reencodeProgressPath(progressPath))
		}
	}()

	introAbs, mainAbs := absPath(intro), absPath(main)
	if err := os.WriteFile(listPath, []byte(ffmpeg.ConcatList(introAbs, mainAbs)), 0o644); err != nil {
		return "", &MergeError{Stage: "prepare", Intro: intro, Main: main, Err: err}
	}

	out := naming.MergedName(outDir, intro, main)
	spec := ffmpeg.ConcatSpec{
		ListPath:     listPath,
		IntroPath:    introAbs,
		MainPath:     mainAbs,
		Output:       out,
		ProgressPath: progressPath,
		VideoCodec:   orDefault(m.VideoCodec, "libx264"),
		Preset:       orDefault(m.Preset, "veryfast"),
		CRF:          m.crf(),
		AudioCodec:   orDefault(m.AudioCodec, "aac"),
		AudioBitrate: orDefault(m.AudioBitrate, "128k"),
		WithAudio:    in.withAudio,
	}

	if report == nil {
		if err := m.attempts(ctx, &spec, &in, nil); err != nil {
			return "", err
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	monCtx, stopMonitor := context.WithCancel(gctx)
	mon := &progress.Monitor{
		Path:        progressPath,
		Total:       in.total,
		Interval:    durationOr(m.PollInterval, 200*time.Millisecond),
		WaitTimeout: durationOr(m.WaitTimeout, 5*time.Second),
		Report:      report,
		Log:         m.Log,
	}
	g.Go(func() error { return mon.Run(monCtx) })

	mergeErr := m.attempts(gctx, &spec, &in, mon)
	stopMonitor()
	_ = g.Wait()

	if mergeErr != nil {
		return "", mergeErr
	}
	return out, nil
}

// attempts drives the copy → re-encode fallback. When mon is set, the
// re-encode writes a fresh progress file and mon is moved onto it.
func (m *Merger) attempts(ctx context.Context, spec *ffmpeg.ConcatSpec, in *mergeInputs, mon *progress.Monitor) error {
	log := m.logger()
	fb := ffmpeg.NewFallback()
	var last ffmpeg.ExecResult
	for fb.Active() {
		var args []string
		switch fb.Stage {
		case ffmpeg.StageCopy:
			args = ffmpeg.ConcatCopyArgs(*spec)
		case ffmpeg.StageReencode:
			if !in.probed {
				// Audio layout decides the filter graph; assume audio when unknown.
				spec.WithAudio = m.bothHaveAudio(ctx, spec.IntroPath, spec.MainPath)
			}
			if spec.ProgressPath != "" {
				spec.ProgressPath = reencodeProgressPath(spec.ProgressPath)
				if mon != nil {
					mon.Follow(spec.ProgressPath)
				}
			}
			log.Warn("lossless merge failed, re-encoding with %s/%s crf %d", spec.VideoCodec, spec.Preset, spec.CRF)
			args = ffmpeg.ConcatReencodeArgs(*spec)
		}

		res := m.run(ctx, args)
		last = res
		if res.Err != nil {
			removePartial(spec.Output)
			m.logStderr(res)
		}
		stage := fb.Stage
		fb.Record(res.Err)

		if res.Err != nil && ctx.Err() != nil {
			return &MergeError{Stage: stage.String(), Intro: spec.IntroPath, Main: spec.MainPath, Err: ctx.Err()}
		}
	}
	if err := fb.Err(); err != nil {
		return &MergeError{
			Stage:    ffmpeg.StageReencode.String(),
			Intro:    spec.IntroPath,
			Main:     spec.MainPath,
			Detail:   ffmpeg.Diagnose(last.Stderr),
			ExitCode: last.ExitCode(),
			Err:      err,
		}
	}
	if fb.Attempts > 1 {
		log.Info("merge recovered by re-encode: %s", spec.Output)
	}
	return nil
}

func (m *Merger) probeInputs(ctx context.Context, intro, main string) (mergeInputs, error) {
	if m.Prober == nil {
		return mergeInputs{}, errors.New("no prober configured")
	}
	a, err := m.Prober.Metadata(ctx, intro)
	if err != nil {
		return mergeInputs{}, err
	}
	b, err := m.Prober.Metadata(ctx, main)
	if err != nil {
		return mergeInputs{}, err
	}
	total := time.Duration((a.Duration + b.Duration) * float64(time.Second))
	return mergeInputs{total: total, withAudio: a.HasAudio && b.HasAudio, probed: true}, nil
}

func (m *Merger) bothHaveAudio(ctx context.Context, intro, main string) bool {
	if m.Prober == nil {
		return true
	}
	for _, p := range []string{intro, main} {
		pr, err := m.Prober.Probe(ctx, p)
		if err != nil {
			m.logger().Debug("audio check for %s failed: %v", p, err)
			return true
		}
		if !pr.HasAudio() {
			return false
		}
	}
	return true
}

func (m *Merger) crf() int {
	if m.CRF == 0 {
		return 23
	}
	return m.CRF
}

func reencodeProgressPath(p string) string {
	return strings.TrimSuffix(p, ".txt") + "-reencode.txt"
}

func durationOr(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}

func absPath(p string) string {
	if a, err := filepath.Abs(p); err == nil {
		return a
	}
	return p
}
