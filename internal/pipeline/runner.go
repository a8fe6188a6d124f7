package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/backmassage/clipsmith/internal/config"
	"github.com/backmassage/clipsmith/internal/display"
	"github.com/backmassage/clipsmith/internal/ffmpeg"
	"github.com/backmassage/clipsmith/internal/logging"
	"github.com/backmassage/clipsmith/internal/media"
	"github.com/backmassage/clipsmith/internal/naming"
	"github.com/backmassage/clipsmith/internal/planner"
	"github.com/backmassage/clipsmith/internal/probe"
	"github.com/backmassage/clipsmith/internal/progress"
)

// Runner processes batches. All operations share one Namer so names
// reserved by one stage are never handed to another.
type Runner struct {
	Cfg        *config.Config
	Log        *logging.Logger
	Cutter     *media.Cutter
	Merger     *media.Merger
	Compressor *media.Compressor
	Prober     *probe.Prober
	Sink       progress.Sink // Optional. When set, merges report live progress.
}

// NewRunner wires every stage to exec using the settings in cfg.
func NewRunner(cfg *config.Config, log *logging.Logger, exec ffmpeg.Runner, sink progress.Sink) *Runner {
	namer := naming.NewNamer()
	eng := media.Engine{FFmpeg: cfg.FFmpegPath, Runner: exec, Log: log}
	prober := &probe.Prober{Bin: cfg.FFprobePath, Runner: exec}
	return &Runner{
		Cfg:    cfg,
		Log:    log,
		Cutter: &media.Cutter{Engine: eng, Namer: namer},
		Merger: &media.Merger{
			Engine:       eng,
			Prober:       prober,
			ScratchDir:   cfg.ScratchRoot(),
			VideoCodec:   cfg.FallbackCodec,
			Preset:       cfg.FallbackPreset,
			CRF:          cfg.FallbackCRF,
			AudioCodec:   cfg.AudioCodec,
			AudioBitrate: cfg.AudioBitrate,
			PollInterval: cfg.ProgressPollInterval,
			WaitTimeout:  cfg.ProgressWaitTimeout,
		},
		Compressor: &media.Compressor{
			Engine:       eng,
			Namer:        namer,
			AudioCodec:   cfg.AudioCodec,
			AudioBitrate: cfg.AudioBitrate,
		},
		Prober: prober,
		Sink:   sink,
	}
}

// Run processes b.Segments strictly in order and returns exactly one result
// per segment. A failing segment never stops the batch; cancelling ctx
// does, and every segment not yet started is reported as interrupted.
func (r *Runner) Run(ctx context.Context, b Batch) ([]media.OperationResult, RunStats) {
	start := time.Now()
	stats := RunStats{Total: len(b.Segments)}
	results := make([]media.OperationResult, 0, len(b.Segments))

	outDir := b.OutputDir
	if outDir == "" {
		outDir = r.Cfg.OutputDir
	}
	if err := os.MkdirAll(naming.ResolveDir(outDir), 0o755); err != nil {
		r.Log.Error("Cannot create output directory: %v", err)
		for range b.Segments {
			results = append(results, media.Failed(fmt.Sprintf("Cannot create output directory: %v", err), ""))
		}
		stats.Failed = stats.Total
		stats.Elapsed = time.Since(start)
		return results, stats
	}

	r.Log.Info("Batch: %d segments from %s -> %s", stats.Total, b.Source, outDir)
	sourceDuration := r.sourceDuration(ctx, b)

	for i, req := range b.Segments {
		if ctx.Err() != nil {
			r.Log.Warn("Interrupted")
			for range b.Segments[i:] {
				results = append(results, media.Failed("interrupted", ""))
				stats.Interrupted++
			}
			break
		}
		stats.Current = i + 1

		if req.OutputName == "" {
			req.OutputName = fmt.Sprintf("segment_%d", i+1)
		}
		req.OutputName = naming.SanitizeBase(req.OutputName)

		itemStart := time.Now()
		res := r.processSegment(ctx, b, req, i, outDir, sourceDuration)
		results = append(results, res)

		if !res.Success {
			stats.Failed++
			r.emit(progress.Event{Index: i, Total: stats.Total, Status: progress.StatusFailed})
			r.Log.Error("[%d/%d] %s", i+1, stats.Total, res.Error)
			continue
		}

		elapsed := time.Since(itemStart)
		stats.Succeeded++
		if fi, err := os.Stat(res.OutputPath); err == nil {
			stats.TotalOutputBytes += fi.Size()
		}
		done := progress.Event{Index: i, Total: stats.Total, Status: progress.StatusCompleted, Progress: 100}
		if eta, ok := planner.EstimateRemaining(elapsed, i, stats.Total); ok {
			done.EstimatedTime = progress.Seconds(eta.Seconds())
		} else if i == stats.Total-1 {
			done.EstimatedTime = progress.Seconds(0)
		}
		r.emit(done)
		r.Log.Elapsed(elapsed, "[%d/%d] -> %s", i+1, stats.Total, filepath.Base(res.OutputPath))
	}

	stats.Elapsed = time.Since(start)
	r.logSummary(&stats)
	return results, stats
}

// processSegment runs the stages for one request and converts every
// failure into a result.
func (r *Runner) processSegment(ctx context.Context, b Batch, req media.SegmentRequest, index int, outDir string, sourceDuration float64) media.OperationResult {
	total := len(b.Segments)
	plan := planner.BuildSegmentPlan(req.HasIntro(), b.Compression != nil)
	r.Log.Info("[%d/%d] %s %.3f-%.3fs (%s)", index+1, total, req.OutputName, req.StartTime, req.EndTime, planLabel(plan))

	r.emit(progress.Event{Index: index, Total: total, Status: progress.StatusCutting})
	if err := checkBounds(req, sourceDuration); err != nil {
		return media.Failed("Failed to cut segment: "+err.Error(), "")
	}

	current, err := r.Cutter.Cut(ctx, b.Source, req, outDir)
	if err != nil {
		return media.Failed("Failed to cut segment: "+err.Error(), "")
	}
	r.emit(progress.Event{Index: index, Total: total, Status: progress.StatusCutting, Progress: 50})

	if plan.Has(planner.StageMerge) {
		r.emit(progress.Event{Index: index, Total: total, Status: progress.StatusAddingIntro})
		merged, err := r.merge(ctx, req.IntroPath, current, outDir, index, total)
		if err != nil {
			return media.Failed("Failed to add intro: "+err.Error(), current)
		}
		r.emit(progress.Event{Index: index, Total: total, Status: progress.StatusAddingIntro, Progress: 100})
		r.dropIntermediate(current)
		current = merged
	}

	if plan.Has(planner.StageCompress) {
		r.emit(progress.Event{Index: index, Total: total, Status: progress.StatusCompressing})
		compressed, err := r.Compressor.Compress(ctx, current, outDir, *b.Compression)
		if err != nil {
			return media.Failed("Failed to compress: "+err.Error(), current)
		}
		r.dropIntermediate(current)
		current = compressed
	}

	return media.Succeeded(current)
}

// merge uses the progress variant only when someone is listening. Values
// below 100 are forwarded as they arrive; 100 is emitted by the caller once
// the merge has actually succeeded.
func (r *Runner) merge(ctx context.Context, intro, main, outDir string, index, total int) (string, error) {
	if r.Sink == nil {
		return r.Merger.Merge(ctx, intro, main, outDir)
	}
	return r.Merger.MergeWithProgress(ctx, intro, main, outDir, func(pct float64) {
		if pct < 100 {
			r.emit(progress.Event{Index: index, Total: total, Status: progress.StatusAddingIntro, Progress: pct})
		}
	})
}

// sourceDuration probes the batch source once when bounds checking is on.
// Zero means unknown; segments are then left to the engine.
func (r *Runner) sourceDuration(ctx context.Context, b Batch) float64 {
	if !r.Cfg.ValidateBounds || r.Prober == nil || len(b.Segments) == 0 {
		return 0
	}
	d, err := r.Prober.Duration(ctx, b.Source)
	if err != nil {
		r.Log.Warn("Cannot probe source, segment bounds left to ffmpeg: %v", err)
		return 0
	}
	r.Log.Debug("Source duration: %.3fs", d)
	return d
}

// checkBounds rejects malformed ranges always, and ranges past the end of
// the source when its duration is known.
func checkBounds(req media.SegmentRequest, sourceDuration float64) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if sourceDuration > 0 && req.EndTime > sourceDuration {
		return &media.ValidationError{
			Field:  "end_time",
			Reason: fmt.Sprintf("%.3fs is past the end of the source (%.3fs)", req.EndTime, sourceDuration),
		}
	}
	return nil
}

func (r *Runner) dropIntermediate(path string) {
	if r.Cfg.KeepIntermediates {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		r.Log.Warn("Cannot remove intermediate %s: %v", path, err)
	}
}

func (r *Runner) emit(e progress.Event) {
	if r.Sink != nil {
		r.Sink.Emit(e)
	}
}

func planLabel(p planner.SegmentPlan) string {
	s := ""
	for i, st := range p.Stages {
		if i > 0 {
			s += " > "
		}
		s += string(st)
	}
	return s
}

func (r *Runner) logSummary(stats *RunStats) {
	r.Log.Info("==============================")
	r.Log.Info("Done: %d succeeded, %d failed, %d interrupted", stats.Succeeded, stats.Failed, stats.Interrupted)
	r.Log.Info("  Total output: %s", display.FormatBytes(stats.TotalOutputBytes))
	if stats.AllSucceeded() {
		r.Log.Success("  All %d segments completed in %s", stats.Total, stats.Elapsed.Round(time.Millisecond))
	} else if stats.Failed > 0 {
		r.Log.Warn("  %d of %d segments failed", stats.Failed, stats.Total)
	}
}
