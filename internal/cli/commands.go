package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/backmassage/clipsmith/internal/check"
	"github.com/backmassage/clipsmith/internal/config"
	"github.com/backmassage/clipsmith/internal/display"
	"github.com/backmassage/clipsmith/internal/media"
	"github.com/backmassage/clipsmith/internal/naming"
	"github.com/backmassage/clipsmith/internal/pipeline"
	"github.com/backmassage/clipsmith/internal/probe"
)

// probeReport is one entry of the probe command's JSON output.
type probeReport struct {
	Path     string          `json:"path"`
	Metadata *probe.Metadata `json:"metadata,omitempty"`
	Error    string          `json:"error,omitempty"`
}

func newProbeCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "probe <file|dir>...",
		Short: "Print duration, resolution, frame rate, and codec as JSON",
		Long: `Probe each file with ffprobe and print a JSON array of metadata.
Directories are searched recursively for media files.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := pipeline.Discover(args...)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				app.Log.Warn("No media files found")
				return errReported
			}

			prober := app.stages(nil).Prober
			reports := make([]probeReport, 0, len(files))
			failed := 0
			for _, f := range files {
				md, err := prober.Metadata(cmd.Context(), f)
				if err != nil {
					app.Log.Error("%v", err)
					reports = append(reports, probeReport{Path: f, Error: err.Error()})
					failed++
					continue
				}
				app.Log.Info("%s: %s", f, describeMetadata(md))
				reports = append(reports, probeReport{Path: f, Metadata: &md})
			}

			enc := json.NewEncoder(app.out())
			enc.SetIndent("", "  ")
			if err := enc.Encode(reports); err != nil {
				return err
			}
			if failed > 0 {
				return errReported
			}
			return nil
		},
	}
}

func newCutCommand(app *App) *cobra.Command {
	var req media.SegmentRequest
	cmd := &cobra.Command{
		Use:   "cut <source>",
		Short: "Extract a time range without re-encoding",
		Long: `Copy [--start, --end) of the source into a new file. Streams are
copied, so the cut snaps to keyframes.

Examples:
  clipsmith cut talk.mp4 --start 12.5 --end 42 --name opening -o clips/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.OutputName == "" {
				req.OutputName = naming.Stem(args[0]) + "_cut"
			}
			req.OutputName = naming.SanitizeBase(req.OutputName)
			if err := app.ensureOutputDir(); err != nil {
				return err
			}
			out, err := app.stages(nil).Cutter.Cut(cmd.Context(), args[0], req, app.Cfg.OutputDir)
			if err != nil {
				return err
			}
			app.Log.Success("Cut %.3f-%.3fs -> %s", req.StartTime, req.EndTime, out)
			fmt.Fprintln(app.out(), out)
			return nil
		},
	}
	cmd.Flags().Float64Var(&req.StartTime, "start", 0, "Start time in seconds")
	cmd.Flags().Float64Var(&req.EndTime, "end", 0, "End time in seconds")
	cmd.Flags().StringVar(&req.OutputName, "name", "", "Output base name (default <source>_cut)")
	_ = cmd.MarkFlagRequired("end")
	config.BindOutputFlags(cmd.Flags(), &app.Cfg)
	return cmd
}

func newMergeCommand(app *App) *cobra.Command {
	var showProgress bool
	cmd := &cobra.Command{
		Use:   "merge <intro> <main>",
		Short: "Prepend an intro clip, re-encoding only if a lossless join fails",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.ensureOutputDir(); err != nil {
				return err
			}
			m := app.stages(nil).Merger
			var (
				out string
				err error
			)
			if showProgress {
				out, err = m.MergeWithProgress(cmd.Context(), args[0], args[1], app.Cfg.OutputDir, func(pct float64) {
					app.Log.Info("merge %.0f%%", pct)
				})
			} else {
				out, err = m.Merge(cmd.Context(), args[0], args[1], app.Cfg.OutputDir)
			}
			if err != nil {
				return err
			}
			app.Log.Success("Merged -> %s", out)
			fmt.Fprintln(app.out(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showProgress, "progress", false, "Log merge progress from ffmpeg's progress stream")
	config.BindOutputFlags(cmd.Flags(), &app.Cfg)
	config.BindMergeFlags(cmd.Flags(), &app.Cfg)
	return cmd
}

func newCompressCommand(app *App) *cobra.Command {
	var profile media.CompressionProfile
	cmd := &cobra.Command{
		Use:   "compress <file>",
		Short: "Re-encode a file to a quality, preset, and codec",
		Long: `Re-encode to <file>_compressed.mp4. libx264 and libx265 use the
quality as CRF; other codecs map it to a bitrate band (0-10 8M, 11-20 5M,
21-30 2M, above 1M). Audio is always AAC.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.ensureOutputDir(); err != nil {
				return err
			}
			out, err := app.stages(nil).Compressor.Compress(cmd.Context(), args[0], app.Cfg.OutputDir, profile)
			if err != nil {
				return err
			}
			if delta, ok := sizeChange(args[0], out); ok {
				app.Log.Success("Compressed -> %s (%s)", out, delta)
			} else {
				app.Log.Success("Compressed -> %s", out)
			}
			fmt.Fprintln(app.out(), out)
			return nil
		},
	}
	cmd.Flags().IntVar(&profile.Quality, "quality", 0, "Quality 0-51, lower is better")
	cmd.Flags().StringVar(&profile.Preset, "preset", "", "Encoder speed preset")
	cmd.Flags().StringVar(&profile.Codec, "codec", "", "Video encoder, e.g. libx264")
	for _, f := range []string{"quality", "preset", "codec"} {
		_ = cmd.MarkFlagRequired(f)
	}
	config.BindOutputFlags(cmd.Flags(), &app.Cfg)
	return cmd
}

func newSaveCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "save <result> <destination>",
		Short: "Copy a result to a file or directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := media.Save(args[0], args[1])
			if err != nil {
				return err
			}
			app.Log.Success("Saved -> %s", out)
			fmt.Fprintln(app.out(), out)
			return nil
		},
	}
}

func newCheckCommand(app *App) *cobra.Command {
	var codecs []string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report ffmpeg, encoder, filter, and disk availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !check.RunCheck(cmd.Context(), &app.Cfg, app.Runner, app.Log, codecs...) {
				return errReported
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&codecs, "codec", nil, "Also require these encoders (repeatable)")
	config.BindOutputFlags(cmd.Flags(), &app.Cfg)
	return cmd
}

// describeMetadata is the one-line human summary logged for a probed file.
func describeMetadata(md probe.Metadata) string {
	s := fmt.Sprintf("%dx%d %s %.2f fps, %s", md.Width, md.Height, md.Codec, md.Framerate, display.FormatSeconds(md.Duration))
	if md.BitRate > 0 {
		s += ", " + display.FormatBitrateLabel(md.BitRate/1000)
	}
	if !md.HasAudio {
		s += ", no audio"
	}
	return s
}

// sizeChange reports how much smaller or larger out is than src.
func sizeChange(src, out string) (string, bool) {
	a, err := os.Stat(src)
	if err != nil {
		return "", false
	}
	b, err := os.Stat(out)
	if err != nil {
		return "", false
	}
	return display.FormatBytesWithSign(b.Size() - a.Size()), true
}
