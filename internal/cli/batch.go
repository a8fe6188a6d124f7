package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/backmassage/clipsmith/internal/check"
	"github.com/backmassage/clipsmith/internal/config"
	"github.com/backmassage/clipsmith/internal/display"
	"github.com/backmassage/clipsmith/internal/media"
	"github.com/backmassage/clipsmith/internal/pipeline"
	"github.com/backmassage/clipsmith/internal/progress"
)

// batchReport is the batch command's --json output.
type batchReport struct {
	Source  string                  `json:"source"`
	Results []media.OperationResult `json:"results"`
}

func newBatchCommand(app *App) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "batch <file.yaml>",
		Short: "Run every segment of a batch file",
		Long: `Cut each segment of the batch source in order, prepend its intro when
one is given, and compress it when the batch has a compression profile.
One failing segment never stops the others.

  source: talk.mp4
  output_dir: out
  compression: {quality: 23, preset: medium, codec: libx264}
  segments:
    - {start_time: 0, end_time: 30, output_name: opening, intro_path: intro.mp4}
    - {start_time: 95.5, end_time: 120, output_name: q-and-a}

With --progress-addr, progress events are streamed as JSON over a
websocket at /events; /status returns the latest one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			b, err := pipeline.LoadBatchFile(args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("output-dir") || b.OutputDir == "" {
				b.OutputDir = app.Cfg.OutputDir
			}

			if app.Cfg.LogFormat == config.LogConsole {
				display.PrintBanner(os.Stderr, config.Version, app.color(os.Stderr))
			}

			if app.Preflight {
				var codecs []string
				if b.Compression != nil {
					codecs = append(codecs, b.Compression.Codec)
				}
				if err := check.CheckDeps(ctx, &app.Cfg, app.Runner, codecs...); err != nil {
					return err
				}
			}

			var sinks []progress.Sink
			if app.Cfg.Verbose {
				sinks = append(sinks, progress.LogSink{Log: app.Log})
			}
			if app.Cfg.ProgressAddr != "" {
				srv, err := progress.Start(app.Cfg.ProgressAddr, app.Log)
				if err != nil {
					return fmt.Errorf("progress server: %w", err)
				}
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := srv.Close(shutdownCtx); err != nil {
						app.Log.Warn("progress server shutdown: %v", err)
					}
				}()
				sinks = append(sinks, srv)
			}
			var sink progress.Sink
			if len(sinks) > 0 {
				sink = progress.Multi(sinks...)
			}

			results, stats := app.stages(sink).Run(ctx, *b)

			if asJSON {
				enc := json.NewEncoder(app.out())
				enc.SetIndent("", "  ")
				if err := enc.Encode(batchReport{Source: b.Source, Results: results}); err != nil {
					return err
				}
			} else {
				rows := make([]display.ResultRow, len(results))
				for i, r := range results {
					rows[i] = display.ResultRow{Request: b.Segments[i], Result: r}
				}
				fmt.Fprintln(app.out(), display.RenderResults(rows, app.color(os.Stdout)))
				fmt.Fprintln(app.out(), display.Summary(stats.Succeeded, stats.Failed, stats.Interrupted, stats.TotalOutputBytes))
			}

			if !stats.AllSucceeded() {
				return errReported
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON instead of a table")
	config.BindOutputFlags(cmd.Flags(), &app.Cfg)
	config.BindMergeFlags(cmd.Flags(), &app.Cfg)
	config.BindBatchFlags(cmd.Flags(), &app.Cfg)
	return cmd
}
