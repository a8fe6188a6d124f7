// Package cli wires clipsmith's cobra commands to the pipeline.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/backmassage/clipsmith/internal/config"
	"github.com/backmassage/clipsmith/internal/ffmpeg"
	"github.com/backmassage/clipsmith/internal/logging"
	"github.com/backmassage/clipsmith/internal/naming"
	"github.com/backmassage/clipsmith/internal/pipeline"
	"github.com/backmassage/clipsmith/internal/progress"
)

// errReported marks a failure that has already been logged; Execute only
// turns it into an exit code.
var errReported = errors.New("failed")

// App is the state shared by every command. Log and Runner are created in
// the root pre-run unless a caller (usually a test) sets them first.
type App struct {
	Cfg    config.Config
	Log    *logging.Logger
	Runner ffmpeg.Runner
	Out    io.Writer // Command results; os.Stdout when nil.

	// Preflight runs dependency checks before a batch. Tests turn it off.
	Preflight bool

	ownLog bool
}

// NewApp returns an App configured from defaults, .env, and the
// environment, in that order. Flags are applied on top when a command runs.
func NewApp() *App {
	config.LoadDotEnv()
	cfg := config.DefaultConfig()
	config.ApplyEnv(&cfg)
	return &App{Cfg: cfg, Preflight: true}
}

// Execute runs the command line in args and returns the process exit code.
func Execute(ctx context.Context, app *App, args []string) int {
	root := NewRootCommand(app)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if app.ownLog {
		app.Log.Close()
	}
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errReported):
		return 1
	case ctx.Err() != nil:
		fmt.Fprintln(os.Stderr, "clipsmith: interrupted")
		return 130
	}
	fmt.Fprintf(os.Stderr, "clipsmith: %v\n", err)
	return 1
}

// NewRootCommand builds the command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "clipsmith",
		Short:         "Cut, merge, and compress video segments with ffmpeg",
		Version:       config.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.setup()
		},
	}
	config.BindGlobalFlags(root.PersistentFlags(), &app.Cfg)

	root.AddCommand(
		newProbeCommand(app),
		newCutCommand(app),
		newMergeCommand(app),
		newCompressCommand(app),
		newSaveCommand(app),
		newBatchCommand(app),
		newCheckCommand(app),
	)
	return root
}

// setup validates the merged configuration and builds the logger and
// engine runner.
func (a *App) setup() error {
	if err := a.Cfg.Validate(); err != nil {
		return err
	}
	if a.Log == nil {
		log, err := logging.NewLogger(&a.Cfg)
		if err != nil {
			return err
		}
		a.Log, a.ownLog = log, true
	}
	if a.Runner == nil {
		a.Runner = &ffmpeg.ExecRunner{Log: a.Log, Verbose: a.Cfg.Verbose}
	}
	return nil
}

// ensureOutputDir creates the output directory (or a file target's parent).
func (a *App) ensureOutputDir() error {
	return os.MkdirAll(naming.ResolveDir(a.Cfg.OutputDir), 0o755)
}

func (a *App) out() io.Writer {
	if a.Out == nil {
		return os.Stdout
	}
	return a.Out
}

// stages returns freshly wired stages sharing one Namer.
func (a *App) stages(sink progress.Sink) *pipeline.Runner {
	return pipeline.NewRunner(&a.Cfg, a.Log, a.Runner, sink)
}

func (a *App) color(f *os.File) bool {
	return logging.ColorEnabled(a.Cfg.ColorMode, f)
}
