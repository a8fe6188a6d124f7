package media

import (
	"context"
	"os"

	"github.com/backmassage/clipsmith/internal/ffmpeg"
	"github.com/backmassage/clipsmith/internal/logging"
)

// Engine is what every operation needs to invoke ffmpeg.
type Engine struct {
	FFmpeg string // Binary; "ffmpeg" when empty.
	Runner ffmpeg.Runner
	Log    *logging.Logger
}

func (e *Engine) run(ctx context.Context, args []string) ffmpeg.ExecResult {
	bin := e.FFmpeg
	if bin == "" {
		bin = "ffmpeg"
	}
	return e.Runner.Run(ctx, bin, args)
}

func (e *Engine) logger() *logging.Logger {
	if e.Log == nil {
		return logging.Nop()
	}
	return e.Log
}

// logStderr writes the exit code and tail of a failed run at debug level.
func (e *Engine) logStderr(res ffmpeg.ExecResult) {
	e.logger().Debug("ffmpeg exited with code %d", res.ExitCode())
	for _, line := range ffmpeg.TailLines(res.Stderr, 20) {
		e.logger().Debug("  %s", line)
	}
}

// removePartial deletes whatever a failed run left at path.
func removePartial(path string) {
	if path != "" {
		_ = os.Remove(path)
	}
}
