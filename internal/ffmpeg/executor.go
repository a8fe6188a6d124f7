package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
	"path/filepath"

	"github.com/backmassage/clipsmith/internal/logging"
)

// ExecResult holds the outcome of a single engine invocation.
type ExecResult struct {
	Stdout []byte
	Stderr string
	Err    error
}

// ExitCode returns the process exit code, -1 when the process did not
// start or was killed, and 0 on success. Any error in the chain with an
// ExitCode method (such as *exec.ExitError) supplies the code.
func (r ExecResult) ExitCode() int {
	if r.Err == nil {
		return 0
	}
	var ee interface{ ExitCode() int }
	if errors.As(r.Err, &ee) {
		return ee.ExitCode()
	}
	return -1
}

// Runner runs an engine binary with the given arguments and blocks until it
// exits or ctx is cancelled.
type Runner interface {
	Run(ctx context.Context, bin string, args []string) ExecResult
}

// ExecRunner is the os/exec Runner. When Verbose is set, stderr is streamed
// line by line into debug log events while still being captured for
// diagnosis.
type ExecRunner struct {
	Log     *logging.Logger
	Verbose bool
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, bin string, args []string) ExecResult {
	cmd := exec.CommandContext(ctx, bin, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf

	var lw *logging.LineWriter
	if r.Verbose && r.Log != nil {
		lw = r.Log.NewLineWriter(map[string]string{"bin": filepath.Base(bin)})
		cmd.Stderr = io.MultiWriter(&stderrBuf, lw)
	} else {
		cmd.Stderr = &stderrBuf
	}

	if r.Log != nil {
		r.Log.Debug("exec %s %q", bin, args)
	}
	err := cmd.Run()
	if lw != nil {
		lw.Flush()
	}
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	return ExecResult{
		Stdout: stdoutBuf.Bytes(),
		Stderr: stderrBuf.String(),
		Err:    err,
	}
}
