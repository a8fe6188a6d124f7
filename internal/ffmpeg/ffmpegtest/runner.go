// Package ffmpegtest provides a scripted ffmpeg.Runner for tests.
package ffmpegtest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/backmassage/clipsmith/internal/ffmpeg"
)

// Call records one Run invocation.
type Call struct {
	Bin  string
	Args []string
}

// Output returns the last argument, which is the output path for every
// ffmpeg invocation the builders produce. ffmpeg-go appends global args
// after the output, so those are skipped.
func (c Call) Output() string {
	for i := len(c.Args) - 1; i >= 0; i-- {
		switch c.Args[i] {
		case "-y", "-hide_banner", "-nostdin", "-nostats":
			continue
		}
		if i > 0 && c.Args[i-1] == "-progress" {
			i--
			continue
		}
		return c.Args[i]
	}
	return ""
}

// Value returns the argument following flag.
func (c Call) Value(flag string) (string, bool) {
	for i := 0; i < len(c.Args)-1; i++ {
		if c.Args[i] == flag {
			return c.Args[i+1], true
		}
	}
	return "", false
}

// Has reports whether flag appears immediately followed by val.
func (c Call) Has(flag, val string) bool {
	return HasPair(c.Args, flag, val)
}

// HasPair reports whether args contains flag immediately followed by val.
func HasPair(args []string, flag, val string) bool {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag && args[i+1] == val {
			return true
		}
	}
	return false
}

// Contains reports whether args contains s.
func Contains(args []string, s string) bool {
	for _, a := range args {
		if a == s {
			return true
		}
	}
	return false
}

// Runner is a thread-safe scripted ffmpeg.Runner. Handler decides each
// result; a nil Handler succeeds and touches the output file.
type Runner struct {
	mu      sync.Mutex
	calls   []Call
	Handler func(ctx context.Context, c Call) ffmpeg.ExecResult
}

// Run implements ffmpeg.Runner.
func (r *Runner) Run(ctx context.Context, bin string, args []string) ffmpeg.ExecResult {
	c := Call{Bin: bin, Args: append([]string(nil), args...)}
	r.mu.Lock()
	r.calls = append(r.calls, c)
	h := r.Handler
	r.mu.Unlock()
	if h == nil {
		return Succeed(c)
	}
	return h(ctx, c)
}

// Calls returns a copy of every recorded call.
func (r *Runner) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Call(nil), r.calls...)
}

// CallsTo returns the recorded calls to bin.
func (r *Runner) CallsTo(bin string) []Call {
	var out []Call
	for _, c := range r.Calls() {
		if c.Bin == bin {
			out = append(out, c)
		}
	}
	return out
}

// Succeed touches the call's output file and returns a clean result.
func Succeed(c Call) ffmpeg.ExecResult {
	if out := c.Output(); out != "" {
		if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
			return ffmpeg.ExecResult{Err: err}
		}
		if err := os.WriteFile(out, []byte("media"), 0o644); err != nil {
			return ffmpeg.ExecResult{Err: err}
		}
	}
	return ffmpeg.ExecResult{}
}

// ExitError mimics *exec.ExitError for a process that exited non-zero.
type ExitError int

func (e ExitError) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

// ExitCode returns the simulated exit code.
func (e ExitError) ExitCode() int { return int(e) }

// Fail returns an exit-status-1 result carrying stderr.
func Fail(stderr string) ffmpeg.ExecResult {
	return ffmpeg.ExecResult{Stderr: stderr, Err: ExitError(1)}
}

// JSON returns a successful result with stdout set, for ffprobe calls.
func JSON(stdout string) ffmpeg.ExecResult {
	return ffmpeg.ExecResult{Stdout: []byte(stdout)}
}
