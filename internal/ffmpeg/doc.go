// Package ffmpeg builds engine argument vectors, runs ffmpeg/ffprobe as
// subprocesses, condenses their stderr into diagnostics, and tracks the
// copy-then-re-encode fallback used by the merge path.
//
// Files:
//   - executor.go: Runner interface and the os/exec implementation
//   - builder.go: cut, concat, and compress argument builders
//   - errors.go: stderr classification and diagnosis
//   - fallback.go: merge attempt state machine
package ffmpeg
