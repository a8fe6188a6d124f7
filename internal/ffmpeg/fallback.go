package ffmpeg

import "fmt"

// MergeStage is the state of a two-tier merge.
type MergeStage int

const (
	StageCopy     MergeStage = iota // Lossless concat demuxer attempt.
	StageReencode                   // Filter-graph re-encode attempt.
	StageDone
	StageFailed
)

func (s MergeStage) String() string {
	switch s {
	case StageCopy:
		return "copy"
	case StageReencode:
		return "re-encode"
	case StageDone:
		return "done"
	case StageFailed:
		return "failed"
	}
	return fmt.Sprintf("MergeStage(%d)", int(s))
}

// Fallback tracks a merge through copy → re-encode. Each attempt is
// reported with Record; a copy failure escalates exactly once.
type Fallback struct {
	Stage    MergeStage
	Attempts int

	CopyErr     error
	ReencodeErr error
}

// NewFallback starts at the copy attempt.
func NewFallback() *Fallback {
	return &Fallback{Stage: StageCopy}
}

// Active reports whether another attempt should run.
func (f *Fallback) Active() bool {
	return f.Stage == StageCopy || f.Stage == StageReencode
}

// Record stores the outcome of the current attempt and returns the next stage.
// Recording after a terminal stage is a no-op.
func (f *Fallback) Record(err error) MergeStage {
	if !f.Active() {
		return f.Stage
	}
	f.Attempts++
	switch f.Stage {
	case StageCopy:
		if err == nil {
			f.Stage = StageDone
		} else {
			f.CopyErr = err
			f.Stage = StageReencode
		}
	case StageReencode:
		if err == nil {
			f.Stage = StageDone
		} else {
			f.ReencodeErr = err
			f.Stage = StageFailed
		}
	}
	return f.Stage
}

// Err returns the error that ended a failed merge: the re-encode error,
// since it is the last attempt made.
func (f *Fallback) Err() error {
	if f.Stage != StageFailed {
		return nil
	}
	return f.ReencodeErr
}
