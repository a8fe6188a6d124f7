package media

import (
	"math"
	"strings"
)

// SegmentRequest is one time range to extract from the batch source.
type SegmentRequest struct {
	StartTime  float64 `yaml:"start_time" json:"start_time"` // Seconds, >= 0.
	EndTime    float64 `yaml:"end_time" json:"end_time"`     // Seconds, > StartTime.
	IntroPath  string  `yaml:"intro_path,omitempty" json:"intro_path,omitempty"`
	OutputName string  `yaml:"output_name" json:"output_name"`
}

// Duration is EndTime - StartTime in seconds.
func (r SegmentRequest) Duration() float64 { return r.EndTime - r.StartTime }

// HasIntro reports whether an intro should be prepended.
func (r SegmentRequest) HasIntro() bool { return strings.TrimSpace(r.IntroPath) != "" }

// Validate checks the time range without touching the source.
func (r SegmentRequest) Validate() error {
	if math.IsNaN(r.StartTime) || math.IsInf(r.StartTime, 0) || math.IsNaN(r.EndTime) || math.IsInf(r.EndTime, 0) {
		return &ValidationError{Field: "time", Reason: "start and end must be finite"}
	}
	if r.StartTime < 0 {
		return &ValidationError{Field: "start_time", Reason: "must not be negative"}
	}
	if r.EndTime <= r.StartTime {
		return &ValidationError{Field: "end_time", Reason: "must be after start_time"}
	}
	return nil
}

// CompressionProfile selects the encoder and its quality. There are no
// defaults: every field must be set.
type CompressionProfile struct {
	Quality int    `yaml:"quality" json:"quality"` // 0-51, lower is better.
	Preset  string `yaml:"preset" json:"preset"`
	Codec   string `yaml:"codec" json:"codec"`
}

// Validate rejects incomplete or out-of-range profiles.
func (p CompressionProfile) Validate() error {
	if p.Quality < 0 || p.Quality > 51 {
		return &ValidationError{Field: "quality", Reason: "must be within 0-51"}
	}
	if strings.TrimSpace(p.Preset) == "" {
		return &ValidationError{Field: "preset", Reason: "must be set"}
	}
	if strings.TrimSpace(p.Codec) == "" {
		return &ValidationError{Field: "codec", Reason: "must be set"}
	}
	return nil
}

// OperationResult is the per-segment outcome of a batch. OutputPath is set
// on success and, on failure, when a usable intermediate file survived.
type OperationResult struct {
	Success    bool   `json:"success"`
	OutputPath string `json:"output_path,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Succeeded returns a successful result for path.
func Succeeded(path string) OperationResult {
	return OperationResult{Success: true, OutputPath: path}
}

// Failed returns a failed result; partial may be empty.
func Failed(msg, partial string) OperationResult {
	return OperationResult{Error: msg, OutputPath: partial}
}
