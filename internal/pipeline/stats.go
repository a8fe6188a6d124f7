package pipeline

import "time"

// RunStats tracks aggregate counters and byte totals across a batch run.
type RunStats struct {
	Total            int
	Current          int
	Succeeded        int
	Failed           int
	Interrupted      int // Segments never started because the batch was cancelled.
	TotalOutputBytes int64
	Elapsed          time.Duration
}

// Processed is the number of segments that were attempted.
func (s *RunStats) Processed() int {
	return s.Succeeded + s.Failed
}

// AllSucceeded reports whether every segment in the batch produced output.
func (s *RunStats) AllSucceeded() bool {
	return s.Total > 0 && s.Succeeded == s.Total
}
