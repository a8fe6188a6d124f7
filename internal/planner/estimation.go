package planner

import "time"

// EstimateRemaining extrapolates the time left in a batch from the time the
// last item took: elapsed × items still to process. index is zero-based and
// refers to the item that just finished. It returns false when nothing is
// left or the inputs are unusable.
func EstimateRemaining(itemElapsed time.Duration, index, total int) (time.Duration, bool) {
	remaining := total - index - 1
	if remaining <= 0 || itemElapsed <= 0 {
		return 0, false
	}
	return itemElapsed * time.Duration(remaining), true
}

// ProgressPercent converts encoded output time into a completion percentage
// of total, clamped to [0, 100]. A non-positive total yields 0.
func ProgressPercent(encoded, total time.Duration) float64 {
	if total <= 0 || encoded <= 0 {
		return 0
	}
	pct := float64(encoded) / float64(total) * 100
	if pct > 100 {
		return 100
	}
	return pct
}
