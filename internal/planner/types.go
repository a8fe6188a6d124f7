package planner

// Stage is one step of a segment's processing.
type Stage string

const (
	StageCut      Stage = "cut"
	StageMerge    Stage = "merge"
	StageCompress Stage = "compress"
)

// RateMode selects how the video encoder is rate-controlled.
type RateMode int

const (
	RateCRF     RateMode = iota // Constant rate factor (-crf).
	RateBitrate                 // Target bitrate (-b:v).
)

func (m RateMode) String() string {
	if m == RateCRF {
		return "crf"
	}
	return "bitrate"
}

// RateControl is the resolved video rate-control setting for one encode.
type RateControl struct {
	Mode    RateMode
	CRF     int    // Set when Mode == RateCRF.
	Bitrate string // Set when Mode == RateBitrate, e.g. "5M".
}

// SegmentPlan lists the ordered stages for one segment.
type SegmentPlan struct {
	Stages []Stage
}

// Has reports whether the plan includes stage s.
func (p SegmentPlan) Has(s Stage) bool {
	for _, st := range p.Stages {
		if st == s {
			return true
		}
	}
	return false
}
