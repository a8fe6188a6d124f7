package planner

// BuildSegmentPlan returns the ordered stages for a segment. Cutting always
// runs; merging runs when an intro is attached; compressing runs when a
// compression profile was supplied.
func BuildSegmentPlan(hasIntro, compress bool) SegmentPlan {
	stages := []Stage{StageCut}
	if hasIntro {
		stages = append(stages, StageMerge)
	}
	if compress {
		stages = append(stages, StageCompress)
	}
	return SegmentPlan{Stages: stages}
}
