package progress

import (
	"bytes"
	"strconv"
	"time"
)

// Snapshot is what one read of a progress file yields.
type Snapshot struct {
	OutTime time.Duration // Latest encoded output time.
	HasTime bool
	Ended   bool // progress=end was seen.
}

// ParseProgress scans ffmpeg -progress key=value lines and returns the last
// output time and whether the run ended. out_time_ms carries microseconds
// despite its name; out_time_us is accepted too.
func ParseProgress(data []byte) Snapshot {
	var s Snapshot
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		key, val, ok := bytes.Cut(bytes.TrimSpace(line), []byte{'='})
		if !ok {
			continue
		}
		switch string(key) {
		case "out_time_ms", "out_time_us":
			us, err := strconv.ParseInt(string(val), 10, 64)
			if err != nil || us < 0 {
				continue
			}
			s.OutTime = time.Duration(us) * time.Microsecond
			s.HasTime = true
		case "progress":
			if string(val) == "end" {
				s.Ended = true
			}
		}
	}
	return s
}
