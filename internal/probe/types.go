package probe

// FormatInfo holds container-level metadata from ffprobe's format section.
type FormatInfo struct {
	Filename   string
	FormatName string
	Duration   float64
	Size       int64
	BitRate    int64
}

// VideoStream holds the parsed properties of a single video stream.
type VideoStream struct {
	Index         int
	Codec         string
	Width         int
	Height        int
	BitRate       int64
	IsAttachedPic bool
	RFrameRate    string // Real base frame rate, e.g. "30000/1001".
	AvgFrameRate  string
}

// AudioStream holds the parsed properties of a single audio stream.
type AudioStream struct {
	Index      int
	Codec      string
	Channels   int
	SampleRate int
}

// ProbeResult is the parsed output of a single ffprobe JSON call.
// PrimaryVideo is the first non-attached-pic video stream (nil if none).
type ProbeResult struct {
	Format       FormatInfo
	PrimaryVideo *VideoStream
	AudioStreams []AudioStream
}

// HasAudio reports whether the file carries at least one audio stream.
func (p *ProbeResult) HasAudio() bool {
	return len(p.AudioStreams) > 0
}

// Metadata is the read-only snapshot a probe yields. Duration, dimensions,
// and frame rate are positive; Codec is "unknown" when ffprobe does not name
// it. BitRate is 0 when neither the container nor the stream reports one.
type Metadata struct {
	Duration  float64 `json:"duration"`  // Seconds.
	Width     int     `json:"width"`     // Pixels.
	Height    int     `json:"height"`    // Pixels.
	Framerate float64 `json:"framerate"` // Frames per second.
	Codec     string  `json:"codec"`
	HasAudio  bool    `json:"has_audio"`
	BitRate   int64   `json:"bit_rate,omitempty"` // Bits per second.
}
