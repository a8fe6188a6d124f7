package ffmpeg

import (
	"strconv"
	"strings"

	ffmpeggo "github.com/u2takey/ffmpeg-go"

	"github.com/backmassage/clipsmith/internal/planner"
)

// preamble is prepended to every ffmpeg invocation.
var preamble = []string{"-hide_banner", "-nostdin"}

// CutSpec describes a stream-copy extraction of [Start, Start+Duration).
type CutSpec struct {
	Input    string
	Output   string
	Start    float64 // Seconds.
	Duration float64 // Seconds.
}

// CutArgs builds a lossless cut: seek to Start, read Duration seconds, copy
// both streams, and shift timestamps so the clip starts at zero.
func CutArgs(s CutSpec) []string {
	return ffmpeggo.Input(s.Input, ffmpeggo.KwArgs{
		"ss": formatSeconds(s.Start),
	}).Output(s.Output, ffmpeggo.KwArgs{
		"t":                 formatSeconds(s.Duration),
		"c:v":               "copy",
		"c:a":               "copy",
		"avoid_negative_ts": "make_zero",
	}).GlobalArgs(preamble...).OverWriteOutput().GetArgs()
}

// ConcatSpec describes joining an intro and a main clip.
type ConcatSpec struct {
	ListPath     string // Concat demuxer list (copy attempt only).
	IntroPath    string
	MainPath     string
	Output       string
	ProgressPath string // Optional -progress target.

	// Re-encode attempt settings.
	VideoCodec   string
	Preset       string
	CRF          int
	AudioCodec   string
	AudioBitrate string
	WithAudio    bool // Both inputs carry audio.
}

// ConcatCopyArgs builds the lossless attempt through the concat demuxer.
func ConcatCopyArgs(s ConcatSpec) []string {
	global := append([]string{}, preamble...)
	global = append(global, progressArgs(s.ProgressPath)...)
	return ffmpeggo.Input(s.ListPath, ffmpeggo.KwArgs{
		"f":    "concat",
		"safe": "0",
	}).Output(s.Output, ffmpeggo.KwArgs{
		"c": "copy",
	}).GlobalArgs(global...).OverWriteOutput().GetArgs()
}

// ConcatReencodeArgs builds the fallback attempt: both clips decoded and
// joined by the concat filter, then re-encoded with fixed settings. When
// either input lacks audio only the video streams are joined.
func ConcatReencodeArgs(s ConcatSpec) []string {
	args := make([]string, 0, 40)
	args = append(args, preamble...)
	args = append(args, "-y", "-i", s.IntroPath, "-i", s.MainPath)
	if s.WithAudio {
		args = append(args,
			"-filter_complex", "[0:v:0][0:a:0][1:v:0][1:a:0]concat=n=2:v=1:a=1[outv][outa]",
			"-map", "[outv]", "-map", "[outa]",
		)
	} else {
		args = append(args,
			"-filter_complex", "[0:v:0][1:v:0]concat=n=2:v=1:a=0[outv]",
			"-map", "[outv]",
		)
	}
	args = append(args,
		"-c:v", s.VideoCodec,
		"-preset", s.Preset,
		"-crf", strconv.Itoa(s.CRF),
	)
	if s.WithAudio {
		args = append(args, "-c:a", s.AudioCodec, "-b:a", s.AudioBitrate)
	}
	args = append(args, progressArgs(s.ProgressPath)...)
	return append(args, s.Output)
}

// CompressSpec describes a re-encode to a target codec and rate control.
type CompressSpec struct {
	Input        string
	Output       string
	Codec        string
	Preset       string
	Rate         planner.RateControl
	AudioCodec   string
	AudioBitrate string
}

// CompressArgs builds a full re-encode. Audio is always re-encoded.
func CompressArgs(s CompressSpec) []string {
	kw := ffmpeggo.KwArgs{
		"c:v":    s.Codec,
		"preset": s.Preset,
		"c:a":    s.AudioCodec,
		"b:a":    s.AudioBitrate,
	}
	if s.Rate.Mode == planner.RateCRF {
		kw["crf"] = strconv.Itoa(s.Rate.CRF)
	} else {
		kw["b:v"] = s.Rate.Bitrate
	}
	return ffmpeggo.Input(s.Input).Output(s.Output, kw).
		GlobalArgs(preamble...).OverWriteOutput().GetArgs()
}

// ConcatList renders a concat demuxer list for the given files, quoting
// each path so apostrophes survive.
func ConcatList(paths ...string) string {
	var b strings.Builder
	for _, p := range paths {
		b.WriteString("file '")
		b.WriteString(strings.ReplaceAll(p, "'", `'\''`))
		b.WriteString("'\n")
	}
	return b.String()
}

// ProbeArgs builds the ffprobe invocation that dumps format and streams as JSON.
func ProbeArgs(path string) []string {
	return []string{"-v", "quiet", "-print_format", "json", "-show_format", "-show_streams", path}
}

// VersionArgs prints the build banner. Works for ffmpeg and ffprobe.
func VersionArgs() []string {
	return []string{"-version"}
}

// EncodersArgs lists compiled-in encoders.
func EncodersArgs() []string {
	return []string{"-hide_banner", "-encoders"}
}

// FiltersArgs lists compiled-in filters.
func FiltersArgs() []string {
	return []string{"-hide_banner", "-filters"}
}

func progressArgs(path string) []string {
	if path == "" {
		return nil
	}
	return []string{"-progress", path, "-nostats"}
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
