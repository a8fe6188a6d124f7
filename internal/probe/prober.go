package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/backmassage/clipsmith/internal/ffmpeg"
)

// Prober runs ffprobe through an ffmpeg.Runner.
type Prober struct {
	Bin    string // ffprobe binary; "ffprobe" when empty.
	Runner ffmpeg.Runner
}

// Probe runs a single ffprobe JSON call against path and returns the
// parsed result.
func (p *Prober) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	bin := p.Bin
	if bin == "" {
		bin = "ffprobe"
	}
	res := p.Runner.Run(ctx, bin, ffmpeg.ProbeArgs(path))
	if res.Err != nil {
		return nil, &ProbeError{Path: path, Detail: ffmpeg.Diagnose(res.Stderr), Err: res.Err}
	}
	pr, err := ParseJSON(res.Stdout)
	if err != nil {
		return nil, &ProbeError{Path: path, Err: err}
	}
	return pr, nil
}

// Metadata probes path and validates the fields clipsmith relies on.
// Nothing is cached; every call runs ffprobe again.
func (p *Prober) Metadata(ctx context.Context, path string) (Metadata, error) {
	pr, err := p.Probe(ctx, path)
	if err != nil {
		return Metadata{}, err
	}
	md, err := MetadataFromResult(pr)
	if err != nil {
		return Metadata{}, &ProbeError{Path: path, Detail: fieldOf(err), Err: unwrapField(err)}
	}
	return md, nil
}

// Duration probes path and returns only its duration in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	md, err := p.Metadata(ctx, path)
	if err != nil {
		return 0, err
	}
	return md.Duration, nil
}

// fieldError names the field that failed validation.
type fieldError struct {
	field string
	err   error
}

func (e *fieldError) Error() string { return e.field + ": " + e.err.Error() }
func (e *fieldError) Unwrap() error { return e.err }

func fieldOf(err error) string {
	if fe, ok := err.(*fieldError); ok {
		return fe.field
	}
	return ""
}

func unwrapField(err error) error {
	if fe, ok := err.(*fieldError); ok {
		return fe.err
	}
	return err
}

// MetadataFromResult reduces a ProbeResult to Metadata, rejecting results
// without a video stream or with a non-positive duration, dimension, or
// frame rate.
func MetadataFromResult(pr *ProbeResult) (Metadata, error) {
	v := pr.PrimaryVideo
	if v == nil {
		return Metadata{}, ErrNoVideoStream
	}
	if pr.Format.Duration <= 0 {
		return Metadata{}, &fieldError{"duration", ErrMissingField}
	}
	if v.Width <= 0 {
		return Metadata{}, &fieldError{"width", ErrMissingField}
	}
	if v.Height <= 0 {
		return Metadata{}, &fieldError{"height", ErrMissingField}
	}
	rate := v.RFrameRate
	if rate == "" {
		rate = v.AvgFrameRate
	}
	fps, err := ParseRational(rate)
	if err != nil {
		return Metadata{}, &fieldError{"r_frame_rate", err}
	}
	codec := v.Codec
	if codec == "" {
		codec = "unknown"
	}
	bitRate := pr.Format.BitRate
	if bitRate <= 0 {
		bitRate = max(v.BitRate, 0)
	}
	return Metadata{
		Duration:  pr.Format.Duration,
		Width:     v.Width,
		Height:    v.Height,
		Framerate: fps,
		Codec:     codec,
		HasAudio:  pr.HasAudio(),
		BitRate:   bitRate,
	}, nil
}

// ParseRational parses an ffprobe "num/den" rate (or a bare number) into a
// positive float. A zero denominator is an error, not a zero rate.
func ParseRational(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrMissingField
	}
	num, den, found := strings.Cut(s, "/")
	n, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: rate %q", ErrMissingField, s)
	}
	d := 1.0
	if found {
		d, err = strconv.ParseFloat(strings.TrimSpace(den), 64)
		if err != nil || d == 0 {
			return 0, fmt.Errorf("%w: rate %q", ErrMissingField, s)
		}
	}
	r := n / d
	if r <= 0 {
		return 0, fmt.Errorf("%w: rate %q", ErrMissingField, s)
	}
	return r, nil
}

// ParseJSON converts raw ffprobe JSON output into a ProbeResult.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (*ProbeResult, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}
	return buildResult(&raw), nil
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Filename   string `json:"filename"`
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
	BitRate    string `json:"bit_rate"`
}

type ffprobeStream struct {
	Index        int            `json:"index"`
	CodecName    string         `json:"codec_name"`
	CodecType    string         `json:"codec_type"`
	Width        int            `json:"width"`
	Height       int            `json:"height"`
	BitRate      string         `json:"bit_rate"`
	RFrameRate   string         `json:"r_frame_rate"`
	AvgFrameRate string         `json:"avg_frame_rate"`
	Channels     int            `json:"channels"`
	SampleRate   string         `json:"sample_rate"`
	Disposition  map[string]int `json:"disposition"`
}

// --- Conversion from wire types to domain types ---

func buildResult(raw *ffprobeOutput) *ProbeResult {
	pr := &ProbeResult{
		Format: FormatInfo{
			Filename:   raw.Format.Filename,
			FormatName: raw.Format.FormatName,
			Duration:   parseFloat(raw.Format.Duration),
			Size:       parseInt64(raw.Format.Size),
			BitRate:    parseInt64(raw.Format.BitRate),
		},
	}

	for i := range raw.Streams {
		s := &raw.Streams[i]
		switch s.CodecType {
		case "video":
			vs := VideoStream{
				Index:         s.Index,
				Codec:         s.CodecName,
				Width:         s.Width,
				Height:        s.Height,
				BitRate:       parseInt64(s.BitRate),
				IsAttachedPic: s.Disposition["attached_pic"] == 1,
				RFrameRate:    s.RFrameRate,
				AvgFrameRate:  s.AvgFrameRate,
			}
			if !vs.IsAttachedPic && pr.PrimaryVideo == nil {
				pr.PrimaryVideo = &vs
			}
		case "audio":
			pr.AudioStreams = append(pr.AudioStreams, AudioStream{
				Index:      s.Index,
				Codec:      s.CodecName,
				Channels:   s.Channels,
				SampleRate: parseInt(s.SampleRate),
			})
		}
	}
	return pr
}

// --- Numeric parsing helpers (ffprobe returns numbers as strings) ---

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}

func parseInt(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
