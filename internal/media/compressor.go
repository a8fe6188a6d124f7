package media

import (
	"context"

	"github.com/backmassage/clipsmith/internal/ffmpeg"
	"github.com/backmassage/clipsmith/internal/naming"
	"github.com/backmassage/clipsmith/internal/planner"
)

// Compressor re-encodes a file to a CompressionProfile.
type Compressor struct {
	Engine
	Namer        *naming.Namer
	AudioCodec   string // "aac" when empty.
	AudioBitrate string // "128k" when empty.
}

// Compress writes <sourceStem>_compressed[_N].mp4 in outDir and returns its
// path. CRF codecs get -crf; everything else a bitrate band.
func (c *Compressor) Compress(ctx context.Context, source, outDir string, profile CompressionProfile) (string, error) {
	if err := profile.Validate(); err != nil {
		return "", err
	}

	out := c.Namer.Next(outDir, naming.CompressedBase(source))
	defer c.Namer.Release(out)

	rate := planner.SelectRateControl(profile.Codec, profile.Quality)
	res := c.run(ctx, ffmpeg.CompressArgs(ffmpeg.CompressSpec{
		Input:        source,
		Output:       out,
		Codec:        profile.Codec,
		Preset:       profile.Preset,
		Rate:         rate,
		AudioCodec:   orDefault(c.AudioCodec, "aac"),
		AudioBitrate: orDefault(c.AudioBitrate, "128k"),
	}))
	if res.Err != nil {
		removePartial(out)
		c.logStderr(res)
		return "", &CompressError{Source: source, Detail: ffmpeg.Diagnose(res.Stderr), ExitCode: res.ExitCode(), Err: res.Err}
	}
	c.logger().Debug("compressed %s -> %s (%s, %s)", source, out, profile.Codec, rate.Mode)
	return out, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
