package media

import (
	"context"

	"github.com/backmassage/clipsmith/internal/ffmpeg"
	"github.com/backmassage/clipsmith/internal/naming"
)

// Cutter extracts time ranges without re-encoding.
type Cutter struct {
	Engine
	Namer *naming.Namer
}

// Cut copies [req.StartTime, req.EndTime) of source into a new file in
// outDir named after req.OutputName, returning its path. Cut points snap to
// keyframes because the streams are copied, not re-encoded.
func (c *Cutter) Cut(ctx context.Context, source string, req SegmentRequest, outDir string) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}

	out := c.Namer.Next(outDir, req.OutputName)
	defer c.Namer.Release(out)

	res := c.run(ctx, ffmpeg.CutArgs(ffmpeg.CutSpec{
		Input:    source,
		Output:   out,
		Start:    req.StartTime,
		Duration: req.Duration(),
	}))
	if res.Err != nil {
		removePartial(out)
		c.logStderr(res)
		return "", &CutError{Source: source, Detail: ffmpeg.Diagnose(res.Stderr), ExitCode: res.ExitCode(), Err: res.Err}
	}
	c.logger().Debug("cut %.3f-%.3f of %s -> %s", req.StartTime, req.EndTime, source, out)
	return out, nil
}
