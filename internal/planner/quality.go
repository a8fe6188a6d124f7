package planner

import "strings"

// crfCodecs are the encoders driven by constant rate factor. Everything
// else gets a bitrate target from the quality bands.
var crfCodecs = map[string]bool{
	"libx264": true,
	"libx265": true,
}

// SupportsCRF reports whether codec is rate-controlled by -crf.
func SupportsCRF(codec string) bool {
	return crfCodecs[strings.ToLower(strings.TrimSpace(codec))]
}

// SelectRateControl maps a 0-51 quality value onto the codec's rate-control
// mode. CRF codecs use the quality directly; others use bitrate bands:
//
//	 0-10 → 8M
//	11-20 → 5M
//	21-30 → 2M
//	  31+ → 1M
func SelectRateControl(codec string, quality int) RateControl {
	if SupportsCRF(codec) {
		return RateControl{Mode: RateCRF, CRF: clamp(quality, 0, 51)}
	}
	return RateControl{Mode: RateBitrate, Bitrate: bitrateBand(quality)}
}

func bitrateBand(q int) string {
	switch {
	case q <= 10:
		return "8M"
	case q <= 20:
		return "5M"
	case q <= 30:
		return "2M"
	default:
		return "1M"
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
