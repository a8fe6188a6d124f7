package ffmpeg

import (
	"regexp"
	"strings"
)

// Category is a coarse classification of an engine failure.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryMissingInput
	CategoryInvalidData
	CategoryStreamMismatch
	CategoryUnknownEncoder
	CategoryPermission
	CategoryNoSpace
)

func (c Category) String() string {
	switch c {
	case CategoryMissingInput:
		return "missing input"
	case CategoryInvalidData:
		return "invalid data"
	case CategoryStreamMismatch:
		return "stream mismatch"
	case CategoryUnknownEncoder:
		return "unknown encoder"
	case CategoryPermission:
		return "permission denied"
	case CategoryNoSpace:
		return "no space left"
	}
	return "unknown"
}

// Pre-compiled classifiers, checked in order by Classify; the first match wins.
var classifiers = []struct {
	cat Category
	re  *regexp.Regexp
}{
	{CategoryMissingInput, regexp.MustCompile(`(?i)No such file or directory`)},
	{CategoryPermission, regexp.MustCompile(`(?i)Permission denied`)},
	{CategoryNoSpace, regexp.MustCompile(`(?i)No space left on device`)},
	{CategoryUnknownEncoder, regexp.MustCompile(`(?i)Unknown encoder|Encoder not found|Unrecognized option`)},
	{CategoryInvalidData, regexp.MustCompile(
		`(?i)Invalid data found when processing input|moov atom not found|` +
			`Invalid argument|could not find codec parameters`)},
	{CategoryStreamMismatch, regexp.MustCompile(
		`(?i)Non-monotonous DTS|non monotonically increasing dts|` +
			`codec parameters .*do not match|Impossible to open|` +
			`Media type mismatch|Error while filtering|Input link .* parameters`)},
}

// Classify returns the first failure category found in stderr.
func Classify(stderr string) Category {
	for _, c := range classifiers {
		if c.re.MatchString(stderr) {
			return c.cat
		}
	}
	return CategoryUnknown
}

// Diagnose condenses engine stderr into a single message: the first line
// that matches a known failure pattern, otherwise the last non-empty line.
func Diagnose(stderr string) string {
	lines := nonEmptyLines(stderr)
	if len(lines) == 0 {
		return ""
	}
	for _, c := range classifiers {
		for _, l := range lines {
			if c.re.MatchString(l) {
				return l
			}
		}
	}
	return lines[len(lines)-1]
}

// TailLines returns at most n trailing non-empty lines of stderr.
func TailLines(stderr string, n int) []string {
	lines := nonEmptyLines(stderr)
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return lines
}

func nonEmptyLines(s string) []string {
	raw := strings.Split(strings.ReplaceAll(s, "\r", "\n"), "\n")
	out := raw[:0]
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
