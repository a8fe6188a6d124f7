package naming

import (
	"regexp"
	"strings"
)

// reUnsafe matches characters that are invalid or awkward in file names on
// common filesystems.
var reUnsafe = regexp.MustCompile(`[/\\:*?"<>|\x00-\x1f]`)

var reSpaces = regexp.MustCompile(`\s+`)

// SanitizeBase makes a user-supplied base name safe to join onto a
// directory: path separators and reserved characters become underscores,
// runs of whitespace collapse, and leading dots are dropped so the result is
// never hidden or a parent reference. An empty result becomes "output".
func SanitizeBase(s string) string {
	s = reUnsafe.ReplaceAllString(s, "_")
	s = reSpaces.ReplaceAllString(strings.TrimSpace(s), " ")
	s = strings.TrimLeft(s, ".")
	s = strings.TrimRight(s, " .")
	if s == "" {
		return "output"
	}
	return s
}
