package naming

import (
	"crypto/rand"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewToken returns a ULID string: lexically sortable by creation time and
// unique within the process even for calls in the same millisecond.
func NewToken() string {
	return newTokenAt(time.Now())
}

func newTokenAt(t time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), entropy).String()
}

// MergedName builds <introStem>_<mainStem>_<token>.mp4 in dir. The token makes
// the name unique without checking the filesystem.
func MergedName(dir, intro, main string) string {
	base := SanitizeBase(Stem(intro) + "_" + Stem(main) + "_" + NewToken())
	return filepath.Join(ResolveDir(dir), base+Ext)
}
