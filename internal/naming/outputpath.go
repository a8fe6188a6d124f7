package naming

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Ext is the canonical output extension.
const Ext = ".mp4"

// ResolveDir returns the directory outputs go to. A target that carries a
// file extension names a file, so its parent directory is used.
func ResolveDir(target string) string {
	if target == "" {
		return "."
	}
	if filepath.Ext(target) != "" {
		return filepath.Dir(target)
	}
	return target
}

// Stem returns the file name of path without directory or extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// CompressedBase is the base name compression outputs are derived from.
func CompressedBase(source string) string {
	return Stem(source) + "_compressed"
}

// Candidate returns the n-th candidate path for base in dir: n == 0 is
// <base>.mp4, n > 0 is <base>_<n>.mp4.
func Candidate(dir, base string, n int) string {
	if n == 0 {
		return filepath.Join(dir, base+Ext)
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%d%s", base, n, Ext))
}

// firstFree returns the first candidate for base in target's directory that
// does not exist on disk and that taken (when non-nil) does not claim.
func firstFree(target, base string, taken func(string) bool) string {
	dir := ResolveDir(target)
	base = trimExt(SanitizeBase(base))
	for n := 0; ; n++ {
		p := Candidate(dir, base, n)
		if exists(p) || (taken != nil && taken(p)) {
			continue
		}
		return p
	}
}

// exists treats any stat result other than "not exist" as taken.
func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}

func trimExt(base string) string {
	if strings.EqualFold(filepath.Ext(base), Ext) {
		return base[:len(base)-len(Ext)]
	}
	return base
}
