package media

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Save copies a finished output to dst. When dst is an existing directory
// the file keeps its name inside it. It returns the written path.
func Save(src, dst string) (string, error) {
	if fi, err := os.Stat(dst); err == nil && fi.IsDir() {
		dst = filepath.Join(dst, filepath.Base(src))
	}
	if same, _ := samePath(src, dst); same {
		return "", fmt.Errorf("save %s: source and destination are the same file", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("save: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("save: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".clipsmith-save-*")
	if err != nil {
		return "", fmt.Errorf("save: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return "", fmt.Errorf("save %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("save %s: %w", dst, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("save %s: %w", dst, err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("save %s: %w", dst, err)
	}
	return dst, nil
}

func samePath(a, b string) (bool, error) {
	ai, err := os.Stat(a)
	if err != nil {
		return false, err
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false, err
	}
	return os.SameFile(ai, bi), nil
}
