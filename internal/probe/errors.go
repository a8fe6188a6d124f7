package probe

import (
	"errors"
	"fmt"
)

// Sentinel causes wrapped by ProbeError.
var (
	ErrNoVideoStream = errors.New("no video stream")
	ErrMissingField  = errors.New("missing or invalid field")
)

// ProbeError reports why a file could not be described.
type ProbeError struct {
	Path   string
	Detail string // Diagnosed stderr or field name.
	Err    error
}

func (e *ProbeError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("probe %s: %v: %s", e.Path, e.Err, e.Detail)
	}
	return fmt.Sprintf("probe %s: %v", e.Path, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }
