package media

import "fmt"

// ValidationError rejects a request or profile before any engine call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CutError reports a failed segment extraction.
type CutError struct {
	Source   string
	Detail   string // Diagnosed engine stderr.
	ExitCode int    // Engine exit code; -1 when it did not exit normally.
	Err      error
}

func (e *CutError) Error() string { return describe("cut "+e.Source, e.Detail, e.Err) }
func (e *CutError) Unwrap() error { return e.Err }

// MergeError reports a failed intro merge. Stage names the step that ended
// the merge: "probe", "prepare", "copy" (cancelled before fallback) or
// "re-encode".
type MergeError struct {
	Stage    string
	Intro    string
	Main     string
	Detail   string
	ExitCode int // Last engine exit code; 0 when no engine run failed.
	Err      error
}

func (e *MergeError) Error() string {
	return describe(fmt.Sprintf("merge %s + %s (%s)", e.Intro, e.Main, e.Stage), e.Detail, e.Err)
}
func (e *MergeError) Unwrap() error { return e.Err }

// CompressError reports a failed compression.
type CompressError struct {
	Source   string
	Detail   string
	ExitCode int
	Err      error
}

func (e *CompressError) Error() string { return describe("compress "+e.Source, e.Detail, e.Err) }
func (e *CompressError) Unwrap() error { return e.Err }

func describe(what, detail string, err error) string {
	if detail != "" {
		return fmt.Sprintf("%s: %v: %s", what, err, detail)
	}
	return fmt.Sprintf("%s: %v", what, err)
}
