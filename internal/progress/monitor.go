package progress

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/backmassage/clipsmith/internal/logging"
	"github.com/backmassage/clipsmith/internal/planner"
)

// Monitor follows an ffmpeg -progress file and reports completion
// percentages. It is bound to a context: Run returns when ctx is cancelled,
// always reporting a final 100 first. Reported values never decrease.
type Monitor struct {
	Path        string
	Total       time.Duration // Expected output duration.
	Interval    time.Duration // Poll interval.
	WaitTimeout time.Duration // Bounded wait for the file to appear.
	Report      func(pct float64)
	Log         *logging.Logger

	last   float64
	offset int64
	carry  []byte
	next   atomic.Pointer[string]
}

// Follow switches the monitor to a new progress file, starting from its
// first byte. It is safe to call while Run is active.
func (m *Monitor) Follow(path string) {
	m.next.Store(&path)
}

func (m *Monitor) switchPath() {
	if p := m.next.Swap(nil); p != nil {
		m.Path, m.offset, m.carry = *p, 0, nil
	}
}

// Run blocks until ctx is done. It never returns an error; a missing or
// unreadable progress file only means fewer intermediate reports.
func (m *Monitor) Run(ctx context.Context) error {
	defer m.report(100)

	if !m.waitForFile(ctx) {
		if ctx.Err() == nil {
			m.logDebug("progress file %s did not appear within %s", m.Path, m.WaitTimeout)
			<-ctx.Done()
		}
		return nil
	}

	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()
	for {
		m.poll()
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// waitForFile blocks until Path exists, the wait times out, or ctx ends.
// fsnotify delivers the create event promptly; the ticker covers platforms
// or filesystems where the watch cannot be set up.
func (m *Monitor) waitForFile(ctx context.Context) bool {
	if fileExists(m.Path) {
		return true
	}

	var events <-chan fsnotify.Event
	if w, err := fsnotify.NewWatcher(); err == nil {
		defer w.Close()
		if err := w.Add(filepath.Dir(m.Path)); err == nil {
			events = w.Events
		}
	}

	timeout := time.NewTimer(m.WaitTimeout)
	defer timeout.Stop()
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Clean(ev.Name) == filepath.Clean(m.Path) && ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				return true
			}
		case <-ticker.C:
			m.switchPath()
			if fileExists(m.Path) {
				return true
			}
		case <-timeout.C:
			m.switchPath()
			return fileExists(m.Path)
		case <-ctx.Done():
			return false
		}
	}
}

// poll reads whatever the engine appended since the last poll.
func (m *Monitor) poll() {
	m.switchPath()
	f, err := os.Open(m.Path)
	if err != nil {
		return
	}
	defer f.Close()

	if fi, err := f.Stat(); err == nil && fi.Size() < m.offset {
		// Truncated or recreated: start over.
		m.offset, m.carry = 0, nil
	}
	if _, err := f.Seek(m.offset, io.SeekStart); err != nil {
		return
	}
	data, err := io.ReadAll(f)
	if err != nil || len(data) == 0 {
		return
	}
	m.offset += int64(len(data))

	// Only parse complete lines; keep the tail for the next poll.
	buf := append(m.carry, data...)
	cut := lastNewline(buf)
	if cut < 0 {
		m.carry = buf
		return
	}
	m.carry = append([]byte(nil), buf[cut+1:]...)

	// progress=end is also written by a failed run, so only the deferred
	// report in Run marks completion.
	s := ParseProgress(buf[:cut+1])
	if s.HasTime {
		m.report(planner.ProgressPercent(s.OutTime, m.Total))
	}
	if s.Ended {
		m.logDebug("engine finished writing %s", m.Path)
	}
}

func (m *Monitor) report(pct float64) {
	if pct > 100 {
		pct = 100
	}
	if pct <= m.last {
		return
	}
	m.last = pct
	if m.Report != nil {
		m.Report(pct)
	}
}

func (m *Monitor) logDebug(format string, args ...interface{}) {
	if m.Log != nil {
		m.Log.Debug(format, args...)
	}
}

func lastNewline(b []byte) int {
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] == '\n' {
			return i
		}
	}
	return -1
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, fs.ErrNotExist)
}
