package logging

import (
	"bytes"
	"sync"

	"github.com/rs/zerolog"
)

// LineWriter turns stream output (ffmpeg stderr) into per-line debug events.
// It implements io.Writer so it can be tee'd next to a capture buffer.
type LineWriter struct {
	mu     sync.Mutex
	logger zerolog.Logger
	buf    bytes.Buffer
}

// NewLineWriter returns a LineWriter tagging each line with the given fields.
func (l *Logger) NewLineWriter(fields map[string]string) *LineWriter {
	w := l.zl.With()
	for k, v := range fields {
		w = w.Str(k, v)
	}
	return &LineWriter{logger: w.Logger()}
}

func (lw *LineWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	lw.buf.Write(p)
	for {
		i := bytes.IndexAny(lw.buf.Bytes(), "\r\n")
		if i < 0 {
			break
		}
		line := string(lw.buf.Next(i + 1)[:i])
		if line != "" {
			lw.logger.Debug().Msg(line)
		}
	}
	return len(p), nil
}

// Flush emits any trailing partial line.
func (lw *LineWriter) Flush() {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	if lw.buf.Len() > 0 {
		lw.logger.Debug().Msg(lw.buf.String())
		lw.buf.Reset()
	}
}
