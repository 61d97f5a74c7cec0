package verbose

import (
	"io"
	"sync"
)

// lockedWriter serializes writes to an underlying writer.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// Write writes to the underlying writer with a mutex guard.
func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// wrapWriters returns concurrency-safe writers when workers > 1.
func wrapWriters(workers int, out, log io.Writer) (io.Writer, io.Writer) {
	if workers <= 1 {
		return out, log
	}
	if out != nil {
		out = &lockedWriter{w: out}
	}
	if log != nil {
		log = &lockedWriter{w: log}
	}
	return out, log
}
