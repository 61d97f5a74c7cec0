package oracle

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Transcript is a timestamped log of every oracle prompt and reply.
type Transcript struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	now    func() time.Time
}

// NewTranscript writes to w.
func NewTranscript(w io.Writer) *Transcript {
	return &Transcript{w: w, now: time.Now}
}

// OpenTranscript creates or truncates the transcript file at path.
func OpenTranscript(path string) (*Transcript, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create transcript directory: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create transcript: %w", err)
	}
	t := NewTranscript(file)
	t.closer = file
	return t, nil
}

func (t *Transcript) logf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	timestamp := t.now().Format("15:04:05.000")
	fmt.Fprintf(t.w, "[%s] %s", timestamp, fmt.Sprintf(format, args...))
}

// Request logs an outgoing prompt.
func (t *Transcript) Request(req Request) {
	t.logf("=== ORACLE REQUEST (%s) ===\nSystem: %s\nPrompt:\n%s\n\n", req.Operation, req.System, req.User)
}

// Reply logs a reply or the error that replaced it.
func (t *Transcript) Reply(operation, reply string, err error) {
	if err != nil {
		t.logf("=== ORACLE ERROR (%s, %s) ===\n%v\n\n", operation, OutcomeOf(err), err)
		return
	}
	t.logf("=== ORACLE RESPONSE (%s) ===\n%s\n\n", operation, reply)
}

// Close closes the underlying file, if any.
func (t *Transcript) Close() error {
	if t == nil || t.closer == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closer.Close()
}
