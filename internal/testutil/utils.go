package testutil

import (
	"bytes"
	"log"
	"os"
	"sync"
	"testing"
)

// TestLogger returns a logger prefixed with the test name.
func TestLogger(t *testing.T) *log.Logger {
	logger := log.New(os.Stdout, "["+t.Name()+"] ", log.LstdFlags|log.Lmsgprefix)
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
	})
	return logger
}

// LogBuffer is a bytes.Buffer that can be written from several goroutines.
type LogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *LogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *LogBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

func (b *LogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// CaptureLogger returns a logger whose output is kept for assertions.
func CaptureLogger(t *testing.T) (*log.Logger, *LogBuffer) {
	buf := &LogBuffer{}
	return log.New(buf, "["+t.Name()+"] ", 0), buf
}
