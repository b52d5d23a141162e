// Package utils provides helpers shared by the vaultsync commands.
package utils

import (
	"bytes"
	"strings"
	"sync"
)

const (
	// maxLineSize caps how much of an unterminated line is buffered before it
	// is emitted anyway
	maxLineSize = 1024 * 1024 // 1MB
)

// LineWriter implements io.Writer and hands every complete line of output to
// a callback. It is used to turn a child process's output stream into log
// records. Trailing "\r" is stripped so "\r\n" output reads like "\n" output.
type LineWriter struct {
	emit func(line string)
	buf  bytes.Buffer
	mu   sync.Mutex
}

// NewLineWriter returns a LineWriter calling emit once per line.
func NewLineWriter(emit func(line string)) *LineWriter {
	return &LineWriter{emit: emit}
}

// Write buffers p and emits every complete line it contains.
func (w *LineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		idx := bytes.IndexByte(w.buf.Bytes(), '\n')
		if idx < 0 {
			break
		}
		line := w.buf.Next(idx + 1)
		w.emitLine(line[:idx])
	}

	if w.buf.Len() >= maxLineSize {
		w.emitLine(w.buf.Next(w.buf.Len()))
	}
	return len(p), nil
}

// Close emits whatever is left in the buffer as a final line.
func (w *LineWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() > 0 {
		w.emitLine(w.buf.Next(w.buf.Len()))
	}
	return nil
}

func (w *LineWriter) emitLine(line []byte) {
	s := strings.TrimRight(string(line), "\r")
	if s == "" {
		return
	}
	w.emit(s)
}
