package internal

import (
	"bytes"
	"io"
)

// OutputSink receives output a strategy writes directly instead of returning
// data. The dispatch stage drains it once when the strategy returns nothing.
type OutputSink interface {
	io.Writer
	Drain() (string, error)
}

// OutputBuffer is the default OutputSink, an in-memory buffer drained once.
// It is not safe for concurrent use.
type OutputBuffer struct {
	buf     bytes.Buffer
	drained bool
}

// NewOutputBuffer returns an empty buffer.
func NewOutputBuffer() *OutputBuffer {
	return &OutputBuffer{}
}

// Write appends p. Writes after Drain are kept but never read.
func (b *OutputBuffer) Write(p []byte) (int, error) {
	return b.buf.Write(p)
}

// Drain returns everything written so far and resets the buffer.
// A second call returns ErrOutputDrained.
func (b *OutputBuffer) Drain() (string, error) {
	if b.drained {
		return "", ErrOutputDrained
	}
	b.drained = true
	s := b.buf.String()
	b.buf.Reset()
	return s, nil
}

var _ OutputSink = (*OutputBuffer)(nil)
