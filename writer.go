package utf8stream

import (
	"errors"
	"io"
)

// ErrWriterClosed is returned by Write after Close.
var ErrWriterClosed = errors.New("write on closed utf-8 writer")

// Writer is an io.WriteCloser that forwards everything written to it as
// well-formed UTF-8, replacing errors with ReplacementCharacter.  Code points
// split across Write calls are reassembled.
type Writer struct {
	dec *LossyDecoder
	dst    io.Writer
	err    error
	closed bool
}

// NewWriter returns a Writer that writes decoded text to dst.
func NewWriter(dst io.Writer) *Writer {
	w := &Writer{dst: dst}
	w.dec = NewLossyDecoder(w.push)
	return w
}

func (w *Writer) push(text []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.dst.Write(text)
}

// Write decodes p.  Bytes that end partway through a code point are held
// until the next Write or Close.  Once dst has failed, its error is returned
// by every later call.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrWriterClosed
	}
	if w.err != nil {
		return 0, w.err
	}
	w.dec.Feed(p)
	if w.err != nil {
		return 0, w.err
	}
	return len(p), nil
}

// Close flushes a trailing incomplete code point as ReplacementCharacter and
// closes dst if it is an io.Closer.  Only the first call does any work; later
// calls return the same result.
func (w *Writer) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true
	if err := w.dec.Close(); err != nil && w.err == nil {
		w.err = err
	}
	if closer, ok := w.dst.(io.Closer); ok {
		err := closer.Close()
		if w.err == nil {
			w.err = err
		}
	}
	return w.err
}
