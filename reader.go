// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package utf8stream

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"go.uber.org/zap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BufReadDecoder is a pull-based streaming decoder over a buffered input
// stream.  Each step returns text straight out of the bufio.Reader's buffer,
// so valid input is never copied.
//
// Segments returned by NextStrict and NextLossy are only valid until the next
// call on the decoder or on the underlying reader, the same as for
// bufio.Reader.Peek.  Reading from the bufio.Reader directly while the
// decoder is in use corrupts the decoder's accounting.
type BufReadDecoder struct {
	consumed   int
	incomplete Incomplete
	r          *bufio.Reader
	offset     int64
	pendingAt  int64
	repl       [3]byte
	started    bool
	stripBOM   bool
}

// NewBufReadDecoder returns a new decoder reading from r.
func NewBufReadDecoder(r *bufio.Reader) *BufReadDecoder {
	return &BufReadDecoder{r: r}
}

// StripBOM toggles whether a leading UTF-8 byte-order mark is discarded.  The
// default is false, which keeps the output identical to DecodeLossy of the
// whole stream.  It has no effect once decoding has started.
func (d *BufReadDecoder) StripBOM(b bool) {
	d.stripBOM = b
}

// Offset returns the number of source bytes decoded or diagnosed so far,
// including bytes held back as the start of an unfinished code point.
func (d *BufReadDecoder) Offset() int64 {
	return d.offset
}

// NextStrict returns the next segment of valid text.  At the end of the
// stream it returns io.EOF.
//
// An invalid sequence is returned as an *InvalidSequenceError and a stream
// that ends partway through a code point as an *IncompleteSequenceError; in
// both cases decoding may continue with the next call.  Errors from the
// reader are returned as-is and are not retried.
func (d *BufReadDecoder) NextStrict() ([]byte, error) {
	seg, status, at, err := d.step()
	if err != nil {
		return nil, err
	}
	switch status {
	case StatusInvalid:
		return nil, &InvalidSequenceError{Offset: at, Sequence: append([]byte(nil), seg...)}
	case StatusIncomplete:
		return nil, &IncompleteSequenceError{Offset: at, Sequence: append([]byte(nil), seg...)}
	}
	return seg, nil
}

// NextLossy is like NextStrict but returns ReplacementCharacter in place of
// each structural error.  Only reader errors and io.EOF are returned.
func (d *BufReadDecoder) NextLossy() ([]byte, error) {
	seg, status, _, err := d.step()
	if err != nil {
		return nil, err
	}
	if status != StatusValid {
		copy(d.repl[:], ReplacementCharacter)
		return d.repl[:], nil
	}
	return seg, nil
}

// ReadAllLossy decodes the rest of the stream into a string, replacing errors
// with ReplacementCharacter.  A reader error stops decoding and is returned
// along with the text decoded before it.
func (d *BufReadDecoder) ReadAllLossy() (string, error) {
	var sb strings.Builder
	for {
		seg, err := d.NextLossy()
		if err != nil {
			if err == io.EOF {
				return sb.String(), nil
			}
			return sb.String(), err
		}
		sb.Write(seg)
	}
}

// ReadToStringLossy decodes everything remaining in r into a string,
// replacing errors with ReplacementCharacter.
func ReadToStringLossy(r *bufio.Reader) (string, error) {
	return NewBufReadDecoder(r).ReadAllLossy()
}

// step produces one segment.  status tells whether seg is text, an invalid
// sequence, or a sequence left open at the end of the stream; at is the
// stream offset of seg.  err is only set for reader errors and io.EOF.
func (d *BufReadDecoder) step() (seg []byte, status Status, at int64, err error) {
	if !d.started {
		d.started = true
		if d.stripBOM {
			err = d.handleBOM()
			if err != nil {
				return nil, StatusValid, d.offset, d.readError(err)
			}
		}
	}

	for {
		buf, err := d.fill()
		if err != nil {
			return nil, StatusValid, d.offset, d.readError(err)
		}

		if d.incomplete.IsEmpty() {
			if len(buf) == 0 {
				return nil, StatusValid, d.offset, io.EOF
			}
			r := Decode(buf)
			if len(r.ValidPrefix) > 0 {
				at = d.offset
				return d.advance(r.ValidPrefix), StatusValid, at, nil
			}
			if r.Status == StatusInvalid {
				at = d.offset
				seg = d.advance(r.InvalidSequence)
				d.logSequence("invalid utf-8 sequence", at, seg)
				return seg, StatusInvalid, at, nil
			}
			// The whole buffer is the start of one code point.  Move it into
			// the continuation buffer so the reader can refill.
			d.pendingAt = d.offset
			d.incomplete = r.IncompleteSuffix
			d.advance(buf)
			continue
		}

		if len(buf) == 0 {
			seg = d.incomplete.take()
			d.logSequence("unterminated utf-8 sequence at end of stream", d.pendingAt, seg)
			return seg, StatusIncomplete, d.pendingAt, nil
		}

		c, seq, rest := d.incomplete.TryComplete(buf)
		d.advance(buf[:len(buf)-len(rest)])
		switch c {
		case Completed:
			return seq, StatusValid, d.pendingAt, nil
		case Rejected:
			d.logSequence("invalid utf-8 sequence", d.pendingAt, seq)
			return seq, StatusInvalid, d.pendingAt, nil
		}
	}
}

// fill discards what the previous step handed out and returns everything the
// reader has buffered, reading more only when the buffer is empty.  An empty
// result with a nil error is the end of the stream.
func (d *BufReadDecoder) fill() ([]byte, error) {
	if d.consumed > 0 {
		_, _ = d.r.Discard(d.consumed)
		d.consumed = 0
	}
	if d.r.Buffered() == 0 {
		_, err := d.r.Peek(1)
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, err
		}
	}
	return d.r.Peek(d.r.Buffered())
}

// advance marks p, a prefix of the reader's buffer, as handed out.  It is
// discarded at the start of the next step so that p stays valid until then.
func (d *BufReadDecoder) advance(p []byte) []byte {
	d.consumed = len(p)
	d.offset += int64(len(p))
	return p
}

// handleBOM discards a leading UTF-8 BOM.  Inability to peek three bytes
// because the stream is shorter is a NOP and is handled by the normal
// decoding loop.
func (d *BufReadDecoder) handleBOM() error {
	preamble, err := d.r.Peek(len(utf8BOM))
	if err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	if bytes.Equal(preamble, utf8BOM) {
		n, _ := d.r.Discard(len(utf8BOM))
		d.offset += int64(n)
	}
	return nil
}

func (d *BufReadDecoder) readError(err error) error {
	Logger().Warn("reading utf-8 source failed",
		zap.Int64("offset", d.offset),
		zap.Error(err))
	return err
}

func (d *BufReadDecoder) logSequence(msg string, at int64, seq []byte) {
	if ce := Logger().Check(zap.DebugLevel, msg); ce != nil {
		ce.Write(zap.Int64("offset", at), zap.Binary("sequence", seq))
	}
}
