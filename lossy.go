// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package utf8stream

// LossyDecoder is a push-based streaming decoder.  Chunks of any size are
// passed to Feed and the decoded text is handed to a callback as soon as it
// can be decoded.  Errors are replaced with ReplacementCharacter.
//
// Close must be called once the last chunk has been fed.  A stream that ends
// partway through a code point yields one ReplacementCharacter from Close;
// skipping Close loses it.
//
// A LossyDecoder must not be used from more than one goroutine at a time.
type LossyDecoder struct {
	push       func([]byte)
	incomplete Incomplete
	repl       [3]byte
}

// NewLossyDecoder returns a decoder that calls push with each decoded
// segment, in input order.  Segments are never empty and are always
// well-formed UTF-8.  They may alias the fed chunk or the decoder's internal
// buffer, so push must not modify or retain them after it returns.
func NewLossyDecoder(push func(text []byte)) *LossyDecoder {
	return &LossyDecoder{push: push}
}

// Feed decodes the next chunk of input.
func (d *LossyDecoder) Feed(input []byte) {
	if !d.incomplete.IsEmpty() {
		c, seq, rest := d.incomplete.TryComplete(input)
		switch c {
		case StillIncomplete:
			return
		case Completed:
			d.push(seq)
		case Rejected:
			d.push(d.replacement())
		}
		input = rest
	}

	for {
		r := Decode(input)
		if len(r.ValidPrefix) > 0 {
			d.push(r.ValidPrefix)
		}
		switch r.Status {
		case StatusValid:
			return
		case StatusInvalid:
			d.push(d.replacement())
			input = r.RemainingInput
		case StatusIncomplete:
			d.incomplete = r.IncompleteSuffix
			return
		}
	}
}

// replacement returns ReplacementCharacter in the decoder's own buffer,
// rewritten on every call so a callback that modified it earlier has no
// effect.
func (d *LossyDecoder) replacement() []byte {
	copy(d.repl[:], ReplacementCharacter)
	return d.repl[:]
}

// Pending reports whether the decoder holds the start of a code point that
// the next chunk has to finish.
func (d *LossyDecoder) Pending() bool {
	return !d.incomplete.IsEmpty()
}

// Close ends the stream, pushing one ReplacementCharacter if it ended
// partway through a code point.  It always returns nil.  The decoder is left
// empty and may be fed a new stream.
func (d *LossyDecoder) Close() error {
	if !d.incomplete.IsEmpty() {
		d.incomplete = Incomplete{}
		d.push(d.replacement())
	}
	return nil
}
