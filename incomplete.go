// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package utf8stream

import (
	"fmt"
	"unicode/utf8"
)

// Completion is the outcome of Incomplete.TryComplete.
type Completion uint8

const (
	// StillIncomplete means every supplied byte was buffered and the code
	// point still needs more.  If the input has ended, the buffered bytes are
	// an invalid sequence.
	StillIncomplete Completion = iota
	// Completed means the buffered bytes now form one valid code point.
	Completed
	// Rejected means the buffered bytes can never form a valid code point.
	Rejected
)

func (c Completion) String() string {
	switch c {
	case StillIncomplete:
		return "still incomplete"
	case Completed:
		return "completed"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// Incomplete holds the leading bytes of a multi-byte code point whose
// remaining bytes have not been seen yet.  The bytes are copied, so an
// Incomplete outlives the chunk that produced it.
//
// Only Buffer[:Len] is meaningful.  Len never exceeds 4, and is 1, 2 or 3 for
// any Incomplete returned by Decode.
type Incomplete struct {
	Buffer [utf8.UTFMax]byte
	Len    uint8
}

// NewIncomplete returns an Incomplete holding a copy of b.  At most four
// bytes are kept.  b should be a truncated sequence such as Decode reports;
// other contents give unspecified TryComplete results.
func NewIncomplete(b []byte) Incomplete {
	var in Incomplete
	in.Len = uint8(copy(in.Buffer[:], b))
	return in
}

// IsEmpty reports whether no bytes are buffered.
func (in Incomplete) IsEmpty() bool {
	return in.Len == 0
}

// Bytes returns the buffered bytes.  Like IsEmpty and String it reads a copy
// of in, so it works on values such as Result.IncompleteSuffix; only
// TryComplete, which modifies in, needs a pointer.
func (in Incomplete) Bytes() []byte {
	return in.Buffer[:in.Len]
}

func (in Incomplete) String() string {
	return fmt.Sprintf("[% x]", in.Buffer[:in.Len])
}

// TryComplete appends as much of input as fits to the buffered bytes and
// decodes the result.
//
// For Completed, seq holds the UTF-8 encoding of the finished code point; for
// Rejected, seq holds the invalid sequence.  In both cases in is emptied, seq
// aliases in.Buffer (valid until in is next modified) and rest is the suffix
// of input that was not needed and must be passed to Decode.
//
// For StillIncomplete, seq is nil, all of input was buffered, rest is empty,
// and TryComplete must be called again once more input is available.
func (in *Incomplete) TryComplete(input []byte) (c Completion, seq, rest []byte) {
	consumed, c := in.complete(input)
	if c == StillIncomplete {
		return c, nil, input[consumed:]
	}
	return c, in.take(), input[consumed:]
}

func (in *Incomplete) take() []byte {
	n := in.Len
	in.Len = 0
	return in.Buffer[:n]
}

// complete splices input onto the buffer and reports how many bytes of input
// belong to the code point now held in the buffer.
func (in *Incomplete) complete(input []byte) (int, Completion) {
	held := int(in.Len)
	copied := copy(in.Buffer[held:], input)
	spliced := in.Buffer[:held+copied]

	validUpTo, errLen := scan(spliced)
	switch {
	case validUpTo > 0:
		// Bytes copied past the end of the first code point go back to the
		// caller.
		_, size := utf8.DecodeRune(spliced)
		in.Len = uint8(size)
		return max(size-held, 0), Completed
	case errLen > 0:
		in.Len = uint8(errLen)
		return max(errLen-held, 0), Rejected
	default:
		in.Len = uint8(len(spliced))
		return copied, StillIncomplete
	}
}
