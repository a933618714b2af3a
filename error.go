package utf8stream

import (
	"errors"
	"fmt"
)

// ErrInvalidSequence is matched by every *InvalidSequenceError.
var ErrInvalidSequence = errors.New("invalid utf-8 byte sequence")

// ErrIncompleteSequence is matched by every *IncompleteSequenceError.
var ErrIncompleteSequence = errors.New("incomplete utf-8 byte sequence")

// InvalidSequenceError records bytes that can never be part of well-formed
// UTF-8.  Offset is the position of the first byte of Sequence, counted from
// the start of the decoded input or stream.  Sequence is a copy and stays
// valid after the decoder moves on.
type InvalidSequenceError struct {
	Offset   int64
	Sequence []byte
}

func (e *InvalidSequenceError) Error() string {
	return fmt.Sprintf("found invalid byte sequence [% x] at offset %d", e.Sequence, e.Offset)
}

// Is reports whether target is ErrInvalidSequence.
func (e *InvalidSequenceError) Is(target error) bool { return target == ErrInvalidSequence }

// IncompleteSequenceError records a multi-byte sequence that was still open
// when the input ended.
type IncompleteSequenceError struct {
	Offset   int64
	Sequence []byte
}

func (e *IncompleteSequenceError) Error() string {
	return fmt.Sprintf("found incomplete byte sequence [% x] at offset %d", e.Sequence, e.Offset)
}

// Is reports whether target is ErrIncompleteSequence.
func (e *IncompleteSequenceError) Is(target error) bool { return target == ErrIncompleteSequence }
