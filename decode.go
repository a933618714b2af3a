// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package utf8stream

import (
	"strings"
	"unicode/utf8"
)

// ReplacementCharacter is U+FFFD.  Lossy decoding inserts it once for every
// invalid sequence and once for a sequence left unterminated at the end of
// input.
const ReplacementCharacter = "\uFFFD"

// Status classifies the outcome of Decode.
type Status uint8

const (
	// StatusValid means the whole input is well-formed UTF-8.
	StatusValid Status = iota
	// StatusInvalid means the input contains a sequence that no amount of
	// further input can make valid.
	StatusInvalid
	// StatusIncomplete means the input ends partway through a multi-byte
	// sequence.
	StatusIncomplete
)

func (s Status) String() string {
	switch s {
	case StatusValid:
		return "valid"
	case StatusInvalid:
		return "invalid"
	case StatusIncomplete:
		return "incomplete"
	}
	return "unknown"
}

// Result is the outcome of Decode.  All slices alias the input passed to
// Decode and are only meaningful while that input is left unmodified.
//
// For StatusInvalid, ValidPrefix, InvalidSequence and RemainingInput
// concatenated are exactly the input.  For StatusIncomplete, ValidPrefix
// followed by the bytes of IncompleteSuffix are exactly the input.
type Result struct {
	Status Status

	// ValidPrefix is the longest leading run of well-formed UTF-8.  For
	// StatusValid it is the entire input.
	ValidPrefix []byte

	// InvalidSequence is set for StatusInvalid.  In lossy decoding it is
	// replaced by a single ReplacementCharacter.
	InvalidSequence []byte

	// RemainingInput is set for StatusInvalid and holds the bytes after the
	// invalid sequence, not yet examined.  Pass them to Decode to continue.
	RemainingInput []byte

	// IncompleteSuffix is set for StatusIncomplete.  Its TryComplete method
	// resumes decoding when more input arrives.
	IncompleteSuffix Incomplete
}

// Err converts a non-valid Result into an *InvalidSequenceError or an
// *IncompleteSequenceError.  Offsets are relative to the start of the input.
// It returns nil for StatusValid.
func (r Result) Err() error {
	switch r.Status {
	case StatusInvalid:
		return &InvalidSequenceError{
			Offset:   int64(len(r.ValidPrefix)),
			Sequence: append([]byte(nil), r.InvalidSequence...),
		}
	case StatusIncomplete:
		return &IncompleteSequenceError{
			Offset:   int64(len(r.ValidPrefix)),
			Sequence: append([]byte(nil), r.IncompleteSuffix.Bytes()...),
		}
	}
	return nil
}

// Decode classifies input as UTF-8 without copying it.
//
// Unlike utf8.Valid, Decode tells an invalid sequence, which can never become
// valid, apart from an incomplete one at the very end of input, which might be
// completed by bytes that have not arrived yet.  An invalid sequence is
// measured as its maximal subpart: the longest run of bytes that could have
// started a well-formed encoding, or a single byte if none could.
//
// Decode never allocates and never fails on malformed input; malformation is
// reported in the Result.
func Decode(input []byte) Result {
	validUpTo, errLen := scan(input)
	if validUpTo == len(input) {
		return Result{Status: StatusValid, ValidPrefix: input}
	}

	valid := input[:validUpTo:validUpTo]
	after := input[validUpTo:]
	if errLen > 0 {
		return Result{
			Status:          StatusInvalid,
			ValidPrefix:     valid,
			InvalidSequence: after[:errLen:errLen],
			RemainingInput:  after[errLen:],
		}
	}

	return Result{
		Status:           StatusIncomplete,
		ValidPrefix:      valid,
		IncompleteSuffix: NewIncomplete(after),
	}
}

// DecodeLossy decodes a whole buffer, replacing each invalid sequence and a
// trailing incomplete sequence with ReplacementCharacter.  Every streaming
// decoder in this package produces the same text as DecodeLossy does for the
// concatenation of its input, however that input was split.
func DecodeLossy(input []byte) string {
	var sb strings.Builder
	sb.Grow(len(input))
	for {
		r := Decode(input)
		sb.Write(r.ValidPrefix)
		switch r.Status {
		case StatusValid:
			return sb.String()
		case StatusInvalid:
			sb.WriteString(ReplacementCharacter)
			input = r.RemainingInput
		default:
			sb.WriteString(ReplacementCharacter)
			return sb.String()
		}
	}
}

// scan returns the length of the longest well-formed prefix of p and the
// length of the invalid sequence that follows it.  errLen is 0 both when p is
// entirely valid and when p ends in a truncated sequence; the two are told
// apart by validUpTo == len(p).
func scan(p []byte) (validUpTo, errLen int) {
	i := 0
	for i < len(p) {
		if p[i] < utf8.RuneSelf {
			i++
			continue
		}
		r, size := utf8.DecodeRune(p[i:])
		if r == utf8.RuneError && size == 1 {
			return i, invalidLen(p[i:])
		}
		i += size
	}
	return i, 0
}

// invalidLen measures the ill-formed sequence at the start of p.
//
// utf8.FullRune reports false exactly while a prefix could still grow into a
// valid encoding, so the first k for which it reports true marks the byte
// that broke the sequence.  When even the lead byte is full on its own, the
// sequence is that single byte.  A zero result means p ran out first.
func invalidLen(p []byte) int {
	for k := 1; k <= len(p) && k <= utf8.UTFMax; k++ {
		if utf8.FullRune(p[:k]) {
			if k == 1 {
				return 1
			}
			return k - 1
		}
	}
	return 0
}
