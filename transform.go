// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

package utf8stream

import (
	"unicode/utf8"

	"golang.org/x/text/transform"
)

// LossyTransformer is a transform.Transformer that copies UTF-8 from src to
// dst, replacing errors with ReplacementCharacter exactly as DecodeLossy
// does.  It holds no state; an incomplete sequence at the end of src is left
// for the transform package to hand back with more input.
type LossyTransformer struct{ transform.NopResetter }

var _ transform.Transformer = LossyTransformer{}

// NewLossyTransformer returns a LossyTransformer.
func NewLossyTransformer() LossyTransformer {
	return LossyTransformer{}
}

// Transform implements transform.Transformer.
func (LossyTransformer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r := Decode(src[nSrc:])
		n, short := copyRunes(dst[nDst:], r.ValidPrefix)
		nDst += n
		nSrc += n
		if short {
			return nDst, nSrc, transform.ErrShortDst
		}

		var skip int
		switch r.Status {
		case StatusValid:
			return nDst, nSrc, nil
		case StatusInvalid:
			skip = len(r.InvalidSequence)
		case StatusIncomplete:
			if !atEOF {
				return nDst, nSrc, transform.ErrShortSrc
			}
			skip = int(r.IncompleteSuffix.Len)
		}

		if len(dst)-nDst < len(ReplacementCharacter) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += copy(dst[nDst:], ReplacementCharacter)
		nSrc += skip
	}
	return nDst, nSrc, nil
}

// StrictTransformer is a transform.Transformer that copies UTF-8 from src to
// dst and stops with an *InvalidSequenceError at the first invalid sequence,
// or with an *IncompleteSequenceError if src ends partway through a code
// point.  Error offsets count every source byte consumed since the last
// Reset.
type StrictTransformer struct {
	offset int64
}

var _ transform.Transformer = (*StrictTransformer)(nil)

// NewStrictTransformer returns a StrictTransformer.
func NewStrictTransformer() *StrictTransformer {
	return &StrictTransformer{}
}

// Reset implements transform.Transformer.
func (t *StrictTransformer) Reset() {
	t.offset = 0
}

// Transform implements transform.Transformer.
func (t *StrictTransformer) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	defer func() { t.offset += int64(nSrc) }()

	r := Decode(src)
	n, short := copyRunes(dst, r.ValidPrefix)
	if short {
		return n, n, transform.ErrShortDst
	}

	switch r.Status {
	case StatusInvalid:
		return n, n, &InvalidSequenceError{
			Offset:   t.offset + int64(n),
			Sequence: append([]byte(nil), r.InvalidSequence...),
		}
	case StatusIncomplete:
		if !atEOF {
			return n, n, transform.ErrShortSrc
		}
		return n, n, &IncompleteSequenceError{
			Offset:   t.offset + int64(n),
			Sequence: append([]byte(nil), r.IncompleteSuffix.Bytes()...),
		}
	}
	return n, n, nil
}

// copyRunes copies as much of the valid UTF-8 in src into dst as fits
// without splitting a code point.  short reports that src did not fit.
func copyRunes(dst, src []byte) (n int, short bool) {
	n = copy(dst, src)
	if n == len(src) {
		return n, false
	}
	for n > 0 && !utf8.RuneStart(src[n]) {
		n--
	}
	return n, true
}
