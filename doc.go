// Copyright 2020 by David A. Golden. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License. You may obtain
// a copy of the License at http://www.apache.org/licenses/LICENSE-2.0

// Package utf8stream is an incremental, zero-copy UTF-8 decoder.  It
// validates byte streams that arrive in pieces, without buffering more than
// the three bytes of a code point split across two pieces.
//
// Levels of API
//
// Decode is the single-shot decoder.  It returns the longest valid prefix of
// a byte slice and classifies what follows: an invalid sequence, which no
// further input can repair, or an incomplete sequence at the very end, which
// is returned as an Incomplete value.  Incomplete.TryComplete resumes
// decoding when the next bytes arrive.
//
// LossyDecoder is a push-based streaming decoder.  Feed it chunks of any size
// and it calls back with decoded text, replacing errors with U+FFFD.  Close
// must be called at the end of the stream.
//
// BufReadDecoder is a pull-based streaming decoder over a *bufio.Reader, with
// a strict mode that reports every error with its stream offset and a lossy
// mode that replaces them.
//
// Writer, LossyTransformer and StrictTransformer adapt the decoders to
// io.Writer and to golang.org/x/text/transform.
//
// Zero copy
//
// Valid text is never copied.  Decode returns sub-slices of its input, and
// the streaming decoders hand out sub-slices of the chunk being fed or of the
// bufio.Reader's buffer.  Each API documents how long those slices stay
// valid; copy them to keep them.
//
// Lossy decoding
//
// Every invalid sequence becomes one U+FFFD, where an invalid sequence is its
// maximal subpart: the longest run of bytes that could have started a
// well-formed encoding, or a single byte if none could.  A stream that ends
// partway through a code point gets one more U+FFFD.  The streaming decoders
// produce the same text as DecodeLossy for any split of the same input.
//
// Testing
//
// Decode is checked against an independent maximal-subpart decoder and
// against utf8.Valid.  The streaming decoders are checked for agreement with
// DecodeLossy under exhaustive and random chunkings, and by fuzzing.
package utf8stream
