package utf8stream

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// refScan is an independent validator written straight from the table of
// well-formed byte sequences in the Unicode standard (Table 3-7).  It returns
// the length of the valid prefix and the length of the maximal subpart that
// follows, which is 0 if the input is valid or ends in a truncated sequence.
func refScan(p []byte) (validUpTo, errLen int) {
	i := 0
	for i < len(p) {
		b := p[i]
		lo, hi := byte(0x80), byte(0xBF)
		var n int
		switch {
		case b < 0x80:
			i++
			continue
		case b >= 0xC2 && b <= 0xDF:
			n = 2
		case b == 0xE0:
			n, lo = 3, 0xA0
		case b >= 0xE1 && b <= 0xEC, b == 0xEE, b == 0xEF:
			n = 3
		case b == 0xED:
			n, hi = 3, 0x9F
		case b == 0xF0:
			n, lo = 4, 0x90
		case b >= 0xF1 && b <= 0xF3:
			n = 4
		case b == 0xF4:
			n, hi = 4, 0x8F
		default:
			return i, 1
		}
		for k := 1; k < n; k++ {
			if i+k >= len(p) {
				return i, 0
			}
			c := p[i+k]
			if k == 1 {
				if c < lo || c > hi {
					return i, 1
				}
			} else if c < 0x80 || c > 0xBF {
				return i, k
			}
		}
		i += n
	}
	return i, 0
}

// refLossy is the whole-buffer lossy decoder built on refScan.
func refLossy(p []byte) string {
	var sb strings.Builder
	for {
		validUpTo, errLen := refScan(p)
		sb.Write(p[:validUpTo])
		if validUpTo == len(p) {
			return sb.String()
		}
		sb.WriteString(ReplacementCharacter)
		if errLen == 0 {
			return sb.String()
		}
		p = p[validUpTo+errLen:]
	}
}

// testVectors are inputs around every boundary of the UTF-8 byte tables.
var testVectors = []struct {
	label string
	input string
}{
	{"empty", ""},
	{"ascii", "hello"},
	{"two byte", "héllo"},
	{"three byte", "☆ star"},
	{"four byte", "\U0001F600 grin"},
	{"replacement char itself", "a\uFFFDb"},
	{"max code point", "\U0010FFFF"},
	{"lone continuation", "\x80"},
	{"continuation run", "\x80\x81\xBF"},
	{"overlong C0", "hello\xC0world"},
	{"overlong C1", "\xC1\xBF"},
	{"overlong E0", "\xE0\x80\xAF"},
	{"overlong F0", "\xF0\x80\x80\xAF"},
	{"surrogate high", "\xED\xA0\x80"},
	{"surrogate low", "\xED\xBF\xBF"},
	{"last before surrogates", "\xED\x9F\xBF"},
	{"above max", "\xF4\x90\x80\x80"},
	{"F5 lead", "\xF5\x80\x80\x80"},
	{"FF", "a\xFFb"},
	{"FE FF", "\xFE\xFF"},
	{"truncated two", "\xC3"},
	{"truncated three", "ab\xE2\x82"},
	{"truncated four", "\xF0\x9F\x98"},
	{"truncated then ascii", "\xE2\x82A"},
	{"truncated four then ascii", "\xF0\x9F\x98!"},
	{"truncated in middle", "a\xF0\x9Fb\xE2\x82\xACc"},
	{"five byte form", "\xF8\x88\x80\x80\x80"},
	{"six byte form", "\xFC\x84\x80\x80\x80\x80"},
	{"mixed", "\xC3\xA9\xE2\x82\xAC\xF0\x9F\x98\x80\xC3\x28\xA0\xA1\xE2\x28\xA1"},
	{"utf-16 bom", "\xFF\xFEh\x00i\x00"},
	{"utf-8 bom", "\xEF\xBB\xBFhi"},
	{"latin-1", "caf\xE9 cr\xE8me"},
}

// boundaryBytes is an alphabet covering each distinct row of the UTF-8
// tables, used for exhaustive enumeration of short inputs.
var boundaryBytes = []byte{
	0x00, 0x41, 0x7F, 0x80, 0x8F, 0x90, 0x9F, 0xA0, 0xBF, 0xC0, 0xC1, 0xC2,
	0xDF, 0xE0, 0xE1, 0xEC, 0xED, 0xEE, 0xEF, 0xF0, 0xF1, 0xF3, 0xF4, 0xF5,
	0xFF,
}

// forEachShortInput calls f with every sequence of up to maxLen bytes drawn
// from boundaryBytes.  The slice passed to f is reused between calls.
func forEachShortInput(maxLen int, f func([]byte)) {
	buf := make([]byte, 0, maxLen)
	var walk func()
	walk = func() {
		f(buf)
		if len(buf) == maxLen {
			return
		}
		for _, b := range boundaryBytes {
			buf = append(buf, b)
			walk()
			buf = buf[:len(buf)-1]
		}
	}
	walk()
}

// forEachSplit calls f with every way of cutting p into non-empty chunks.
// It is exponential in len(p), so keep inputs short.
func forEachSplit(p []byte, f func(chunks [][]byte)) {
	if len(p) == 0 {
		f(nil)
		return
	}
	cuts := len(p) - 1
	for mask := 0; mask < 1<<cuts; mask++ {
		var chunks [][]byte
		start := 0
		for i := 0; i < cuts; i++ {
			if mask&(1<<i) != 0 {
				chunks = append(chunks, p[start:i+1])
				start = i + 1
			}
		}
		chunks = append(chunks, p[start:])
		f(chunks)
	}
}

// randomChunks cuts p at random points, including empty chunks.
func randomChunks(rng *rand.Rand, p []byte) [][]byte {
	var chunks [][]byte
	for len(p) > 0 {
		n := rng.Intn(min(len(p), 7) + 1)
		chunks = append(chunks, p[:n])
		p = p[n:]
	}
	return chunks
}

// randomInput produces bytes that are mostly UTF-8 with some corruption.
func randomInput(rng *rand.Rand, n int) []byte {
	var out []byte
	for len(out) < n {
		switch rng.Intn(6) {
		case 0:
			out = append(out, boundaryBytes[rng.Intn(len(boundaryBytes))])
		case 1:
			out = append(out, byte(rng.Intn(256)))
		default:
			out = utf8.AppendRune(out, rune(rng.Intn(0x110000)))
		}
	}
	return out
}

// feedLossy runs chunks through a LossyDecoder and returns everything it
// pushed, checking that no segment is empty or ill-formed.
func feedLossy(t *testing.T, chunks [][]byte) string {
	t.Helper()
	var out bytes.Buffer
	dec := NewLossyDecoder(func(text []byte) {
		if len(text) == 0 {
			t.Errorf("decoder pushed an empty segment")
		}
		if !utf8.Valid(text) {
			t.Errorf("decoder pushed ill-formed segment %x", text)
		}
		out.Write(text)
	})
	for _, c := range chunks {
		dec.Feed(c)
	}
	require.NoError(t, dec.Close())
	return out.String()
}

// assertCovers checks that the parts of r reassemble input exactly.
func assertCovers(t *testing.T, input []byte, r Result) {
	t.Helper()
	var joined []byte
	joined = append(joined, r.ValidPrefix...)
	switch r.Status {
	case StatusInvalid:
		assert.NotEmpty(t, r.InvalidSequence)
		joined = append(joined, r.InvalidSequence...)
		joined = append(joined, r.RemainingInput...)
	case StatusIncomplete:
		assert.True(t, r.IncompleteSuffix.Len >= 1 && r.IncompleteSuffix.Len <= 3,
			"incomplete suffix length %d", r.IncompleteSuffix.Len)
		joined = append(joined, r.IncompleteSuffix.Bytes()...)
	}
	assert.True(t, bytes.Equal(input, joined), "parts of %x reassemble to %x", input, joined)
}
