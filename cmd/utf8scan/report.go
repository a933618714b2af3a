package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/xdg-go/utf8stream"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	kindInvalid    = "invalid"
	kindIncomplete = "incomplete"
)

// finding is one line of the report.  The offending bytes are not text, so
// they are reported as BSON binary rather than a JSON string.
type finding struct {
	Offset   int64            `bson:"offset"`
	Kind     string           `bson:"kind"`
	Sequence primitive.Binary `bson:"sequence"`
}

// newFinding converts a structural decoding error to a finding.  ok is false
// for any other error.
func newFinding(err error) (f finding, ok bool) {
	var ise *utf8stream.InvalidSequenceError
	var ice *utf8stream.IncompleteSequenceError
	switch {
	case errors.As(err, &ise):
		return finding{Offset: ise.Offset, Kind: kindInvalid, Sequence: primitive.Binary{Data: ise.Sequence}}, true
	case errors.As(err, &ice):
		return finding{Offset: ice.Offset, Kind: kindIncomplete, Sequence: primitive.Binary{Data: ice.Sequence}}, true
	}
	return finding{}, false
}

func writeFinding(w io.Writer, f finding) error {
	line, err := bson.MarshalExtJSON(f, false, false)
	if err != nil {
		return fmt.Errorf("encode finding: %w", err)
	}
	line = append(line, '\n')
	if _, err := w.Write(line); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// scan reads dec to the end, writing a finding for each structural error,
// and returns how many it wrote.
func scan(w io.Writer, dec *utf8stream.BufReadDecoder) (int, error) {
	var count int
	for {
		_, err := dec.NextStrict()
		if err == nil {
			continue
		}
		if err == io.EOF {
			return count, nil
		}
		f, ok := newFinding(err)
		if !ok {
			return count, fmt.Errorf("read input: %w", err)
		}
		if err := writeFinding(w, f); err != nil {
			return count, err
		}
		count++
	}
}
