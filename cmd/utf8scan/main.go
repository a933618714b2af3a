// Command utf8scan checks a file or stdin for ill-formed UTF-8.
//
// By default it reports every invalid or unterminated byte sequence as one
// line of relaxed Extended JSON and exits with status 1 if there were any.
// With -lossy it writes the input to stdout instead, with each bad sequence
// replaced by U+FFFD.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/xdg-go/utf8stream"
	"go.uber.org/zap"
)

const minBufferSize = 16

func main() {
	var (
		lossy    = flag.Bool("lossy", false, "Write lossy-decoded text instead of a findings report")
		stripBOM = flag.Bool("bom", false, "Strip a leading UTF-8 byte-order mark")
		bufSize  = flag.Int("buffer", 64*1024, "Read buffer size in bytes")
		verbose  = flag.Bool("v", false, "Debug logging to stderr")
	)
	flag.Parse()

	if flag.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "Usage: utf8scan [-lossy] [-bom] [-buffer N] [-v] [file]")
		os.Exit(2)
	}

	logger := zap.NewNop()
	if *verbose {
		var err error
		logger, err = zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	defer func() { _ = logger.Sync() }()
	utf8stream.SetLogger(logger)

	findings, err := run(flag.Arg(0), *lossy, *stripBOM, *bufSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if findings > 0 {
		logger.Debug("scan found ill-formed input", zap.Int("findings", findings))
		os.Exit(1)
	}
}

func run(path string, lossy, stripBOM bool, bufSize int) (int, error) {
	var src io.Reader = os.Stdin
	if path != "" && path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return 0, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		src = f
	}
	if bufSize < minBufferSize {
		bufSize = minBufferSize
	}

	dec := utf8stream.NewBufReadDecoder(bufio.NewReaderSize(src, bufSize))
	dec.StripBOM(stripBOM)

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	if lossy {
		return 0, copyLossy(out, dec)
	}
	return scan(out, dec)
}

// copyLossy writes the decoded text of dec to w.
func copyLossy(w io.Writer, dec *utf8stream.BufReadDecoder) error {
	for {
		text, err := dec.NextLossy()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read input: %w", err)
		}
		if _, err := w.Write(text); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
}
