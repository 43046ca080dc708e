// Package stream frames an arbitrarily chunked byte stream into complete
// newline-delimited lines. It does no JSON parsing: framing failures and
// payload failures stay distinguishable for the caller.
package stream

import (
	"bytes"
	"io"
	"strings"
)

const readChunkSize = 32 * 1024

// LineDecoder is a pull-based, non-restartable sequence of complete lines
// read from r. A line may arrive split across any number of reads; the
// undelivered tail is carried over between reads as raw bytes, so a
// multi-byte UTF-8 sequence straddling a read boundary is never corrupted
// (the buffer is only ever cut at newline bytes, which cannot occur inside
// a multi-byte sequence).
type LineDecoder struct {
	r     io.Reader
	buf   []byte
	chunk []byte
	eof   bool
}

func NewLineDecoder(r io.Reader) *LineDecoder {
	return &LineDecoder{r: r, chunk: make([]byte, readChunkSize)}
}

// Next returns the next complete line in arrival order. Whitespace-only
// lines are skipped. At end of stream a non-empty trailing fragment is
// delivered as one final line (the server may close without a trailing
// newline); after that, and on an empty tail, Next returns io.EOF.
func (d *LineDecoder) Next() (string, error) {
	for {
		if i := bytes.IndexByte(d.buf, '\n'); i >= 0 {
			line := string(d.buf[:i])
			d.buf = d.buf[i+1:]
			if strings.TrimSpace(line) == "" {
				continue
			}
			return line, nil
		}

		if d.eof {
			tail := strings.TrimSpace(string(d.buf))
			d.buf = nil
			if tail != "" {
				return tail, nil
			}
			return "", io.EOF
		}

		n, err := d.r.Read(d.chunk)
		if n > 0 {
			d.buf = append(d.buf, d.chunk[:n]...)
		}
		switch {
		case err == io.EOF:
			d.eof = true
		case err != nil:
			return "", err
		}
	}
}
