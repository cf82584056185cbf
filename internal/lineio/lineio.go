// Package lineio splits a byte stream into newline-delimited lines.
//
// Unlike bufio.Scanner, the decoder exposes a pull API that returns the
// trailing unterminated segment as a final line when the source ends.
// Claude Code does not always terminate its last NDJSON line with a
// newline, and that fragment must still reach the parser.
package lineio

import (
	"bytes"
	"errors"
	"io"
)

// DefaultMaxLineBytes matches the scanner ceiling used for Claude Code
// output elsewhere; single assistant messages with large tool results can
// run to several megabytes.
const DefaultMaxLineBytes = 16 * 1024 * 1024

const readChunkSize = 64 * 1024

// ErrLineTooLong is returned when a single line exceeds the configured cap.
// The decoder is unusable afterwards.
var ErrLineTooLong = errors.New("lineio: line exceeds maximum length")

// Decoder reads complete lines from an io.Reader. It buffers at most one
// read chunk plus one partial line, and never reads ahead of demand:
// each Next call performs reads only until a complete line is available.
type Decoder struct {
	r       io.Reader
	buf     []byte // accumulated bytes not yet returned
	start   int    // offset of unconsumed data within buf
	maxLine int
	err     error // sticky terminal error (io.EOF after the final line)
	sawEOF  bool
	chunk   []byte
}

// NewDecoder returns a Decoder reading from r with the default line cap.
func NewDecoder(r io.Reader) *Decoder {
	return NewDecoderSize(r, DefaultMaxLineBytes)
}

// NewDecoderSize returns a Decoder with an explicit per-line byte cap.
func NewDecoderSize(r io.Reader, maxLine int) *Decoder {
	if maxLine <= 0 {
		maxLine = DefaultMaxLineBytes
	}
	return &Decoder{
		r:       r,
		maxLine: maxLine,
		chunk:   make([]byte, readChunkSize),
	}
}

// Next returns the next complete line with its delimiter stripped.
// At end of input any non-empty remainder is returned as the final line;
// the call after that returns io.EOF. Read failures are returned verbatim.
//
// The returned slice is valid until the next call to Next.
func (d *Decoder) Next() ([]byte, error) {
	for {
		if line, ok := d.takeLine(); ok {
			return line, nil
		}
		if d.err != nil {
			return nil, d.err
		}
		if d.sawEOF {
			// Source exhausted; flush the unterminated remainder once.
			d.err = io.EOF
			if rest := d.buf[d.start:]; len(rest) > 0 {
				d.start = len(d.buf)
				return rest, nil
			}
			return nil, d.err
		}
		if err := d.fill(); err != nil {
			return nil, err
		}
	}
}

// takeLine extracts one complete line from the buffer, if present.
func (d *Decoder) takeLine() ([]byte, bool) {
	rest := d.buf[d.start:]
	i := bytes.IndexByte(rest, '\n')
	if i < 0 {
		return nil, false
	}
	line := rest[:i]
	d.start += i + 1
	// Tolerate CRLF output from the CLI on Windows hosts.
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line, true
}

// fill reads one chunk from the source and appends it to the buffer.
// Splitting happens on raw bytes only; multi-byte sequences that straddle
// a chunk boundary are reassembled here before any text interpretation.
func (d *Decoder) fill() error {
	// Compact consumed bytes before growing the buffer.
	if d.start > 0 {
		d.buf = append(d.buf[:0], d.buf[d.start:]...)
		d.start = 0
	}
	if len(d.buf) > d.maxLine {
		d.err = ErrLineTooLong
		return d.err
	}

	n, err := d.r.Read(d.chunk)
	if n > 0 {
		d.buf = append(d.buf, d.chunk[:n]...)
	}
	switch {
	case err == io.EOF:
		d.sawEOF = true
	case err != nil:
		d.err = err
		// A short read may still have completed a line; let the caller
		// drain it before seeing the error.
		if n == 0 {
			return d.err
		}
	}
	return nil
}
