package core

// streaming.go holds the reader chain applied to CSV input before parsing:
//
//   - bomReader drops a leading UTF-8 byte order mark (Excel adds one)
//   - utf8Sanitizer replaces invalid UTF-8 bytes with '?'
//   - CountingReader records how many bytes went through
//
// WrapForStreaming builds the chain in that order.

import (
	"bufio"
	"bytes"
	"io"
	"sync/atomic"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bomReader skips a UTF-8 BOM at the start of the stream.
type bomReader struct {
	br      *bufio.Reader
	checked bool
}

func newBOMReader(r io.Reader) *bomReader {
	return &bomReader{br: bufio.NewReader(r)}
}

func (r *bomReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		head, _ := r.br.Peek(len(utf8BOM))
		if bytes.Equal(head, utf8BOM) {
			_, _ = r.br.Discard(len(utf8BOM))
		}
	}
	return r.br.Read(p)
}

// utf8Sanitizer rewrites invalid UTF-8 bytes as '?'. A multi-byte sequence
// split across two reads is held back until the rest arrives.
type utf8Sanitizer struct {
	r       io.Reader
	pending []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	n := copy(p, s.pending)
	s.pending = s.pending[:0]

	m, err := s.r.Read(p[n:])
	n += m
	if n == 0 {
		return 0, err
	}

	return s.sanitize(p[:n], err == io.EOF), err
}

// sanitize fixes buf in place and returns the number of bytes to hand out.
func (s *utf8Sanitizer) sanitize(buf []byte, atEOF bool) int {
	w := 0
	for i := 0; i < len(buf); {
		if buf[i] < utf8.RuneSelf {
			buf[w] = buf[i]
			w++
			i++
			continue
		}

		if !atEOF && !utf8.FullRune(buf[i:]) {
			s.pending = append(s.pending, buf[i:]...)
			return w
		}

		r, size := utf8.DecodeRune(buf[i:])
		if r == utf8.RuneError && size == 1 {
			buf[w] = '?'
			w++
			i++
			continue
		}
		w += copy(buf[w:], buf[i:i+size])
		i += size
	}
	return w
}

// CountingReader counts the bytes read through it. It is safe to call
// BytesRead from another goroutine while reading.
type CountingReader struct {
	r     io.Reader
	n     atomic.Int64
	total int64
}

// NewCountingReader wraps r. total is the expected size, or zero if unknown.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{r: r, total: total}
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n.Add(int64(n))
	return n, err
}

// BytesRead returns the number of bytes read so far.
func (c *CountingReader) BytesRead() int64 {
	return c.n.Load()
}

// Progress returns the read progress in percent, or 0 when the total is unknown.
func (c *CountingReader) Progress() int {
	if c.total <= 0 {
		return 0
	}
	p := int(c.n.Load() * 100 / c.total)
	return min(p, 100)
}

// WrapForStreaming applies BOM removal, UTF-8 repair and byte counting to r.
func WrapForStreaming(r io.Reader, totalSize int64) *CountingReader {
	return NewCountingReader(newUTF8Sanitizer(newBOMReader(r)), totalSize)
}
