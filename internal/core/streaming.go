package core

// streaming.go wraps the uploaded file before it reaches the CSV reader:
//
//   - bomSkipper: drops a leading UTF-8 BOM written by spreadsheet exports
//   - utf8Sanitizer: replaces invalid UTF-8 bytes with '?' without buffering the file
//   - CountingReader: tracks bytes read for logs and metrics
//
// Use WrapForStreaming to apply all three in the correct order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// bomSkipper removes a UTF-8 BOM at the start of the stream, if present.
type bomSkipper struct {
	r       *bufio.Reader
	checked bool
}

func newBOMSkipper(r io.Reader) *bomSkipper {
	return &bomSkipper{r: bufio.NewReader(r)}
}

func (b *bomSkipper) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head, err := b.r.Peek(len(utf8BOM))
		if err != nil && err != io.EOF {
			return 0, err
		}
		if bytes.Equal(head, utf8BOM) {
			_, _ = b.r.Discard(len(utf8BOM))
		}
	}
	return b.r.Read(p)
}

// utf8Sanitizer replaces invalid UTF-8 bytes with '?' so a single bad byte
// does not poison a whole record. Incomplete multi-byte sequences at the end
// of a read are held back until the next read.
type utf8Sanitizer struct {
	r       io.Reader
	pending []byte
}

func newUTF8Sanitizer(r io.Reader) *utf8Sanitizer {
	return &utf8Sanitizer{r: r, pending: make([]byte, 0, utf8.UTFMax)}
}

func (s *utf8Sanitizer) Read(p []byte) (int, error) {
	if len(p) < utf8.UTFMax {
		// Too small to hold back a partial rune safely.
		if len(s.pending) > 0 {
			n := copy(p, s.pending)
			s.pending = append(s.pending[:0], s.pending[n:]...)
			return n, nil
		}
		return s.r.Read(p)
	}

	offset := copy(p, s.pending)
	s.pending = s.pending[:0]

	n, err := s.r.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	atEOF := err == io.EOF
	data := p[:n]
	if utf8.Valid(data) {
		return n, err
	}

	write := 0
	for read := 0; read < len(data); {
		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			if !atEOF && !utf8.FullRune(data[read:]) {
				s.pending = append(s.pending, data[read:]...)
				break
			}
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}

	if write == 0 && len(s.pending) > 0 && err == nil {
		// Everything was held back; ask the caller to read again.
		return 0, nil
	}
	return write, err
}

// CountingReader tracks bytes read from the underlying reader.
type CountingReader struct {
	r         io.Reader
	BytesRead int64
	Total     int64 // 0 if unknown
}

// NewCountingReader creates a counting reader with an optional total size.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{r: r, Total: total}
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.BytesRead += int64(n)
	return n, err
}

// Progress returns the read progress as a percentage (0-100), or 0 if the total is unknown.
func (c *CountingReader) Progress() int {
	if c.Total <= 0 {
		return 0
	}
	return int(c.BytesRead * 100 / c.Total)
}

// WrapForStreaming applies BOM skipping, then UTF-8 sanitizing, then byte counting.
func WrapForStreaming(r io.Reader, totalSize int64) *CountingReader {
	return NewCountingReader(newUTF8Sanitizer(newBOMSkipper(r)), totalSize)
}
