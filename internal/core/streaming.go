package core

// streaming.go provides the byte-level readers applied before tokenizing.
//
//   - BOMSkippingReader: drops a leading UTF-8 BOM (0xEF 0xBB 0xBF)
//   - UTF8Sanitizer: replaces invalid UTF-8 bytes with '?' so a stray
//     Latin-1 byte in a text column does not abort the whole file
//
// Use WrapForStreaming to apply both in the correct order.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	r       *bufio.Reader
	checked bool
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{r: bufio.NewReader(r)}
}

// Read implements io.Reader. The BOM check happens on the first call.
func (b *BOMSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		if head, _ := b.r.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
			if _, err := b.r.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return b.r.Read(p)
}

// UTF8Sanitizer wraps an io.Reader and replaces each invalid UTF-8 byte
// with '?'. Multi-byte sequences split across reads are carried over.
// Output is never longer than input.
type UTF8Sanitizer struct {
	r       io.Reader
	scratch []byte
	ready   []byte
	carry   [utf8.UTFMax]byte
	ncarry  int
	err     error
}

// NewUTF8Sanitizer creates a new streaming UTF-8 sanitizer.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{r: r}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for len(s.ready) == 0 {
		if s.err != nil {
			return 0, s.err
		}

		size := s.ncarry + max(len(p), 512)
		if cap(s.scratch) < size {
			s.scratch = make([]byte, size)
		}
		buf := s.scratch[:size]
		copy(buf, s.carry[:s.ncarry])

		n, err := s.r.Read(buf[s.ncarry:])
		data := buf[:s.ncarry+n]
		s.ncarry = 0
		s.err = err

		out, rest := sanitizeUTF8(data, err != nil)
		s.ncarry = copy(s.carry[:], rest)
		s.ready = out
	}

	n := copy(p, s.ready)
	s.ready = s.ready[n:]
	return n, nil
}

// sanitizeUTF8 rewrites data in place. When atEOF is false, an incomplete
// trailing sequence is returned as rest instead of being replaced.
func sanitizeUTF8(data []byte, atEOF bool) (out, rest []byte) {
	w := 0
	for i := 0; i < len(data); {
		c := data[i]
		if c < utf8.RuneSelf {
			data[w] = c
			w++
			i++
			continue
		}
		if !atEOF && !utf8.FullRune(data[i:]) {
			return data[:w], data[i:]
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			data[w] = '?'
			w++
			i++
			continue
		}
		copy(data[w:], data[i:i+size])
		w += size
		i += size
	}
	return data[:w], nil
}

// WrapForStreaming strips the BOM first, then sanitizes UTF-8.
func WrapForStreaming(r io.Reader) io.Reader {
	return NewUTF8Sanitizer(NewBOMSkippingReader(r))
}
