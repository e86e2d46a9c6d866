package core

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

func TestBOMSkippingReader(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "file with BOM",
			input:    append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello,world")...),
			expected: "hello,world",
		},
		{
			name:     "file without BOM",
			input:    []byte("hello,world"),
			expected: "hello,world",
		},
		{
			name:     "empty file",
			input:    []byte{},
			expected: "",
		},
		{
			name:     "only BOM",
			input:    []byte{0xEF, 0xBB, 0xBF},
			expected: "",
		},
		{
			name:     "partial BOM at start",
			input:    []byte{0xEF, 0xBB, 'a', 'b', 'c'},
			expected: string([]byte{0xEF, 0xBB, 'a', 'b', 'c'}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewBOMSkippingReader(bytes.NewReader(tt.input))
			result, err := io.ReadAll(reader)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestStreamingUTF8Sanitizer(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{
			name:     "valid ASCII",
			input:    []byte("hello,world"),
			expected: "hello,world",
		},
		{
			name:     "valid UTF-8 with multibyte",
			input:    []byte("hello,wörld"),
			expected: "hello,wörld",
		},
		{
			name:     "invalid single byte replaced",
			input:    []byte{'h', 'e', 0x80, 'l', 'o'},
			expected: "he?lo", // Invalid byte replaced with ?
		},
		{
			name:     "empty input",
			input:    []byte{},
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewUTF8Sanitizer(bytes.NewReader(tt.input))
			result, err := io.ReadAll(reader)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

// oneByteReader returns at most one byte per Read, splitting every
// multi-byte sequence across calls.
type oneByteReader struct{ r io.Reader }

func (o oneByteReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	return o.r.Read(p[:1])
}

func TestUTF8Sanitizer_SplitSequences(t *testing.T) {
	input := "Zürich|€12|\xff|naïve"
	want := "Zürich|€12|?|naïve"

	reader := NewUTF8Sanitizer(oneByteReader{strings.NewReader(input)})
	result, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != want {
		t.Errorf("got %q, want %q", string(result), want)
	}
}

func TestUTF8Sanitizer_TruncatedAtEOF(t *testing.T) {
	// First two bytes of a three-byte sequence with nothing after them.
	input := []byte{'o', 'k', 0xE2, 0x82}

	result, err := io.ReadAll(NewUTF8Sanitizer(bytes.NewReader(input)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != "ok??" {
		t.Errorf("got %q, want %q", string(result), "ok??")
	}
}

func TestWrapForStreaming(t *testing.T) {
	// Create a file with BOM and some invalid UTF-8
	input := append([]byte{0xEF, 0xBB, 0xBF}, []byte{'h', 'e', 0x80, 'l', 'o'}...)

	reader := WrapForStreaming(bytes.NewReader(input))
	result, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// BOM should be stripped, invalid byte replaced
	expected := "he?lo"
	if string(result) != expected {
		t.Errorf("got %q, want %q", string(result), expected)
	}
}

func TestReadDelimited_BOMAndInvalidUTF8(t *testing.T) {
	input := "\xEF\xBB\xBFid|name\n1|S\xe3o Paulo\n"

	for _, quote := range []rune{0, '"'} {
		for _, split := range []bool{false, true} {
			var r io.Reader = strings.NewReader(input)
			if split {
				r = oneByteReader{r}
			}

			header, rows, err := ReadDelimited(r, ReadOptions{Delimiter: '|', Quote: quote})
			if err != nil {
				t.Fatalf("quote=%q split=%v: unexpected error: %v", quote, split, err)
			}
			if len(header) != 2 || header[0] != "id" || header[1] != "name" {
				t.Errorf("quote=%q split=%v: header = %q, want BOM stripped from first column", quote, split, header)
			}
			if len(rows) != 1 || rows[0]["id"] != "1" || rows[0]["name"] != "S?o Paulo" {
				t.Errorf("quote=%q split=%v: rows = %v", quote, split, rows)
			}
		}
	}
}
