package core

// reader.go tokenizes delimited extracts into header + rows.
//
// Two tokenizers exist. With a quote character configured, encoding/csv does
// the work so delimiters and line breaks inside quotes are data. Without one,
// lines are split on the delimiter directly and quote characters are kept as
// plain text, which is how the pipe-delimited bank extracts are produced.

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Column names used for structural errors.
const (
	ColumnFile   = "FILE"
	ColumnHeader = "HEADER"
)

// MaxLineBytes bounds a single line for the unquoted tokenizer.
const MaxLineBytes = 16 * 1024 * 1024

// ReadOptions configures the delimited reader.
type ReadOptions struct {
	Delimiter rune
	Quote     rune // 0 disables quote handling
}

// recordReader yields raw records one at a time.
type recordReader interface {
	// Read returns the next record, or io.EOF.
	Read() ([]string, error)
	// Line returns the line the last record started on.
	Line() int
}

func newRecordReader(r io.Reader, opts ReadOptions) recordReader {
	if opts.Quote != 0 {
		cr := csv.NewReader(r)
		cr.Comma = opts.Delimiter
		cr.FieldsPerRecord = -1
		return &quotedRecords{r: cr}
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MaxLineBytes)
	return &plainRecords{sc: sc, sep: string(opts.Delimiter)}
}

type quotedRecords struct {
	r    *csv.Reader
	line int
}

func (q *quotedRecords) Read() ([]string, error) {
	rec, err := q.r.Read()
	if err != nil {
		return nil, err
	}
	q.line, _ = q.r.FieldPos(0)
	return rec, nil
}

func (q *quotedRecords) Line() int { return q.line }

type plainRecords struct {
	sc   *bufio.Scanner
	sep  string
	line int
}

func (p *plainRecords) Read() ([]string, error) {
	if !p.sc.Scan() {
		if err := p.sc.Err(); err != nil {
			return nil, fmt.Errorf("line %d: %w", p.line+1, err)
		}
		return nil, io.EOF
	}
	p.line++
	return strings.Split(strings.TrimSuffix(p.sc.Text(), "\r"), p.sep), nil
}

func (p *plainRecords) Line() int { return p.line }

// isBlankRecord reports whether a record came from an empty or
// whitespace-only line.
func isBlankRecord(rec []string) bool {
	return len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "")
}

// fileError builds the single structural error for an unreadable file.
func fileError(line int, msg string) *ValidationError {
	if line < 1 {
		line = 1
	}
	return &ValidationError{RowNumber: line, Column: ColumnFile, Message: msg}
}

// ReadDelimited tokenizes r into a trimmed header and one map per data row.
// Blank lines are skipped. Short rows are padded with "" and extra fields
// are ignored. A tokenizer failure yields exactly one FILE error and no rows.
func ReadDelimited(r io.Reader, opts ReadOptions) ([]string, []map[string]string, *ValidationError) {
	rr := newRecordReader(WrapForStreaming(r), opts)

	var header []string
	var rows []map[string]string
	for {
		rec, err := rr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, tokenizerError(err, rr)
		}
		if isBlankRecord(rec) {
			continue
		}

		if header == nil {
			header = make([]string, len(rec))
			for i, h := range rec {
				header[i] = strings.TrimSpace(h)
			}
			continue
		}

		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(rec) {
				row[name] = strings.TrimSpace(rec[i])
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}

	if header == nil {
		return nil, nil, fileError(1, "empty file")
	}
	return header, rows, nil
}

// ReadHeader returns only the trimmed header record.
func ReadHeader(r io.Reader, opts ReadOptions) ([]string, *ValidationError) {
	rr := newRecordReader(WrapForStreaming(r), opts)
	for {
		rec, err := rr.Read()
		if errors.Is(err, io.EOF) {
			return nil, fileError(1, "empty file")
		}
		if err != nil {
			return nil, tokenizerError(err, rr)
		}
		if isBlankRecord(rec) {
			continue
		}
		header := make([]string, len(rec))
		for i, h := range rec {
			header[i] = strings.TrimSpace(h)
		}
		return header, nil
	}
}

// tokenizerError maps a reader failure to its FILE error. Quote errors are
// reported on the line the offending record started, not where the reader
// gave up, since an open quote consumes every line after it.
func tokenizerError(err error, rr recordReader) *ValidationError {
	var pe *csv.ParseError
	if !errors.As(err, &pe) {
		return fileError(rr.Line()+1, "unreadable file: "+err.Error())
	}
	switch {
	case errors.Is(pe.Err, csv.ErrQuote):
		return fileError(pe.StartLine, "unreadable file: unterminated quoted field")
	case errors.Is(pe.Err, csv.ErrBareQuote):
		return fileError(pe.Line, "unreadable file: bare quote in unquoted field")
	default:
		return fileError(pe.Line, "unreadable file: "+err.Error())
	}
}
