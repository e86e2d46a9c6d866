package core

// validation.go checks data rows against the dataset schema.
//
// Validation happens at two levels:
//  1. Header validation (header.go): short-circuits the whole file
//  2. Row validation: every field is checked and every problem recorded
//
// A row is accepted only if none of its fields failed. Data row i (0-based,
// blank lines not counted) is reported as row i+2 so numbers line up with
// the file as a spreadsheet shows it.

import (
	"bytes"
	"fmt"
)

// ValidationError describes one problem in an extract.
type ValidationError struct {
	RowNumber int    `json:"row"`
	Column    string `json:"column"`
	RawValue  string `json:"value"`
	Message   string `json:"message"`
}

func (e ValidationError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d: %s: %s", e.RowNumber, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.RowNumber, e.Message)
}

// ValidateRow checks every schema column of row. It returns all errors found
// and, only when there are none, the normalized row.
func ValidateRow(row map[string]string, rowNumber int, ds *Dataset) ([]ValidationError, Row) {
	var errs []ValidationError
	out := make(Row, len(ds.Columns))

	for _, col := range ds.Columns {
		raw := row[col.Name]
		v, problem := normalizeValue(col, raw)
		if problem == "" && v == nil && col.Required {
			problem = "is required"
		}
		if problem != "" {
			errs = append(errs, ValidationError{
				RowNumber: rowNumber,
				Column:    col.Name,
				RawValue:  raw,
				Message:   problem,
			})
			continue
		}
		out[col.Name] = v
	}

	if len(errs) > 0 {
		return errs, nil
	}
	return nil, out
}

// Parse tokenizes data, checks the header and validates every row.
// A structural problem returns a result with exactly one error and no rows.
func Parse(data []byte, ds *Dataset) ParseResult {
	delim, headerErr := chooseDelimiter(data, ds)
	if headerErr != nil {
		return ParseResult{Errors: []ValidationError{*headerErr}, Delimiter: delim}
	}

	header, rows, fileErr := ReadDelimited(bytes.NewReader(data), ReadOptions{Delimiter: delim, Quote: ds.Quote})
	if fileErr != nil {
		return ParseResult{Errors: []ValidationError{*fileErr}, Delimiter: delim}
	}
	if herr := ValidateHeader(header, ds, delim); herr != nil {
		return ParseResult{Errors: []ValidationError{*herr}, Delimiter: delim}
	}

	result := ParseResult{TotalRows: len(rows), Delimiter: delim}
	for i, raw := range rows {
		errs, row := ValidateRow(raw, i+2, ds)
		if len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			continue
		}
		result.Rows = append(result.Rows, row)
	}
	return result
}

// chooseDelimiter returns the first candidate delimiter whose header passes
// validation. When none does, it returns the first candidate with its error.
func chooseDelimiter(data []byte, ds *Dataset) (rune, *ValidationError) {
	candidates := ds.CandidateDelimiters()
	if len(candidates) == 1 {
		return candidates[0], nil
	}

	var firstErr *ValidationError
	for _, d := range candidates {
		header, err := ReadHeader(bytes.NewReader(data), ReadOptions{Delimiter: d, Quote: ds.Quote})
		if err == nil {
			err = ValidateHeader(header, ds, d)
		}
		if err == nil {
			return d, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return candidates[0], firstErr
}
