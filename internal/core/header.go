package core

import (
	"fmt"
	"strings"
)

// ValidateHeader checks a trimmed header against the dataset schema.
// Returns nil when the header is acceptable. The error always reports
// row 1, column HEADER, with the header joined by delim as the raw value.
func ValidateHeader(header []string, ds *Dataset, delim rune) *ValidationError {
	var msg string
	switch ds.HeaderMode {
	case HeaderRequiredSubset:
		msg = checkRequiredSubset(header, ds)
	default:
		msg = checkStrictHeader(header, ds)
	}
	if msg == "" {
		return nil
	}

	return &ValidationError{
		RowNumber: 1,
		Column:    ColumnHeader,
		RawValue:  strings.Join(header, string(delim)),
		Message:   msg,
	}
}

func checkStrictHeader(header []string, ds *Dataset) string {
	if len(header) != len(ds.Columns) {
		return fmt.Sprintf("expected %d columns, got %d", len(ds.Columns), len(header))
	}
	for i, col := range ds.Columns {
		if header[i] != col.Name {
			return fmt.Sprintf("column %d is %q, expected %q", i+1, header[i], col.Name)
		}
	}
	return ""
}

func checkRequiredSubset(header []string, ds *Dataset) string {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}

	var missing []string
	for _, name := range ds.RequiredColumns() {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return "missing required columns: " + strings.Join(missing, ", ")
	}
	return ""
}
