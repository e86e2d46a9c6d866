// Package core provides the ingestion pipeline for delimited deposit extracts.
// This package has no transport dependencies and can be used by any frontend.
package core

import (
	"fmt"
	"time"
)

// ColumnKind represents the expected format of a column value.
type ColumnKind int

const (
	KindText ColumnKind = iota
	KindDecimal
	KindDate8  // YYYYMMDD
	KindDate10 // YYMMDDHHmm
	KindEnum
)

// String returns the lowercase name used in listings and logs.
func (k ColumnKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindDecimal:
		return "decimal"
	case KindDate8:
		return "date8"
	case KindDate10:
		return "date10"
	case KindEnum:
		return "enum"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Column defines validation rules for a single extract column.
type Column struct {
	Name     string     // Header name and storage column name
	Kind     ColumnKind // Expected format
	Required bool       // Value must be non-blank
	Allowed  []string   // Uppercase allowed values for KindEnum
}

// HeaderMode selects how the header row is checked against the schema.
type HeaderMode int

const (
	// HeaderStrict requires the header to equal the schema column list exactly.
	HeaderStrict HeaderMode = iota
	// HeaderRequiredSubset only requires every required column to be present.
	HeaderRequiredSubset
)

func (m HeaderMode) String() string {
	if m == HeaderRequiredSubset {
		return "required-subset"
	}
	return "strict"
}

// Dataset describes one extract type: its columns, file format and destination.
// Datasets are registered at init time and treated as immutable afterwards.
type Dataset struct {
	Key        string     // Unique identifier: "deposits"
	Group      string     // Listing group: "Deposits", "Reference"
	Label      string     // Display name
	Table      string     // Destination table name
	Columns    []Column   // Ordered; defines header order and storage order
	HeaderMode HeaderMode // Header check mode

	// Delimiter is the field separator. Delimiters, when set, lists
	// candidates tried in order; the first whose header validates wins.
	Delimiter  rune
	Delimiters []rune

	// Quote is the quote character, or 0 when quotes are plain text.
	Quote rune

	// CategoryColumn is the column the reduction sampler groups by.
	CategoryColumn string

	// KeyColumn identifies rows for bulk updates.
	KeyColumn string
}

// Column returns the column with the given name.
func (d *Dataset) Column(name string) (Column, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the schema column names in order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// RequiredColumns returns the names of required columns in schema order.
func (d *Dataset) RequiredColumns() []string {
	var names []string
	for _, c := range d.Columns {
		if c.Required {
			names = append(names, c.Name)
		}
	}
	return names
}

// CandidateDelimiters returns the delimiters to try, in order.
func (d *Dataset) CandidateDelimiters() []rune {
	if len(d.Delimiters) > 0 {
		return d.Delimiters
	}
	return []rune{d.Delimiter}
}

// Row is an accepted, normalized row keyed by column name.
// Values are string, float64 or nil.
type Row map[string]any

// ParseResult holds the outcome of parsing and validating one file.
type ParseResult struct {
	Rows      []Row             // Accepted rows in file order
	Errors    []ValidationError // Every problem found, in file order
	TotalRows int               // Non-blank data rows seen
	Delimiter rune              // Delimiter that was used
}

// Structural reports whether the file was rejected before row validation.
func (r ParseResult) Structural() bool {
	return len(r.Errors) == 1 && (r.Errors[0].Column == ColumnFile || r.Errors[0].Column == ColumnHeader)
}

// RejectedRows returns the number of distinct data rows with at least one error.
func (r ParseResult) RejectedRows() int {
	seen := make(map[int]struct{})
	for _, e := range r.Errors {
		if e.Column == ColumnFile || e.Column == ColumnHeader {
			continue
		}
		seen[e.RowNumber] = struct{}{}
	}
	return len(seen)
}

// BatchPlan is the rows-per-statement decision for a load.
type BatchPlan struct {
	BatchSize           int  `json:"batch_size"`
	WasReduced          bool `json:"was_reduced"`
	MaxRowsPerStatement int  `json:"max_rows_per_statement"`
}

// LoadRecord is one completed load kept in the load history table.
type LoadRecord struct {
	ID           string    `json:"id"`
	Dataset      string    `json:"dataset"`
	FileName     string    `json:"file_name"`
	RowsTotal    int       `json:"rows_total"`
	RowsRejected int       `json:"rows_rejected"`
	RowsReduced  int       `json:"rows_reduced"`
	RowsLoaded   int       `json:"rows_loaded"`
	BatchSize    int       `json:"batch_size"`
	DurationMs   int64     `json:"duration_ms"`
	LoadedAt     time.Time `json:"loaded_at"`
}
