package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/JonMunkholm/ingest/internal/core"
	"github.com/jedib0t/go-pretty/v6/table"
)

// datasetSummary is the JSON shape of one datasets entry.
type datasetSummary struct {
	Key            string   `json:"key"`
	Group          string   `json:"group"`
	Label          string   `json:"label"`
	Table          string   `json:"table"`
	HeaderMode     string   `json:"header_mode"`
	Delimiters     []string `json:"delimiters"`
	Columns        []string `json:"columns"`
	Required       []string `json:"required"`
	CategoryColumn string   `json:"category_column,omitempty"`
	KeyColumn      string   `json:"key_column,omitempty"`
}

func summarize(ds *core.Dataset) datasetSummary {
	s := datasetSummary{
		Key:            ds.Key,
		Group:          ds.Group,
		Label:          ds.Label,
		Table:          ds.Table,
		HeaderMode:     ds.HeaderMode.String(),
		Columns:        ds.ColumnNames(),
		Required:       ds.RequiredColumns(),
		CategoryColumn: ds.CategoryColumn,
		KeyColumn:      ds.KeyColumn,
	}
	for _, d := range ds.CandidateDelimiters() {
		s.Delimiters = append(s.Delimiters, delimiterName(d))
	}
	return s
}

func delimiterName(d rune) string {
	switch d {
	case '\t':
		return `\t`
	default:
		return string(d)
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderJSON(w io.Writer, v any) error {
	if all, ok := v.([]*core.Dataset); ok {
		out := make([]datasetSummary, len(all))
		for i, ds := range all {
			out[i] = summarize(ds)
		}
		v = out
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderDatasets(w io.Writer, all []*core.Dataset) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Key", "Group", "Table", "Header", "Delimiters", "Columns", "Required"})
	for _, ds := range all {
		s := summarize(ds)
		t.AppendRow(table.Row{
			s.Key, s.Group, s.Table, s.HeaderMode,
			strings.Join(s.Delimiters, " "), len(s.Columns), len(s.Required),
		})
	}
	t.Render()
}

// renderErrors prints up to limit validation errors; limit <= 0 prints all.
func renderErrors(w io.Writer, errs []core.ValidationError, limit int) {
	if len(errs) == 0 {
		return
	}

	shown := errs
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Row", "Column", "Value", "Problem"})
	for _, e := range shown {
		t.AppendRow(table.Row{e.RowNumber, e.Column, e.RawValue, e.Message})
	}
	t.Render()

	if rest := len(errs) - len(shown); rest > 0 {
		fmt.Fprintf(w, "... and %d more\n", rest)
	}
}

func renderImport(w io.Writer, r *core.ImportResult) {
	t := newTable(w)
	t.AppendRows([]table.Row{
		{"Dataset", r.Dataset},
		{"File", r.FileName},
		{"Rows", r.TotalRows},
		{"Accepted", r.Accepted},
		{"Rejected", r.Rejected},
		{"Loaded", r.Loaded},
		{"Batch size", batchLabel(r.Plan)},
	})
	if r.Reduction != nil {
		t.AppendRow(table.Row{"Reduced", fmt.Sprintf("%d -> %d (%.2f%%)",
			r.Reduction.OriginalCount, r.Reduction.ReducedCount, r.Reduction.ReductionPercent)})
		if len(r.Reduction.ReducedCategories) > 0 {
			t.AppendRow(table.Row{"Sampled", strings.Join(r.Reduction.ReducedCategories, ", ")})
		}
	}
	switch {
	case r.DryRun:
		t.AppendRow(table.Row{"Status", "dry run"})
	case r.Skipped:
		t.AppendRow(table.Row{"Status", "skipped (rejected rows)"})
	case r.LoadID != "":
		t.AppendRow(table.Row{"Load ID", r.LoadID})
	}
	t.Render()
}

func batchLabel(p core.BatchPlan) string {
	if p.WasReduced {
		return fmt.Sprintf("%d (reduced, max %d)", p.BatchSize, p.MaxRowsPerStatement)
	}
	return fmt.Sprintf("%d", p.BatchSize)
}

func renderHistory(w io.Writer, records []core.LoadRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "(no loads)")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"Loaded At", "File", "Total", "Rejected", "Reduced", "Loaded", "Batch", "Duration", "ID"})
	for _, rec := range records {
		t.AppendRow(table.Row{
			rec.LoadedAt.Format(time.DateTime), rec.FileName,
			rec.RowsTotal, rec.RowsRejected, rec.RowsReduced, rec.RowsLoaded,
			rec.BatchSize, (time.Duration(rec.DurationMs) * time.Millisecond).String(), rec.ID,
		})
	}
	t.Render()
}
