package core

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LoadsTable is the bookkeeping table created by the migrations.
const LoadsTable = "ingest_loads"

// DefaultHistoryLimit caps History when no limit is given.
const DefaultHistoryLimit = 50

var loadColumns = []string{
	"id", "dataset", "file_name", "rows_total", "rows_rejected",
	"rows_reduced", "rows_loaded", "batch_size", "duration_ms", "loaded_at",
}

// LoadHistory reads and writes load records.
type LoadHistory struct {
	store Store
}

// NewLoadHistory creates a LoadHistory backed by store.
func NewLoadHistory(store Store) *LoadHistory {
	return &LoadHistory{store: store}
}

// Record inserts one load record. loaded_at is stored as unix milliseconds
// so both dialects read it back the same way.
func (h *LoadHistory) Record(ctx context.Context, rec LoadRecord) error {
	placeholders := make([]string, len(loadColumns))
	for i := range loadColumns {
		placeholders[i] = h.store.Placeholder(i + 1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		h.store.QuoteIdent(LoadsTable), h.columnList(), strings.Join(placeholders, ", "))

	_, err := h.store.Execute(ctx, query,
		rec.ID, rec.Dataset, rec.FileName,
		int64(rec.RowsTotal), int64(rec.RowsRejected), int64(rec.RowsReduced),
		int64(rec.RowsLoaded), int64(rec.BatchSize), rec.DurationMs,
		rec.LoadedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record load %s: %w", rec.ID, err)
	}
	return nil
}

// List returns the most recent loads of a dataset, newest first.
func (h *LoadHistory) List(ctx context.Context, dataset string, limit int) ([]LoadRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s ORDER BY %s DESC LIMIT %d",
		h.columnList(),
		h.store.QuoteIdent(LoadsTable),
		h.store.QuoteIdent("dataset"),
		h.store.Placeholder(1),
		h.store.QuoteIdent("loaded_at"),
		limit,
	)

	res, err := h.store.Execute(ctx, query, dataset)
	if err != nil {
		return nil, fmt.Errorf("list loads for %s: %w", dataset, err)
	}

	records := make([]LoadRecord, 0, len(res.Rows))
	for _, r := range res.Rows {
		if len(r) != len(loadColumns) {
			return nil, fmt.Errorf("list loads: got %d columns, want %d", len(r), len(loadColumns))
		}
		records = append(records, LoadRecord{
			ID:           asString(r[0]),
			Dataset:      asString(r[1]),
			FileName:     asString(r[2]),
			RowsTotal:    int(asInt64(r[3])),
			RowsRejected: int(asInt64(r[4])),
			RowsReduced:  int(asInt64(r[5])),
			RowsLoaded:   int(asInt64(r[6])),
			BatchSize:    int(asInt64(r[7])),
			DurationMs:   asInt64(r[8]),
			LoadedAt:     time.UnixMilli(asInt64(r[9])).UTC(),
		})
	}
	return records, nil
}

func (h *LoadHistory) columnList() string {
	quoted := make([]string, len(loadColumns))
	for i, c := range loadColumns {
		quoted[i] = h.store.QuoteIdent(c)
	}
	return strings.Join(quoted, ", ")
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(s)
	}
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	case []byte:
		i, _ := strconv.ParseInt(string(n), 10, 64)
		return i
	default:
		return 0
	}
}
