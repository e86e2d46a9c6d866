package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadHistory_Record(t *testing.T) {
	store := newFakeStore()
	var gotSQL string
	var gotArgs []any
	store.execFn = func(sql string, args []any) (Result, error) {
		gotSQL, gotArgs = sql, args
		return Result{RowsAffected: 1}, nil
	}

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	err := NewLoadHistory(store).Record(context.Background(), LoadRecord{
		ID: "load-1", Dataset: "deposits", FileName: "dep.txt",
		RowsTotal: 10, RowsRejected: 2, RowsReduced: 1, RowsLoaded: 7,
		BatchSize: 372, DurationMs: 15, LoadedAt: at,
	})
	require.NoError(t, err)

	assert.Contains(t, gotSQL, `INSERT INTO "ingest_loads"`)
	assert.Equal(t, []any{
		"load-1", "deposits", "dep.txt",
		int64(10), int64(2), int64(1), int64(7), int64(372), int64(15),
		at.UnixMilli(),
	}, gotArgs)
}

func TestLoadHistory_List(t *testing.T) {
	store := newFakeStore()
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	var gotSQL string
	store.execFn = func(sql string, args []any) (Result, error) {
		gotSQL = sql
		return Result{
			Columns: loadColumns,
			Rows: [][]any{
				// Drivers disagree on integer types; values arrive as they come.
				{"load-2", "deposits", []byte("b.txt"), int64(5), int32(0), 0, float64(5), "500", int64(9), at.UnixMilli()},
			},
		}, nil
	}

	recs, err := NewLoadHistory(store).List(context.Background(), "deposits", 0)
	require.NoError(t, err)

	assert.Contains(t, gotSQL, "ORDER BY \"loaded_at\" DESC LIMIT 50")
	require.Len(t, recs, 1)
	assert.Equal(t, LoadRecord{
		ID: "load-2", Dataset: "deposits", FileName: "b.txt",
		RowsTotal: 5, RowsLoaded: 5, BatchSize: 500, DurationMs: 9, LoadedAt: at,
	}, recs[0])
}

func TestLoadHistory_ListShapeMismatch(t *testing.T) {
	store := newFakeStore()
	store.execFn = func(string, []any) (Result, error) {
		return Result{Rows: [][]any{{"only-one"}}}, nil
	}

	_, err := NewLoadHistory(store).List(context.Background(), "deposits", 5)
	assert.Error(t, err)
}
