package core

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkUpdate_BestEffort(t *testing.T) {
	store := newFakeStore()
	var statements []string
	var lastArgs [][]any
	store.execFn = func(sql string, args []any) (Result, error) {
		statements = append(statements, sql)
		lastArgs = append(lastArgs, args)
		switch args[len(args)-1] {
		case "missing":
			return Result{RowsAffected: 0}, nil
		case "locked":
			return Result{}, errors.New("database is locked")
		}
		return Result{RowsAffected: 1}, nil
	}

	updates := []KeyedUpdate{
		{Key: "arr-1", Values: map[string]string{"status": "closed", "account_id": "42"}},
		{Key: "missing", Values: map[string]string{"status": "active"}},
		{Key: "locked", Values: map[string]string{"currency": "EUR"}},
		{Key: "arr-2", Values: map[string]string{"account_id": "not-a-number"}},
		{Key: "arr-3", Values: map[string]string{"notes": "x"}},
		{Key: "arr-4", Values: map[string]string{"arrangement_id": "arr-9"}},
		{Key: "", Values: map[string]string{"status": "active"}},
		{Key: "arr-5", Values: map[string]string{"currency": "GBP"}},
	}

	result, err := BulkUpdate(context.Background(), store, arrangementsDataset(), updates)
	require.NoError(t, err)

	assert.Equal(t, []string{"arr-1", "arr-5"}, result.Updated)
	assert.Equal(t, []string{"missing"}, result.NotFound)
	assert.Equal(t, map[string]string{
		"locked": "database is locked",
		"arr-2":  "account_id must be a decimal number",
		"arr-3":  "column not found: notes",
		"arr-4":  "cannot update key column: arrangement_id",
		"":       "key is required",
	}, result.Failed)

	// Invalid updates never reach storage.
	assert.Len(t, statements, 4)
	assert.Equal(t,
		`UPDATE "arrangements" SET "account_id" = ?, "status" = ? WHERE "arrangement_id" = ?`,
		statements[0])
	assert.Equal(t, []any{float64(42), "CLOSED", "arr-1"}, lastArgs[0])
	assert.Equal(t, []string{"arrangements"}, store.ensured)
	assert.Zero(t, store.begins, "bulk updates run outside a transaction")
}

func TestBulkUpdate_RequestErrors(t *testing.T) {
	store := newFakeStore()

	_, err := BulkUpdate(context.Background(), store, ratesDataset(), []KeyedUpdate{{Key: "USD"}})
	assert.ErrorIs(t, err, ErrNoKeyColumn)

	_, err = BulkUpdate(context.Background(), store, arrangementsDataset(), nil)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "no rows specified"))
	assert.Empty(t, store.execs)
}

func TestBuildUpdate_RequiredColumnCannotBeCleared(t *testing.T) {
	ds := arrangementsDataset()
	keyCol, _ := ds.Column(ds.KeyColumn)

	_, _, problem := buildUpdate(newFakeStore(), ds, keyCol, KeyedUpdate{
		Key:    "arr-1",
		Values: map[string]string{"currency": "  "},
	})
	assert.Equal(t, "currency is required", problem)
}
