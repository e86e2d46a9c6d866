package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// KeyedUpdate sets column values on every row whose key column equals Key.
type KeyedUpdate struct {
	Key    string            `json:"key"`
	Values map[string]string `json:"values"`
}

// BulkUpdateResult buckets the outcome per key.
type BulkUpdateResult struct {
	Updated  []string          `json:"updated"`
	NotFound []string          `json:"not_found"`
	Failed   map[string]string `json:"failed,omitempty"`
}

// ErrNoKeyColumn is returned for datasets without a key column.
var ErrNoKeyColumn = errors.New("dataset has no key column")

// BulkUpdate applies each update with its own statement, outside any shared
// transaction. One key failing does not stop the others: its error is
// recorded under Failed and processing continues. Values are validated and
// normalized with the same column rules as imports.
//
// Returns an error only when the request itself is unusable.
func BulkUpdate(ctx context.Context, store Store, ds *Dataset, updates []KeyedUpdate) (*BulkUpdateResult, error) {
	if ds.KeyColumn == "" {
		return nil, fmt.Errorf("%w: %s", ErrNoKeyColumn, ds.Key)
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("no rows specified")
	}

	keyCol, _ := ds.Column(ds.KeyColumn)

	if err := store.EnsureTable(ctx, ds); err != nil {
		return nil, fmt.Errorf("ensure table %s: %w", ds.Table, err)
	}

	result := &BulkUpdateResult{Failed: make(map[string]string)}
	for _, u := range updates {
		query, args, problem := buildUpdate(store, ds, keyCol, u)
		if problem != "" {
			result.Failed[u.Key] = problem
			continue
		}

		res, err := store.Execute(ctx, query, args...)
		if err != nil {
			result.Failed[u.Key] = err.Error()
			continue
		}
		if res.RowsAffected == 0 {
			result.NotFound = append(result.NotFound, u.Key)
			continue
		}
		result.Updated = append(result.Updated, u.Key)
	}

	return result, nil
}

// buildUpdate renders one UPDATE ... WHERE key = ?. Columns are written in
// sorted order so the statement text is stable.
func buildUpdate(d Dialect, ds *Dataset, keyCol Column, u KeyedUpdate) (string, []any, string) {
	if strings.TrimSpace(u.Key) == "" {
		return "", nil, "key is required"
	}
	if len(u.Values) == 0 {
		return "", nil, "no values to update"
	}

	names := make([]string, 0, len(u.Values))
	for name := range u.Values {
		names = append(names, name)
	}
	sort.Strings(names)

	var sets []string
	var args []any
	for _, name := range names {
		col, ok := ds.Column(name)
		if !ok {
			return "", nil, fmt.Sprintf("column not found: %s", name)
		}
		if name == ds.KeyColumn {
			return "", nil, fmt.Sprintf("cannot update key column: %s", name)
		}

		v, problem := normalizeValue(col, u.Values[name])
		if problem == "" && v == nil && col.Required {
			problem = "is required"
		}
		if problem != "" {
			return "", nil, fmt.Sprintf("%s %s", name, problem)
		}

		args = append(args, d.BindValue(col, v))
		sets = append(sets, fmt.Sprintf("%s = %s", d.QuoteIdent(name), d.Placeholder(len(args))))
	}

	args = append(args, d.BindValue(keyCol, strings.TrimSpace(u.Key)))
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s",
		d.QuoteIdent(ds.Table),
		strings.Join(sets, ", "),
		d.QuoteIdent(ds.KeyColumn),
		d.Placeholder(len(args)),
	)
	return query, args, ""
}
