package core

import "context"

// Result is the outcome of one statement.
type Result struct {
	Columns      []string
	Rows         [][]any
	RowsAffected int64
}

// Executor runs a statement with positional arguments.
type Executor interface {
	Execute(ctx context.Context, sql string, args ...any) (Result, error)
}

// TxMode is the access mode requested for a transaction.
type TxMode int

const (
	TxReadWrite TxMode = iota
	TxReadOnly
)

// Tx is a storage transaction. Close rolls back unless Commit succeeded,
// so callers can always defer Close.
type Tx interface {
	Executor
	Commit(ctx context.Context) error
	Close(ctx context.Context) error
}

// Dialect renders engine-specific SQL fragments and driver values.
type Dialect interface {
	// Placeholder returns the bind marker for the n-th argument (1-based).
	Placeholder(n int) string
	// QuoteIdent quotes a table or column name.
	QuoteIdent(name string) string
	// BindValue converts a normalized value into a driver argument for col.
	BindValue(col Column, v any) any
}

// Store is the storage collaborator used by the loader, bulk updater and
// load history. Implementations live under internal/store.
type Store interface {
	Executor
	Dialect

	// EnsureTable creates the dataset's table and adds missing columns.
	// It is idempotent and may be cached per table by the implementation.
	EnsureTable(ctx context.Context, ds *Dataset) error

	// Begin opens a transaction.
	Begin(ctx context.Context, mode TxMode) (Tx, error)

	// MaxParams is the engine's bound-parameter ceiling per statement.
	MaxParams() int
}
