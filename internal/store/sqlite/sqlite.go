// Package sqlite implements core.Store on database/sql with the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/JonMunkholm/ingest/internal/core"
	_ "modernc.org/sqlite"
)

// MaxParams is SQLITE_MAX_VARIABLE_NUMBER in current SQLite builds.
const MaxParams = 32766

// Open opens a SQLite database. In-memory databases are limited to one
// connection so every statement sees the same database.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if isMemory(dsn) {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite: %w", err)
	}
	return db, nil
}

func isMemory(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, "mode=memory")
}

// queryer is satisfied by *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Store is a core.Store backed by SQLite.
type Store struct {
	db *sql.DB

	mu      sync.Mutex
	ensured map[string]bool
}

// New wraps an open database. The caller keeps ownership of db.
func New(db *sql.DB) *Store {
	return &Store{db: db, ensured: make(map[string]bool)}
}

// DB returns the underlying database.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) MaxParams() int { return MaxParams }

func (s *Store) Placeholder(int) string { return "?" }

func (s *Store) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// BindValue passes values through; dates are stored as ISO text.
func (s *Store) BindValue(_ core.Column, v any) any { return v }

func (s *Store) Execute(ctx context.Context, query string, args ...any) (core.Result, error) {
	return execute(ctx, s.db, query, args)
}

// EnsureTable creates the dataset table and adds columns missing from an
// existing one. Tables already ensured by this Store are skipped.
func (s *Store) EnsureTable(ctx context.Context, ds *core.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ensured[ds.Table] {
		return nil
	}

	table := s.QuoteIdent(ds.Table)
	defs := make([]string, len(ds.Columns))
	for i, c := range ds.Columns {
		defs[i] = s.QuoteIdent(c.Name) + " " + columnType(c.Kind)
	}

	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create table %s: %w", ds.Table, err)
	}

	existing, err := s.columns(ctx, ds.Table)
	if err != nil {
		return err
	}
	for i, c := range ds.Columns {
		if existing[c.Name] {
			continue
		}
		alter := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", table, defs[i])
		if _, err := s.db.ExecContext(ctx, alter); err != nil {
			return fmt.Errorf("add column %s.%s: %w", ds.Table, c.Name, err)
		}
	}

	s.ensured[ds.Table] = true
	return nil
}

// columns returns the column names of table from PRAGMA table_info.
func (s *Store) columns(ctx context.Context, table string) (map[string]bool, error) {
	res, err := execute(ctx, s.db, fmt.Sprintf("PRAGMA table_info(%s)", s.QuoteIdent(table)), nil)
	if err != nil {
		return nil, fmt.Errorf("inspect table %s: %w", table, err)
	}

	nameIdx := -1
	for i, c := range res.Columns {
		if c == "name" {
			nameIdx = i
		}
	}
	if nameIdx < 0 {
		return nil, fmt.Errorf("inspect table %s: no name column", table)
	}

	names := make(map[string]bool, len(res.Rows))
	for _, r := range res.Rows {
		switch v := r[nameIdx].(type) {
		case string:
			names[v] = true
		case []byte:
			names[string(v)] = true
		}
	}
	return names, nil
}

// Begin opens a transaction. The access mode is not enforced; SQLite
// serializes writers on its own.
func (s *Store) Begin(ctx context.Context, _ core.TxMode) (core.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &txn{tx: tx}, nil
}

type txn struct {
	tx *sql.Tx
}

func (t *txn) Execute(ctx context.Context, query string, args ...any) (core.Result, error) {
	return execute(ctx, t.tx, query, args)
}

func (t *txn) Commit(context.Context) error {
	return t.tx.Commit()
}

// Close rolls back unless the transaction was committed.
func (t *txn) Close(context.Context) error {
	err := t.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

// execute picks QueryContext for statements that return rows and
// ExecContext for the rest, so RowsAffected is reported for writes.
func execute(ctx context.Context, q queryer, query string, args []any) (core.Result, error) {
	if !returnsRows(query) {
		r, err := q.ExecContext(ctx, query, args...)
		if err != nil {
			return core.Result{}, err
		}
		n, err := r.RowsAffected()
		if err != nil {
			return core.Result{}, err
		}
		return core.Result{RowsAffected: n}, nil
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return core.Result{}, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return core.Result{}, err
	}

	res := core.Result{Columns: cols}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return core.Result{}, err
		}
		res.Rows = append(res.Rows, vals)
	}
	if err := rows.Err(); err != nil {
		return core.Result{}, err
	}
	return res, nil
}

func returnsRows(query string) bool {
	head := strings.ToUpper(strings.TrimSpace(query))
	for _, kw := range []string{"SELECT", "PRAGMA", "WITH", "VALUES"} {
		if strings.HasPrefix(head, kw) {
			return true
		}
	}
	return strings.Contains(head, " RETURNING ")
}

func columnType(k core.ColumnKind) string {
	switch k {
	case core.KindDecimal:
		return "NUMERIC"
	default:
		return "TEXT"
	}
}
