// Package postgres implements core.Store on a pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/ingest/internal/config"
	"github.com/JonMunkholm/ingest/internal/core"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MaxParams is the bind parameter limit of the extended protocol.
const MaxParams = 65535

// Connect builds a pool from the database settings and verifies it with a ping.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store is a core.Store backed by Postgres.
type Store struct {
	pool *pgxpool.Pool

	mu      sync.Mutex
	ensured map[string]bool
}

// New wraps an open pool. The caller keeps ownership of the pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, ensured: make(map[string]bool)}
}

// Pool returns the underlying pool.
func (s *Store) Pool() *pgxpool.Pool { return s.pool }

func (s *Store) MaxParams() int { return MaxParams }

func (s *Store) Placeholder(n int) string { return "$" + strconv.Itoa(n) }

func (s *Store) QuoteIdent(name string) string { return pgx.Identifier{name}.Sanitize() }

// BindValue sends normalized dates as DATE values. Anything that does not
// parse is passed through and left for the server to reject.
func (s *Store) BindValue(col core.Column, v any) any {
	if col.Kind != core.KindDate8 && col.Kind != core.KindDate10 {
		return v
	}
	str, ok := v.(string)
	if !ok {
		return v
	}
	t, err := time.Parse(time.DateOnly, str)
	if err != nil {
		return v
	}
	return pgtype.Date{Time: t, Valid: true}
}

func (s *Store) Execute(ctx context.Context, sql string, args ...any) (core.Result, error) {
	return execute(ctx, s.pool, sql, args)
}

// EnsureTable creates the dataset table and adds any missing columns.
// Tables already ensured by this Store are skipped.
func (s *Store) EnsureTable(ctx context.Context, ds *core.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ensured[ds.Table] {
		return nil
	}

	defs := make([]string, len(ds.Columns))
	adds := make([]string, len(ds.Columns))
	for i, c := range ds.Columns {
		def := s.QuoteIdent(c.Name) + " " + columnType(c.Kind)
		defs[i] = def
		adds[i] = "ADD COLUMN IF NOT EXISTS " + def
	}

	table := s.QuoteIdent(ds.Table)
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(defs, ", "))
	if _, err := s.pool.Exec(ctx, create); err != nil {
		return fmt.Errorf("create table %s: %w", ds.Table, err)
	}

	alter := fmt.Sprintf("ALTER TABLE %s %s", table, strings.Join(adds, ", "))
	if _, err := s.pool.Exec(ctx, alter); err != nil {
		return fmt.Errorf("add columns to %s: %w", ds.Table, err)
	}

	s.ensured[ds.Table] = true
	return nil
}

func (s *Store) Begin(ctx context.Context, mode core.TxMode) (core.Tx, error) {
	opts := pgx.TxOptions{AccessMode: pgx.ReadWrite}
	if mode == core.TxReadOnly {
		opts.AccessMode = pgx.ReadOnly
	}

	tx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	return &txn{tx: tx}, nil
}

type txn struct {
	tx pgx.Tx
}

func (t *txn) Execute(ctx context.Context, sql string, args ...any) (core.Result, error) {
	return execute(ctx, t.tx, sql, args)
}

func (t *txn) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Close rolls back unless the transaction was committed.
func (t *txn) Close(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// execute runs every statement through Query so result rows and the
// command tag both come back from a single round trip.
func execute(ctx context.Context, q querier, sql string, args []any) (core.Result, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return core.Result{}, err
	}
	defer rows.Close()

	var res core.Result
	for _, fd := range rows.FieldDescriptions() {
		res.Columns = append(res.Columns, fd.Name)
	}
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return core.Result{}, err
		}
		res.Rows = append(res.Rows, vals)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return core.Result{}, err
	}

	res.RowsAffected = rows.CommandTag().RowsAffected()
	return res, nil
}

func columnType(k core.ColumnKind) string {
	switch k {
	case core.KindDecimal:
		return "NUMERIC"
	case core.KindDate8, core.KindDate10:
		return "DATE"
	default:
		return "TEXT"
	}
}
