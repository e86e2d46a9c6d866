package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// fakeStore is an in-memory Store that records every statement. Inserts
// executed inside a transaction only become visible after Commit.
type fakeStore struct {
	mu sync.Mutex

	maxParams int

	ensured  []string
	ensureFn func(ds *Dataset) error

	// execFn answers statements run outside a transaction.
	execFn func(sql string, args []any) (Result, error)
	execs  []string

	// failBatch makes the n-th INSERT inside a transaction fail (1-based).
	failBatch int
	commitErr error

	begins    int
	commits   int
	closes    int
	inserts   []string
	committed [][]any // one entry per committed row
}

func newFakeStore() *fakeStore {
	return &fakeStore{maxParams: 32766}
}

func (f *fakeStore) Placeholder(int) string { return "?" }

func (f *fakeStore) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (f *fakeStore) BindValue(_ Column, v any) any { return v }

func (f *fakeStore) MaxParams() int { return f.maxParams }

func (f *fakeStore) EnsureTable(_ context.Context, ds *Dataset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensured = append(f.ensured, ds.Table)
	if f.ensureFn != nil {
		return f.ensureFn(ds)
	}
	return nil
}

func (f *fakeStore) Execute(_ context.Context, sql string, args ...any) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execs = append(f.execs, sql)
	if f.execFn != nil {
		return f.execFn(sql, args)
	}
	return Result{RowsAffected: 1}, nil
}

func (f *fakeStore) Begin(_ context.Context, _ TxMode) (Tx, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.begins++
	return &fakeTx{store: f}, nil
}

func (f *fakeStore) committedRows() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.committed)
}

type fakeTx struct {
	store     *fakeStore
	staged    [][]any
	batches   int
	done      bool
	committed bool
}

func (t *fakeTx) Execute(_ context.Context, sql string, args ...any) (Result, error) {
	f := t.store
	f.mu.Lock()
	defer f.mu.Unlock()

	if t.done {
		return Result{}, fmt.Errorf("tx is closed")
	}
	t.batches++
	f.inserts = append(f.inserts, sql)
	if f.failBatch > 0 && t.batches == f.failBatch {
		return Result{}, fmt.Errorf("injected failure on batch %d", t.batches)
	}

	width := strings.Count(sql[:strings.Index(sql, ")")], ",") + 1
	for i := 0; i < len(args); i += width {
		t.staged = append(t.staged, args[i:i+width])
	}
	return Result{RowsAffected: int64(len(args) / width)}, nil
}

func (t *fakeTx) Commit(context.Context) error {
	f := t.store
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits++
	if f.commitErr != nil {
		return f.commitErr
	}
	f.committed = append(f.committed, t.staged...)
	t.done, t.committed = true, true
	return nil
}

func (t *fakeTx) Close(context.Context) error {
	f := t.store
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	t.done = true
	return nil
}

// arrangementsDataset mirrors the subset-header dataset used in examples.
func arrangementsDataset() *Dataset {
	return &Dataset{
		Key:        "arrangements",
		Group:      "Deposits",
		Label:      "Arrangements",
		Table:      "arrangements",
		HeaderMode: HeaderRequiredSubset,
		Delimiter:  '|',
		Quote:      '"',
		Columns: []Column{
			{Name: "arrangement_id", Kind: KindText, Required: true},
			{Name: "account_id", Kind: KindDecimal, Required: true},
			{Name: "currency", Kind: KindText, Required: true},
			{Name: "product_code", Kind: KindText},
			{Name: "opened_on", Kind: KindDate8},
			{Name: "status", Kind: KindEnum, Allowed: []string{"ACTIVE", "CLOSED"}},
		},
		CategoryColumn: "product_code",
		KeyColumn:      "arrangement_id",
	}
}

// ratesDataset is a small strict-header dataset.
func ratesDataset() *Dataset {
	return &Dataset{
		Key:        "currency_rates",
		Group:      "Reference",
		Label:      "Currency Rates",
		Table:      "currency_rates",
		HeaderMode: HeaderStrict,
		Delimiter:  '|',
		Columns: []Column{
			{Name: "currency_code", Kind: KindText, Required: true},
			{Name: "rate", Kind: KindDecimal, Required: true},
			{Name: "rate_date", Kind: KindDate8, Required: true},
			{Name: "captured_at", Kind: KindDate10},
		},
		CategoryColumn: "currency_code",
	}
}

// wideDataset returns a strict dataset with n text columns c1..cn.
func wideDataset(n int) *Dataset {
	cols := make([]Column, n)
	for i := range cols {
		cols[i] = Column{Name: fmt.Sprintf("c%d", i+1), Kind: KindText}
	}
	return &Dataset{Key: "wide", Table: "wide", Columns: cols, Delimiter: '|'}
}

func makeRows(ds *Dataset, n int) []Row {
	rows := make([]Row, n)
	for i := range rows {
		r := make(Row, len(ds.Columns))
		for _, c := range ds.Columns {
			r[c.Name] = fmt.Sprintf("%s-%d", c.Name, i)
		}
		rows[i] = r
	}
	return rows
}
