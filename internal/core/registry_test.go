package core

import (
	"strings"
	"testing"
)

func withCleanRegistry(t *testing.T) {
	t.Helper()
	registryMu.Lock()
	saved := registry
	registry = make(map[string]*Dataset)
	registryMu.Unlock()

	t.Cleanup(func() {
		registryMu.Lock()
		registry = saved
		registryMu.Unlock()
	})
}

func TestRegistry(t *testing.T) {
	withCleanRegistry(t)

	Register(*ratesDataset())
	Register(*arrangementsDataset())

	if DatasetCount() != 2 {
		t.Fatalf("DatasetCount() = %d, want 2", DatasetCount())
	}

	ds, ok := Get("currency_rates")
	if !ok || ds.Table != "currency_rates" {
		t.Fatalf("Get(currency_rates) = %v, %v", ds, ok)
	}
	if _, ok := Get("loans"); ok {
		t.Error("Get(loans) should not be found")
	}

	all := All()
	if all[0].Key != "arrangements" || all[1].Key != "currency_rates" {
		t.Errorf("All() order = %s, %s; want Deposits group first", all[0].Key, all[1].Key)
	}
	if groups := Groups(); strings.Join(groups, ",") != "Deposits,Reference" {
		t.Errorf("Groups() = %v", groups)
	}
	if got := ByGroup("Reference"); len(got) != 1 || got[0].Key != "currency_rates" {
		t.Errorf("ByGroup(Reference) = %v", got)
	}

	Clear()
	if DatasetCount() != 0 {
		t.Error("Clear() should empty the registry")
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	withCleanRegistry(t)
	Register(*ratesDataset())

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on duplicate key")
		}
	}()
	Register(*ratesDataset())
}

func TestCheckDataset(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(ds *Dataset)
		wantErr string
	}{
		{"valid", func(*Dataset) {}, ""},
		{"missing table", func(ds *Dataset) { ds.Table = "" }, "key and table are required"},
		{"no columns", func(ds *Dataset) { ds.Columns = nil }, "no columns"},
		{"no delimiter", func(ds *Dataset) { ds.Delimiter = 0 }, "no delimiter"},
		{"newline delimiter", func(ds *Dataset) { ds.Delimiter = '\n' }, "cannot be used"},
		{"delimiter equals quote", func(ds *Dataset) { ds.Delimiter = '"'; ds.Quote = '"' }, "cannot be used"},
		{"unsupported quote", func(ds *Dataset) { ds.Quote = '\'' }, "not supported"},
		{"duplicate column", func(ds *Dataset) { ds.Columns = append(ds.Columns, ds.Columns[0]) }, "duplicate column"},
		{"enum without values", func(ds *Dataset) { ds.Columns[0] = Column{Name: "currency_code", Kind: KindEnum} }, "no allowed values"},
		{"unknown category column", func(ds *Dataset) { ds.CategoryColumn = "nope" }, "category column"},
		{"unknown key column", func(ds *Dataset) { ds.KeyColumn = "nope" }, "key column"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := ratesDataset()
			tt.mutate(ds)

			err := checkDataset(ds)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
