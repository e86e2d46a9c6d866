package core

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[string]*Dataset)
	registryMu sync.RWMutex
)

// Register adds a dataset to the registry.
// Panics if the key is already registered or the definition is unusable.
func Register(ds Dataset) {
	if err := checkDataset(&ds); err != nil {
		panic(fmt.Sprintf("invalid dataset %s: %v", ds.Key, err))
	}

	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[ds.Key]; exists {
		panic(fmt.Sprintf("dataset already registered: %s", ds.Key))
	}

	registry[ds.Key] = &ds
}

// checkDataset rejects definitions the reader or loader cannot honour.
func checkDataset(ds *Dataset) error {
	if ds.Key == "" || ds.Table == "" {
		return fmt.Errorf("key and table are required")
	}
	if len(ds.Columns) == 0 {
		return fmt.Errorf("no columns")
	}
	if ds.Delimiter == 0 && len(ds.Delimiters) == 0 {
		return fmt.Errorf("no delimiter")
	}
	for _, d := range ds.CandidateDelimiters() {
		if d == '\r' || d == '\n' || d == ds.Quote {
			return fmt.Errorf("delimiter %q cannot be used", d)
		}
	}
	if ds.Quote != 0 && ds.Quote != '"' {
		return fmt.Errorf("quote character %q is not supported", ds.Quote)
	}

	seen := make(map[string]bool, len(ds.Columns))
	for _, c := range ds.Columns {
		if seen[c.Name] {
			return fmt.Errorf("duplicate column %s", c.Name)
		}
		seen[c.Name] = true
		if c.Kind == KindEnum && len(c.Allowed) == 0 {
			return fmt.Errorf("enum column %s has no allowed values", c.Name)
		}
	}
	if ds.CategoryColumn != "" && !seen[ds.CategoryColumn] {
		return fmt.Errorf("category column %s is not a column", ds.CategoryColumn)
	}
	if ds.KeyColumn != "" && !seen[ds.KeyColumn] {
		return fmt.Errorf("key column %s is not a column", ds.KeyColumn)
	}
	return nil
}

// Get returns a dataset by key.
// Returns false if not found.
func Get(key string) (*Dataset, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	ds, ok := registry[key]
	return ds, ok
}

// All returns all registered datasets.
// Sorted by group then by key for consistent ordering.
func All() []*Dataset {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]*Dataset, 0, len(registry))
	for _, ds := range registry {
		result = append(result, ds)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Group != result[j].Group {
			return result[i].Group < result[j].Group
		}
		return result[i].Key < result[j].Key
	})

	return result
}

// ByGroup returns all datasets for a specific group, sorted by key.
func ByGroup(group string) []*Dataset {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var result []*Dataset
	for _, ds := range registry {
		if ds.Group == group {
			result = append(result, ds)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// Groups returns all unique group names, sorted alphabetically.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, ds := range registry {
		seen[ds.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// DatasetCount returns the number of registered datasets.
func DatasetCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered datasets.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]*Dataset)
}
