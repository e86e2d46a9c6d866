package core

import (
	"fmt"
	"math/rand/v2"
	"reflect"
	"testing"
)

func rowsByCategory(counts map[string]int) []Row {
	var rows []Row
	for cat, n := range counts {
		for i := 0; i < n; i++ {
			rows = append(rows, Row{"product_code": cat, "id": fmt.Sprintf("%s-%d", cat, i)})
		}
	}
	return rows
}

func seeded(seed uint64) func() float64 {
	return rand.New(rand.NewPCG(seed, seed)).Float64
}

func TestReduce_Coverage(t *testing.T) {
	counts := map[string]int{"SAV": 120, "CHK": 10, "TD": 11, "CD": 1}
	rows := rowsByCategory(counts)
	const limit = 10

	for seed := uint64(1); seed <= 20; seed++ {
		result := Reduce(rows, "product_code", limit, seeded(seed))

		got := make(map[string]int)
		ids := make(map[string]bool)
		for _, r := range result.Rows {
			got[r["product_code"].(string)]++
			id := r["id"].(string)
			if ids[id] {
				t.Fatalf("seed %d: row %s sampled twice", seed, id)
			}
			ids[id] = true
		}

		for cat, n := range counts {
			want := min(n, limit)
			if got[cat] != want {
				t.Errorf("seed %d: category %s kept %d rows, want %d", seed, cat, got[cat], want)
			}
		}
	}
}

func TestReduce_Stats(t *testing.T) {
	rows := rowsByCategory(map[string]int{"SAV": 30, "CHK": 5})
	rows = append(rows, Row{"product_code": nil}, Row{"product_code": "  "})

	result := Reduce(rows, "product_code", 10, seeded(7))

	want := ReductionStats{
		OriginalCount:     37,
		ReducedCount:      17,
		CategoryCount:     3,
		ReductionPercent:  54.05,
		ReducedCategories: []string{"SAV"},
	}
	if !reflect.DeepEqual(result.Stats, want) {
		t.Errorf("stats = %+v, want %+v", result.Stats, want)
	}
}

func TestReduce_ReducedCategoriesInFirstAppearanceOrder(t *testing.T) {
	var rows []Row
	for _, cat := range []string{"TD", "CHK", "SAV", "CD"} {
		n := 4
		if cat == "CHK" {
			n = 1
		}
		for i := 0; i < n; i++ {
			rows = append(rows, Row{"product_code": cat})
		}
	}
	rows = append(rows, Row{"product_code": ""}, Row{"product_code": nil}, Row{"product_code": "  "})

	result := Reduce(rows, "product_code", 2, seeded(11))

	want := []string{"TD", "SAV", "CD", UnknownCategory}
	if !reflect.DeepEqual(result.Stats.ReducedCategories, want) {
		t.Errorf("reduced categories = %v, want %v", result.Stats.ReducedCategories, want)
	}
}

func TestReduce_UnknownBucket(t *testing.T) {
	rows := []Row{
		{"product_code": nil},
		{"product_code": ""},
		{},
		{"product_code": "SAV"},
	}

	result := Reduce(rows, "product_code", 1, seeded(3))

	if result.Stats.CategoryCount != 2 {
		t.Errorf("category count = %d, want 2 (UNKNOWN + SAV)", result.Stats.CategoryCount)
	}
	if len(result.Rows) != 2 {
		t.Errorf("kept %d rows, want 2", len(result.Rows))
	}
}

func TestReduce_NoCap(t *testing.T) {
	rows := rowsByCategory(map[string]int{"SAV": 5})

	result := Reduce(rows, "product_code", 0, nil)
	if len(result.Rows) != 5 || len(result.Stats.ReducedCategories) != 0 || result.Stats.ReductionPercent != 0 {
		t.Errorf("non-positive cap must keep everything: %+v", result.Stats)
	}
}

func TestReduce_GroupsByFirstAppearance(t *testing.T) {
	rows := []Row{
		{"product_code": "B"}, {"product_code": "A"}, {"product_code": "B"}, {"product_code": "C"},
	}

	result := Reduce(rows, "product_code", 5, nil)

	var order []string
	for _, r := range result.Rows {
		order = append(order, r["product_code"].(string))
	}
	if fmt.Sprint(order) != "[B B A C]" {
		t.Errorf("order = %v", order)
	}
}

func TestSampleWithoutReplacement_EdgeRandom(t *testing.T) {
	bucket := rowsByCategory(map[string]int{"X": 5})

	// A source returning values just below 1 must not index past the end.
	got := sampleWithoutReplacement(bucket, 3, func() float64 { return 0.9999999999 })
	if len(got) != 3 {
		t.Fatalf("got %d rows", len(got))
	}
	if len(bucket) != 5 || bucket[0]["id"] != "X-0" {
		t.Error("input bucket must not be modified")
	}
}
