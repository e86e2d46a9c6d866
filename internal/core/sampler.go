package core

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
)

// UnknownCategory is the bucket for rows with a blank category value.
const UnknownCategory = "UNKNOWN"

// ReductionStats summarizes one Reduce call.
type ReductionStats struct {
	OriginalCount    int     `json:"original_count"`
	ReducedCount     int     `json:"reduced_count"`
	CategoryCount    int     `json:"category_count"`
	ReductionPercent float64 `json:"reduction_percent"`

	// ReducedCategories names the categories that were sampled down, in
	// order of first appearance.
	ReducedCategories []string `json:"reduced_categories"`
}

// ReduceResult holds the kept rows and their stats.
type ReduceResult struct {
	Rows  []Row
	Stats ReductionStats
}

// Reduce caps every category of categoryColumn at maxPerCategory rows.
// Categories at or under the cap keep all rows; larger ones are sampled
// uniformly without replacement. Every category stays represented. Output
// is grouped by category in order of first appearance.
//
// rnd returns values in [0, 1); nil uses the global math/rand/v2 source.
// A non-positive cap returns the input unchanged.
func Reduce(rows []Row, categoryColumn string, maxPerCategory int, rnd func() float64) ReduceResult {
	if rnd == nil {
		rnd = rand.Float64
	}

	var order []string
	buckets := make(map[string][]Row)
	for _, row := range rows {
		cat := categoryOf(row[categoryColumn])
		if _, ok := buckets[cat]; !ok {
			order = append(order, cat)
		}
		buckets[cat] = append(buckets[cat], row)
	}

	stats := ReductionStats{
		OriginalCount:     len(rows),
		CategoryCount:     len(order),
		ReducedCategories: []string{},
	}

	if maxPerCategory <= 0 {
		stats.ReducedCount = len(rows)
		return ReduceResult{Rows: rows, Stats: stats}
	}

	kept := make([]Row, 0, min(len(rows), len(order)*maxPerCategory))
	for _, cat := range order {
		bucket := buckets[cat]
		if len(bucket) <= maxPerCategory {
			kept = append(kept, bucket...)
			continue
		}
		stats.ReducedCategories = append(stats.ReducedCategories, cat)
		kept = append(kept, sampleWithoutReplacement(bucket, maxPerCategory, rnd)...)
	}

	stats.ReducedCount = len(kept)
	if stats.OriginalCount > 0 {
		pct := float64(stats.OriginalCount-stats.ReducedCount) / float64(stats.OriginalCount) * 100
		stats.ReductionPercent = math.Round(pct*100) / 100
	}

	return ReduceResult{Rows: kept, Stats: stats}
}

// sampleWithoutReplacement runs a partial Fisher-Yates shuffle on a copy of
// bucket and returns its first k elements.
func sampleWithoutReplacement(bucket []Row, k int, rnd func() float64) []Row {
	pool := make([]Row, len(bucket))
	copy(pool, bucket)

	n := len(pool)
	for i := 0; i < k; i++ {
		j := i + int(rnd()*float64(n-i))
		if j >= n {
			j = n - 1
		}
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

func categoryOf(v any) string {
	switch c := v.(type) {
	case nil:
		return UnknownCategory
	case string:
		if strings.TrimSpace(c) == "" {
			return UnknownCategory
		}
		return c
	case float64:
		return strconv.FormatFloat(c, 'f', -1, 64)
	default:
		return fmt.Sprint(c)
	}
}
