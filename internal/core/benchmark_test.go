package core

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"
)

// ============================================================================
// Conversion Function Benchmarks
// ============================================================================

// BenchmarkNormalizeDecimal benchmarks numeric conversion, the hot path for
// balance and rate columns.
func BenchmarkNormalizeDecimal(b *testing.B) {
	testCases := []string{
		"123",
		"-456.78",
		"1000.50",
		"2.5E-2",
		"NOT_A_NUMBER",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			NormalizeDecimal(tc)
		}
	}
}

// BenchmarkNormalizeDate8 benchmarks YYYYMMDD to ISO rewriting.
func BenchmarkNormalizeDate8(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NormalizeDate8("20240115")
	}
}

// BenchmarkNormalizeDate10 benchmarks YYMMDDHHMM timestamps.
func BenchmarkNormalizeDate10(b *testing.B) {
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NormalizeDate10("2401151030")
	}
}

func BenchmarkNormalizeEnum(b *testing.B) {
	allowed := []string{"ACTIVE", "DORMANT", "CLOSED", "FROZEN"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NormalizeEnum(" closed ", allowed)
	}
}

// ============================================================================
// Parsing Benchmarks
// ============================================================================

// BenchmarkSanitizeUTF8_LargeDataset benchmarks the byte sanitizer over
// 1MB with one stray Latin-1 byte per line.
func BenchmarkSanitizeUTF8_LargeDataset(b *testing.B) {
	line := []byte("arr-001|10001|S\xe3o Paulo\n")
	data := bytes.Repeat(line, (1<<20)/len(line))

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf := append([]byte(nil), data...)
		sanitizeUTF8(buf, true)
	}
}

func BenchmarkParse(b *testing.B) {
	ds := arrangementsDataset()
	data := generateExtract(1000)

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Parse(data, ds)
	}
}

// BenchmarkParse_Large parses 50k rows, a typical daily arrangements extract.
func BenchmarkParse_Large(b *testing.B) {
	ds := arrangementsDataset()
	data := generateExtract(50000)

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Parse(data, ds)
	}
}

func BenchmarkValidateRow(b *testing.B) {
	ds := arrangementsDataset()
	row := map[string]string{
		"arrangement_id": "arr-001",
		"account_id":     "10001",
		"currency":       "USD",
		"product_code":   "SAV01",
		"opened_on":      "20240115",
		"status":         "active",
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ValidateRow(row, 2, ds)
	}
}

func BenchmarkValidateHeader(b *testing.B) {
	ds := ratesDataset()
	header := ds.ColumnNames()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ValidateHeader(header, ds, '|')
	}
}

// ============================================================================
// Planning and Sampling Benchmarks
// ============================================================================

func BenchmarkPlanBatch(b *testing.B) {
	for i := 0; i < b.N; i++ {
		PlanBatch(79, 500, 32766)
	}
}

func BenchmarkReduce(b *testing.B) {
	rows := make([]Row, 10000)
	for i := range rows {
		rows[i] = Row{"product_code": fmt.Sprintf("P%02d", i%40)}
	}
	rnd := rand.New(rand.NewPCG(1, 1)).Float64

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Reduce(rows, "product_code", 50, rnd)
	}
}

// ============================================================================
// Helpers
// ============================================================================

// generateExtract builds an arrangements extract where every tenth row has
// an invalid account id.
func generateExtract(rows int) []byte {
	var sb strings.Builder
	sb.WriteString("arrangement_id|account_id|currency|product_code|opened_on|status\n")
	for i := 0; i < rows; i++ {
		account := fmt.Sprintf("%d", 10000+i)
		if i%10 == 9 {
			account = "NOT_A_NUMBER"
		}
		fmt.Fprintf(&sb, "arr-%06d|%s|USD|P%02d|20240115|ACTIVE\n", i, account, i%40)
	}
	return []byte(sb.String())
}
