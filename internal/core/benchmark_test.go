package core

import (
	"context"
	"fmt"
	"testing"
)

// ============================================================================
// Coercer Benchmarks
// ============================================================================

// BenchmarkToLocaleDecimal benchmarks the thousands-separator parser.
// This is a hot path for conductivity columns.
func BenchmarkToLocaleDecimal(b *testing.B) {
	testCases := []any{
		"36,356.62",
		"16,7041",
		"42",
		"could not retrieve CTD",
		12.5,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			_, _ = ToLocaleDecimal(tc)
		}
	}
}

// BenchmarkToDate benchmarks both date layouts and the placeholder path.
func BenchmarkToDate(b *testing.B) {
	testCases := []any{"2023-10-23", "23/10/2023", "expected 06-2024"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			_, _ = ToDate(tc)
		}
	}
}

// ============================================================================
// Pipeline Benchmarks
// ============================================================================

func benchRecord(i int) RawRecord {
	return RawRecord{
		"sample_id": fmt.Sprintf("S%d", i),
		"collected": "23/10/2023",
		"replicate": 2.0,
		"low":       "0.22",
		"up":        3,
		"failure":   "N",
		"depth":     "NA",
		"note":      "ok",
	}
}

// BenchmarkValidate benchmarks a single record through the full pipeline.
func BenchmarkValidate(b *testing.B) {
	v := NewValidator(testProfile())
	rec := benchRecord(1)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = v.Validate(rec)
	}
}

// BenchmarkValidateBatch benchmarks parallel validation of 1000 records.
func BenchmarkValidateBatch(b *testing.B) {
	records := make([]RawRecord, 1000)
	for i := range records {
		records[i] = benchRecord(i)
	}
	p := testProfile()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ValidateBatch(context.Background(), p, records, 0)
	}
}
