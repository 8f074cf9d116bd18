package core

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// RowResult is the outcome for one record of a batch.
type RowResult struct {
	Index  int             // Caller's index into the input slice
	Record ValidatedRecord // Set when Err is nil
	Err    error           // *RecordError, or a context error if never validated
}

// Valid reports whether the row produced a record.
func (r RowResult) Valid() bool { return r.Err == nil }

// BatchResult holds per-row outcomes in input order.
type BatchResult struct {
	Profile   ProfileKey
	Rows      []RowResult
	Valid     int
	Invalid   int
	Cancelled int
}

// Records returns the valid records in input order.
func (b BatchResult) Records() []ValidatedRecord {
	out := make([]ValidatedRecord, 0, b.Valid)
	for _, r := range b.Rows {
		if r.Err == nil {
			out = append(out, r.Record)
		}
	}
	return out
}

// Failures returns the rows that did not validate, in input order.
func (b BatchResult) Failures() []RowResult {
	var out []RowResult
	for _, r := range b.Rows {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}

// ValidateBatch validates records in parallel with at most workers
// goroutines (GOMAXPROCS when workers <= 0). Results are stored by input
// index, so the outcome does not depend on scheduling. Once ctx is done no
// further rows are started; those rows carry the context error.
func ValidateBatch(ctx context.Context, p Profile, records []RawRecord, workers int) BatchResult {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	v := NewValidator(p)
	rows := make([]RowResult, len(records))
	done := make([]bool, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, raw := range records {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			rec, err := v.Validate(raw)
			rows[i] = RowResult{Index: i, Record: rec, Err: err}
			done[i] = true
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	res := BatchResult{Profile: p.Key, Rows: rows}
	for i := range rows {
		switch {
		case !done[i]:
			rows[i] = RowResult{Index: i, Err: fmt.Errorf("row %d not validated: %w", i, context.Cause(ctx))}
			res.Cancelled++
		case rows[i].Err != nil:
			res.Invalid++
		default:
			res.Valid++
		}
	}
	return res
}
