package jobs

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/sheetnorm/internal/core"
	"github.com/JonMunkholm/sheetnorm/internal/source"
)

// Outcome is the result of running one task.
type Outcome struct {
	Task    Task
	Profile core.Profile
	Table   *source.Table
	Result  core.BatchResult
	Elapsed time.Duration
}

// Problem is one field problem of one rejected row, located by sheet line.
type Problem struct {
	Line int
	core.FieldError
}

// Problems flattens the outcome's failures in row order.
func (o *Outcome) Problems() []Problem {
	var out []Problem
	for _, row := range o.Result.Failures() {
		line := o.Table.Line(row.Index)
		for _, fe := range core.FieldErrors(row.Err) {
			out = append(out, Problem{Line: line, FieldError: fe})
		}
	}
	return out
}

// Run reads the task's sheet and validates every row against its profile.
// It does not write output; see WriteOutput.
func Run(ctx context.Context, t Task) (*Outcome, error) {
	p, err := core.LookupVariant(t.Profile.Domain, t.Profile.Tier, t.Profile.Variant)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(t.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", t.Path, err)
	}
	defer f.Close()

	tbl, err := source.Read(t.Path, f, source.Options{Sheet: t.Sheet})
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", t.Name(), err)
	}

	start := time.Now()
	res := core.ValidateBatch(ctx, p, tbl.Records, t.Workers)
	return &Outcome{
		Task:    t,
		Profile: p,
		Table:   tbl,
		Result:  res,
		Elapsed: time.Since(start),
	}, nil
}

// WriteOutput writes the valid records of o to its task's output file,
// creating directories as needed. It is a no-op without an output path.
func WriteOutput(o *Outcome) error {
	if o.Task.Output == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(o.Task.Output), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	f, err := os.Create(o.Task.Output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	if err := Write(f, o.Task.Format, o.Profile, o.Result.Records()); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Write renders records in the given format: CSV with a header row in
// profile order, or a JSON array of objects.
func Write(w io.Writer, format string, p core.Profile, records []core.ValidatedRecord) error {
	switch format {
	case FormatJSON:
		out := make([]map[string]any, len(records))
		for i, r := range records {
			out[i] = core.Serialize(p, r)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)

	case FormatCSV, "":
		cw := csv.NewWriter(w)
		if err := cw.Write(core.Header(p)); err != nil {
			return err
		}
		for _, r := range records {
			if err := cw.Write(core.SerializeRow(p, r)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	}
	return fmt.Errorf("unknown output format %q", format)
}
