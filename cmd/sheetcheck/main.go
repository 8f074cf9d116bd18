// Command sheetcheck validates observatory spreadsheets against a schema
// profile, prints every problem as an aligned table and optionally writes
// the normalized rows as CSV or JSON.
//
// Usage:
//
//	sheetcheck -domain sampling -tier strict VB_water_column.xlsx
//	sheetcheck -domain measured -out measured.norm.csv VB_measured.csv
//	sheetcheck -job nightly.yaml
//
// The exit status is 0 when every row is valid, 1 when some row is not and
// 2 on usage or input errors.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/JonMunkholm/sheetnorm/internal/core"
	_ "github.com/JonMunkholm/sheetnorm/internal/core/profiles" // Register all profiles
	"github.com/JonMunkholm/sheetnorm/internal/jobs"
	"github.com/JonMunkholm/sheetnorm/internal/logging"
)

const (
	exitOK      = 0
	exitInvalid = 1
	exitError   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type options struct {
	domain    string
	tier      string
	variant   string
	sheet     string
	out       string
	format    string
	job       string
	workers   int
	quiet     bool
	logLevel  string
	logFormat string
}

func parseFlags(args []string, stderr io.Writer) (*options, []string, error) {
	fs := flag.NewFlagSet("sheetcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var o options
	fs.StringVar(&o.domain, "domain", "", "sheet type: "+domainList())
	fs.StringVar(&o.tier, "tier", string(core.TierLenient), "strictness: lenient, semi-strict or strict")
	fs.StringVar(&o.variant, "variant", "", "source variant (e.g. github)")
	fs.StringVar(&o.sheet, "sheet", "", "workbook sheet (default: first sheet)")
	fs.StringVar(&o.out, "out", "", "write normalized rows to this file")
	fs.StringVar(&o.format, "format", "", "output format: csv or json (default: from -out extension)")
	fs.StringVar(&o.job, "job", "", "YAML job file listing sheets to check")
	fs.IntVar(&o.workers, "workers", 0, "parallel validators (default: GOMAXPROCS)")
	fs.BoolVar(&o.quiet, "q", false, "print only the summary line per sheet")
	fs.StringVar(&o.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	fs.StringVar(&o.logFormat, "log-format", "text", "log format: text or json")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: sheetcheck [flags] FILE\n       sheetcheck -job JOB.yaml")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return &o, fs.Args(), nil
}

func domainList() string {
	ds := core.Domains()
	names := make([]string, len(ds))
	for i, d := range ds {
		names[i] = string(d)
	}
	return strings.Join(names, ", ")
}

// run is main without the process exit, for tests.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	o, rest, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitError
	}
	logger := logging.New(stderr, o.logLevel, o.logFormat)

	tasks, err := buildTasks(o, rest)
	if err != nil {
		fmt.Fprintf(stderr, "sheetcheck: %v\n", err)
		return exitError
	}

	code := exitOK
	for i, t := range tasks {
		if i > 0 {
			fmt.Fprintln(stdout)
		}
		outcome, err := jobs.Run(ctx, t)
		if err != nil {
			fmt.Fprintf(stderr, "sheetcheck: %s: %s\n", t.Name(), core.FormatUserError(err))
			logger.Debug("task failed", "task", t.Name(), "error", err)
			code = exitError
			continue
		}
		logging.BatchSummary(logger.With("task", t.Name()), outcome.Profile.Key.String(),
			len(outcome.Result.Rows), outcome.Result.Valid, outcome.Result.Invalid+outcome.Result.Cancelled, outcome.Elapsed)

		if err := report(stdout, outcome, o.quiet); err != nil {
			fmt.Fprintf(stderr, "sheetcheck: %v\n", err)
			return exitError
		}
		if err := jobs.WriteOutput(outcome); err != nil {
			fmt.Fprintf(stderr, "sheetcheck: %s: %v\n", t.Name(), err)
			code = exitError
			continue
		}
		if t.Output != "" {
			logger.Info("wrote normalized rows", "task", t.Name(), "path", t.Output, "rows", outcome.Result.Valid)
		}
		if outcome.Result.Valid != len(outcome.Result.Rows) && code == exitOK {
			code = exitInvalid
		}
	}
	return code
}

// buildTasks reads the job file, or describes the single sheet named on
// the command line.
func buildTasks(o *options, args []string) ([]jobs.Task, error) {
	if o.job != "" {
		if len(args) > 0 {
			return nil, errors.New("-job and a FILE argument are mutually exclusive")
		}
		job, err := jobs.Load(o.job)
		if err != nil {
			return nil, err
		}
		tasks := job.Tasks()
		if o.workers > 0 {
			for i := range tasks {
				tasks[i].Workers = o.workers
			}
		}
		return tasks, nil
	}

	if len(args) != 1 {
		return nil, errors.New("expected exactly one FILE (or -job)")
	}
	if o.domain == "" {
		return nil, errors.New("-domain is required")
	}
	tier, ok := core.ParseTier(o.tier)
	if !ok {
		return nil, fmt.Errorf("unknown tier %q", o.tier)
	}

	format := o.format
	if format == "" && o.out != "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(o.out)), ".")
	}
	switch format {
	case "":
		format = jobs.FormatCSV
	case jobs.FormatCSV, jobs.FormatJSON:
	default:
		return nil, fmt.Errorf("format %q must be csv or json", format)
	}

	return []jobs.Task{{
		Path:    args[0],
		Sheet:   o.sheet,
		Profile: core.ProfileKey{Domain: core.Domain(o.domain), Tier: tier, Variant: core.Variant(o.variant)},
		Output:  o.out,
		Format:  format,
		Workers: o.workers,
	}}, nil
}

// report prints the summary line and, unless quiet, the problem table.
func report(w io.Writer, o *jobs.Outcome, quiet bool) error {
	res := o.Result
	_, err := fmt.Fprintf(w, "%s  %s  %d rows: %d valid, %d invalid",
		o.Task.Name(), o.Profile.Key, len(res.Rows), res.Valid, res.Invalid)
	if err != nil {
		return err
	}
	if res.Cancelled > 0 {
		fmt.Fprintf(w, ", %d not checked", res.Cancelled)
	}
	fmt.Fprintln(w)

	problems := o.Problems()
	if quiet || len(problems) == 0 {
		return nil
	}
	fmt.Fprintln(w)
	return writeTable(w, problemHeader, problemRows(problems))
}
