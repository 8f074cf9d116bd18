package web

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/sheetnorm/internal/core"
)

// Report is the reply to a validation or upload request.
type Report struct {
	Profile   string      `json:"profile"`
	Source    string      `json:"source,omitempty"`
	RunID     string      `json:"run_id,omitempty"`
	Total     int         `json:"total"`
	Valid     int         `json:"valid"`
	Invalid   int         `json:"invalid"`
	Cancelled int         `json:"cancelled,omitempty"`
	ElapsedMS int64       `json:"elapsed_ms"`
	Rows      []RowReport `json:"rows"`
}

// RowReport is the outcome of one input row: the canonical record when it
// validated, otherwise its field problems.
type RowReport struct {
	Line   int               `json:"line"`
	Valid  bool              `json:"valid"`
	Record map[string]any    `json:"record,omitempty"`
	Errors []core.FieldError `json:"errors,omitempty"`
}

// buildReport lists every row in input order. line maps a row index to the
// line shown to users.
func buildReport(p core.Profile, res core.BatchResult, line func(int) int, elapsed time.Duration) *Report {
	rep := &Report{
		Profile:   p.Key.String(),
		Total:     len(res.Rows),
		Valid:     res.Valid,
		Invalid:   res.Invalid,
		Cancelled: res.Cancelled,
		ElapsedMS: elapsed.Milliseconds(),
		Rows:      make([]RowReport, len(res.Rows)),
	}
	for i, row := range res.Rows {
		rr := RowReport{Line: line(i), Valid: row.Valid()}
		if rr.Valid {
			rr.Record = core.Serialize(p, row.Record)
		} else {
			rr.Errors = core.FieldErrors(row.Err)
		}
		rep.Rows[i] = rr
	}
	return rep
}

// Problems returns the rows that failed.
func (r *Report) Problems() []RowReport {
	var out []RowReport
	for _, row := range r.Rows {
		if !row.Valid {
			out = append(out, row)
		}
	}
	return out
}

const pageStyle = `body{font-family:sans-serif;margin:2rem;color:#1f2937}
table{border-collapse:collapse;margin-top:1rem}
th,td{border:1px solid #d1d5db;padding:.3rem .6rem;text-align:left;font-size:.9rem}
th{background:#f3f4f6}
.ok{color:#047857}.bad{color:#b91c1c}.code{font-family:monospace}`

// reportPage renders the upload report as a standalone HTML page.
func reportPage(rep *Report) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.open("Validation report: " + rep.Source)

		hw.printf("<h1>%s</h1>", templ.EscapeString(rep.Source))
		hw.printf("<p>Profile <span class=\"code\">%s</span>", templ.EscapeString(rep.Profile))
		if rep.RunID != "" {
			hw.printf(", run <span class=\"code\">%s</span>", templ.EscapeString(rep.RunID))
		}
		hw.printf("</p>")
		hw.printf("<p><span class=\"ok\">%d valid</span> / <span class=\"bad\">%d invalid</span> of %d rows",
			rep.Valid, rep.Invalid, rep.Total)
		if rep.Cancelled > 0 {
			hw.printf(", %d not checked", rep.Cancelled)
		}
		hw.printf(" (%d ms)</p>", rep.ElapsedMS)

		problems := rep.Problems()
		if len(problems) == 0 {
			hw.printf("<p class=\"ok\">Every row is valid.</p>")
		} else {
			hw.printf("<table><thead><tr><th>Line</th><th>Field</th><th>Value</th><th>Problem</th><th>Code</th></tr></thead><tbody>")
			for _, row := range problems {
				for _, fe := range row.Errors {
					hw.printf("<tr><td>%d</td><td>%s</td><td>%s</td><td>%s</td><td class=\"code\">%s</td></tr>",
						row.Line,
						templ.EscapeString(fe.Field),
						templ.EscapeString(core.Cell(fe.Value)),
						templ.EscapeString(fe.Reason),
						templ.EscapeString(fe.Code))
				}
			}
			hw.printf("</tbody></table>")
		}

		hw.close()
		return hw.err
	})
}

// errorPage renders a user message as a standalone HTML page.
func errorPage(msg core.UserMessage) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		hw := &htmlWriter{w: w}
		hw.open("Error " + msg.Code)
		hw.printf("<h1 class=\"bad\">%s</h1>", templ.EscapeString(msg.Message))
		if msg.Action != "" {
			hw.printf("<p>%s</p>", templ.EscapeString(msg.Action))
		}
		hw.printf("<p class=\"code\">Code: %s</p>", templ.EscapeString(msg.Code))
		hw.close()
		return hw.err
	})
}

// htmlWriter keeps the first write error so components can write freely.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) printf(format string, args ...any) {
	if h.err != nil {
		return
	}
	_, h.err = fmt.Fprintf(h.w, format, args...)
}

func (h *htmlWriter) open(title string) {
	h.printf("<!DOCTYPE html><html lang=\"en\"><head><meta charset=\"utf-8\"><title>%s</title><style>%s</style></head><body>",
		templ.EscapeString(title), pageStyle)
}

func (h *htmlWriter) close() {
	h.printf("</body></html>")
}

// lineOf adapts a sheet's line lookup, defaulting to index+1.
func lineOf(lines []int) func(int) int {
	return func(i int) int {
		if i < len(lines) {
			return lines[i]
		}
		return i + 1
	}
}
