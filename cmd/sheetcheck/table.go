package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/JonMunkholm/sheetnorm/internal/core"
	"github.com/JonMunkholm/sheetnorm/internal/jobs"
)

// maxCellWidth caps a column so one long value does not stretch the table.
const maxCellWidth = 48

// writeTable writes rows as space-aligned columns under a header and a
// dashed rule. Widths are display widths, so "°C" and CJK cells line up.
func writeTable(w io.Writer, header []string, rows [][]string) error {
	widths := make([]int, len(header))
	measure := func(row []string) {
		for i := 0; i < len(row) && i < len(widths); i++ {
			widths[i] = max(widths[i], min(runewidth.StringWidth(row[i]), maxCellWidth))
		}
	}
	measure(header)
	for _, row := range rows {
		measure(row)
	}

	rule := make([]string, len(header))
	for i, n := range widths {
		rule[i] = strings.Repeat("-", n)
	}

	for _, row := range append([][]string{header, rule}, rows...) {
		var sb strings.Builder
		for i, n := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if runewidth.StringWidth(cell) > n {
				cell = runewidth.Truncate(cell, n, "…")
			}
			if i == len(widths)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, n))
			sb.WriteString("  ")
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(sb.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}

// problemRows turns field problems into table rows.
func problemRows(problems []jobs.Problem) [][]string {
	rows := make([][]string, len(problems))
	for i, p := range problems {
		rows[i] = []string{
			strconv.Itoa(p.Line),
			p.Field,
			core.Cell(p.Value),
			p.Code,
			p.Reason,
		}
	}
	return rows
}

var problemHeader = []string{"LINE", "FIELD", "VALUE", "CODE", "REASON"}
