// Package source turns uploaded spreadsheets into raw records.
//
// CSV and XLSX sheets are read as a header row followed by data rows; every
// cell is kept as the string the sheet shows, and typing is left to the
// validation pipeline. JSON bodies carry records directly.
package source

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/sheetnorm/internal/core"
)

// Errors returned by the readers. Their texts match the user message
// patterns in core.MapError.
var (
	ErrUnsupportedFormat = errors.New("unsupported file type")
	ErrSheetNotFound     = errors.New("sheet not found")
	ErrInvalidWorkbook   = errors.New("invalid workbook")
	ErrEmptyFile         = errors.New("empty file")
	ErrInvalidCSV        = errors.New("invalid csv")
)

// Format is an input file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatJSON Format = "json"
)

// DetectFormat picks a format from a file name's extension.
func DetectFormat(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// Options tune how a file is read.
type Options struct {
	// Sheet selects a workbook sheet; empty means the first one.
	Sheet string
}

// Table is a sheet read into raw records.
type Table struct {
	Header  []string
	Records []core.RawRecord

	// Lines holds the 1-based sheet row of each record, for reporting.
	Lines []int
}

// Len returns the number of records.
func (t *Table) Len() int { return len(t.Records) }

// Line returns the sheet row of record i, or i+1 when unknown.
func (t *Table) Line(i int) int {
	if i < len(t.Lines) {
		return t.Lines[i]
	}
	return i + 1
}

// Read reads name's contents from r in the format its extension names.
func Read(name string, r io.Reader, opts Options) (*Table, error) {
	format, err := DetectFormat(name)
	if err != nil {
		return nil, err
	}
	return ReadFormat(format, r, opts)
}

// ReadFormat reads r as the given format.
func ReadFormat(format Format, r io.Reader, opts Options) (*Table, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(r)
	case FormatXLSX:
		return ReadXLSX(r, opts.Sheet)
	case FormatJSON:
		recs, err := DecodeRecords(r)
		if err != nil {
			return nil, err
		}
		return &Table{Header: jsonHeader(recs), Records: recs}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// fromRows builds a table from sheet rows. The first non-empty row is the
// header; columns with a blank header are dropped, as are empty rows.
// Short rows leave their trailing fields empty. lines gives the sheet line
// of each row; nil means rows are consecutive from line 1.
func fromRows(rows [][]string, lines []int) (*Table, error) {
	start := -1
	for i, row := range rows {
		if !isEmptyRow(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrEmptyFile
	}

	header := make([]string, len(rows[start]))
	seen := make(map[string]bool, len(header))
	for i, cell := range rows[start] {
		name := CleanCell(cell)
		if name == "" {
			continue
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidCSV, name)
		}
		seen[name] = true
		header[i] = name
	}

	t := &Table{}
	for _, h := range header {
		if h != "" {
			t.Header = append(t.Header, h)
		}
	}

	for i := start + 1; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}
		rec := make(core.RawRecord, len(t.Header))
		for j, name := range header {
			if name == "" {
				continue
			}
			if j < len(row) {
				rec[name] = row[j]
			} else {
				rec[name] = ""
			}
		}
		t.Records = append(t.Records, rec)
		if lines != nil {
			t.Lines = append(t.Lines, lines[i])
		} else {
			t.Lines = append(t.Lines, i+1)
		}
	}
	return t, nil
}
