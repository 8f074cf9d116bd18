package source

import (
	"encoding/csv"
	"fmt"
	"io"
)

// ReadCSV reads a comma-separated sheet. Rows may be ragged and quotes
// may be sloppy, as spreadsheet exports often are.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(NewCleanReader(r))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	// encoding/csv skips blank lines, so keep each record's own line.
	var rows [][]string
	var lines []int
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCSV, err)
		}
		line, _ := cr.FieldPos(0)
		rows = append(rows, row)
		lines = append(lines, line)
	}
	return fromRows(rows, lines)
}
