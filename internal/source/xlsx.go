package source

import (
	"fmt"
	"io"
	"slices"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads one sheet of a workbook. An empty sheet name selects the
// first sheet. Cells are read as displayed, so dates keep the format the
// sheet gives them.
func ReadXLSX(r io.Reader, sheet string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkbook, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if !slices.Contains(sheets, sheet) {
		return nil, fmt.Errorf("%w: %q (have %v)", ErrSheetNotFound, sheet, sheets)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("%w: read %q: %w", ErrInvalidWorkbook, sheet, err)
	}
	return fromRows(rows, nil)
}

// SheetNames lists the sheets of a workbook in order.
func SheetNames(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkbook, err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}
