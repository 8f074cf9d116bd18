package source

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestReadCSV(t *testing.T) {
	in := "\xEF\xBB\xBF" +
		",,\n" +
		"source_mat_id, depth ,,replicate\n" +
		"EMOBON_VB_Wa_1,5,x,1\n" +
		",,,\n" +
		"EMOBON_VB_Wa_2,NA\n"

	tbl, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}

	if want := []string{"source_mat_id", "depth", "replicate"}; strings.Join(tbl.Header, ",") != strings.Join(want, ",") {
		t.Errorf("Header = %v, want %v", tbl.Header, want)
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}

	first := tbl.Records[0]
	if first["source_mat_id"] != "EMOBON_VB_Wa_1" || first["depth"] != "5" || first["replicate"] != "1" {
		t.Errorf("first record = %v", first)
	}
	if len(first) != 3 {
		t.Errorf("blank header column kept: %v", first)
	}

	second := tbl.Records[1]
	if second["depth"] != "NA" || second["replicate"] != "" {
		t.Errorf("short row = %v", second)
	}
	if tbl.Line(0) != 3 || tbl.Line(1) != 5 {
		t.Errorf("Lines = %v, want [3 5]", tbl.Lines)
	}
}

func TestReadCSV_BlankLinesKeepLineNumbers(t *testing.T) {
	in := "\n" +
		"obs_id,notes\n" +
		"\n" +
		"VB,\"two\nlines\"\n" +
		"\n" +
		"\n" +
		"RFormosa,\n"

	tbl, err := ReadCSV(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadCSV() error = %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}
	if tbl.Line(0) != 4 || tbl.Line(1) != 8 {
		t.Errorf("Lines = %v, want [4 8]", tbl.Lines)
	}
	if tbl.Records[0]["notes"] != "two\nlines" {
		t.Errorf("notes = %q", tbl.Records[0]["notes"])
	}
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrEmptyFile},
		{"blank rows only", ",,\n\n", ErrEmptyFile},
		{"duplicate column", "depth,depth\n1,2\n", ErrInvalidCSV},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func workbook(t *testing.T, sheets map[string][][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	first := true
	for name, rows := range sheets {
		if first {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				t.Fatal(err)
			}
			first = false
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatal(err)
		}
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			if err != nil {
				t.Fatal(err)
			}
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatal(err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestReadXLSX(t *testing.T) {
	data := workbook(t, map[string][][]any{
		"measured": {
			{"source_material_id", "ph", "conduc"},
			{"EMOBON_VB_Wa_1", "8,1", "36,356.62"},
			{"EMOBON_VB_Wa_2", 8.2, nil},
		},
	})

	tbl, err := ReadXLSX(bytes.NewReader(data), "")
	if err != nil {
		t.Fatalf("ReadXLSX() error = %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}
	if got := tbl.Records[0]["conduc"]; got != "36,356.62" {
		t.Errorf("conduc = %#v", got)
	}
	if got := tbl.Records[1]["ph"]; got != "8.2" {
		t.Errorf("ph = %#v", got)
	}
	if got := tbl.Records[1]["conduc"]; got != "" {
		t.Errorf("empty cell = %#v", got)
	}

	if _, err := ReadXLSX(bytes.NewReader(data), "sampling"); !errors.Is(err, ErrSheetNotFound) {
		t.Errorf("missing sheet: err = %v", err)
	}
	if _, err := ReadXLSX(strings.NewReader("not a zip"), ""); !errors.Is(err, ErrInvalidWorkbook) {
		t.Errorf("garbage: err = %v", err)
	}

	names, err := SheetNames(bytes.NewReader(data))
	if err != nil || len(names) != 1 || names[0] != "measured" {
		t.Errorf("SheetNames() = %v, %v", names, err)
	}
}

func TestDecodeRecords(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"array", `[{"tax_id": 408172, "depth": 5.0, "replicate": "1", "failure": null}]`},
		{"wrapped", `{"records": [{"tax_id": 408172, "depth": 5.0, "replicate": "1", "failure": null}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := DecodeRecords(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("DecodeRecords() error = %v", err)
			}
			if len(recs) != 1 {
				t.Fatalf("got %d records", len(recs))
			}
			r := recs[0]
			if r["tax_id"] != int64(408172) {
				t.Errorf("tax_id = %#v (%T)", r["tax_id"], r["tax_id"])
			}
			if r["depth"] != 5.0 {
				t.Errorf("depth = %#v (%T)", r["depth"], r["depth"])
			}
			if v, ok := r["failure"]; !ok || v != nil {
				t.Errorf("failure = %#v, %v", v, ok)
			}
		})
	}

	if _, err := DecodeRecords(strings.NewReader("  ")); !errors.Is(err, ErrEmptyFile) {
		t.Errorf("empty: err = %v", err)
	}
	if _, err := DecodeRecords(strings.NewReader("[{")); err == nil || !strings.Contains(err.Error(), "invalid request") {
		t.Errorf("malformed: err = %v", err)
	}
}

func TestDecodeRequest_Variant(t *testing.T) {
	req, err := DecodeRequest(strings.NewReader(`{"variant": "github", "records": [{"replicate": 2}, {}]}`))
	if err != nil {
		t.Fatalf("DecodeRequest() error = %v", err)
	}
	if req.Variant != "github" || len(req.Records) != 2 {
		t.Errorf("req = %+v", req)
	}
	if req.Records[0]["replicate"] != int64(2) {
		t.Errorf("replicate = %#v", req.Records[0]["replicate"])
	}

	req, err = DecodeRequest(strings.NewReader(`[]`))
	if err != nil || req.Variant != "" || len(req.Records) != 0 {
		t.Errorf("empty array: req = %+v, err = %v", req, err)
	}
}

func TestRead_DetectsFormat(t *testing.T) {
	tbl, err := Read("Sampling.CSV", strings.NewReader("a,b\n1,2\n"), Options{})
	if err != nil || tbl.Len() != 1 {
		t.Fatalf("Read(csv) = %v, %v", tbl, err)
	}

	tbl, err = Read("records.json", strings.NewReader(`[{"b": 1, "a": 2}]`), Options{})
	if err != nil || strings.Join(tbl.Header, ",") != "a,b" {
		t.Fatalf("Read(json) = %v, %v", tbl, err)
	}

	if _, err := Read("notes.docx", strings.NewReader(""), Options{}); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("docx: err = %v", err)
	}
}
