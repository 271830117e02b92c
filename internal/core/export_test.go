package core

import (
	"bytes"
	"errors"
	"strconv"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
)

var exportRecords = []EmailRecord{
	{Email: "a@x.com", IsValid: true, OriginalRow: 2},
	{Email: "b@x.com", IsValid: true},
}

func TestExportCSV(t *testing.T) {
	got, err := ExportCSV(exportRecords)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "Email,Original row\r\na@x.com,2\r\nb@x.com,\r\n"
	if string(got) != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExportXLSX(t *testing.T) {
	data, err := ExportXLSX(exportRecords)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != ExportSheetName {
		t.Fatalf("sheets = %v, want [%s]", sheets, ExportSheetName)
	}

	rows, err := f.GetRows(ExportSheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	if rows[0][0] != "Email" || rows[0][1] != "Original row" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "a@x.com" || rows[1][1] != "2" {
		t.Errorf("row 2 = %v", rows[1])
	}
	if rows[2][0] != "b@x.com" || (len(rows[2]) > 1 && rows[2][1] != "") {
		t.Errorf("row 3 = %v, want blank original row", rows[2])
	}
}

func TestExport_RoundTripsThroughParse(t *testing.T) {
	type pair struct {
		Email       string
		OriginalRow int
	}
	records := []EmailRecord{
		{Email: "c@x.com", IsValid: true, OriginalRow: 7},
		{Email: "a@x.com", IsValid: true},
		{Email: "b@x.com", IsValid: true, OriginalRow: 3},
	}
	want := make([]pair, len(records))
	for i, rec := range records {
		want[i] = pair{rec.Email, rec.OriginalRow}
	}

	tests := []struct {
		name   string
		format ExportFormat
	}{
		{"csv", FormatCSV},
		{"xlsx", FormatXLSX},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Export(tt.format, records)
			if err != nil {
				t.Fatalf("Export: %v", err)
			}

			table, err := ParseFile("export."+string(tt.format), bytes.NewReader(data), 0)
			if err != nil {
				t.Fatalf("ParseFile: %v", err)
			}
			if col, err := FindEmailColumn(table[0]); err != nil || col != 0 {
				t.Fatalf("FindEmailColumn = %d, %v; want 0", col, err)
			}

			var got []pair
			for _, row := range table[1:] {
				p := pair{Email: row[0].String()}
				if len(row) > 1 && row[1].String() != "" {
					n, err := strconv.Atoi(row[1].String())
					if err != nil {
						t.Fatalf("original row %q: %v", row[1].String(), err)
					}
					p.OriginalRow = n
				}
				got = append(got, p)
			}

			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExport_Empty(t *testing.T) {
	for _, format := range []ExportFormat{FormatCSV, FormatXLSX} {
		if _, err := Export(format, nil); !errors.Is(err, ErrNothingToExport) {
			t.Errorf("Export(%s, nil) = %v, want ErrNothingToExport", format, err)
		}
	}
}

func TestParseExportFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    ExportFormat
		wantErr bool
	}{
		{"xlsx", FormatXLSX, false},
		{" CSV ", FormatCSV, false},
		{"pdf", "", true},
	}
	for _, tt := range tests {
		got, err := ParseExportFormat(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseExportFormat(%q) = %q, %v", tt.in, got, err)
		}
	}

	if FormatXLSX.ContentType() != XLSXContentType || FormatCSV.ContentType() != CSVContentType {
		t.Error("unexpected content types")
	}
}
