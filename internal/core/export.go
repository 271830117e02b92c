package core

// export.go serializes a record list into a downloadable file.
//
// Both formats carry the same two columns, in list order:
//
//	Email | Original row
//
// The original row is left blank for records that have none.

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Content types for the export formats.
const (
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	CSVContentType  = "text/csv;charset=utf-8"
)

// ExportFormat names an export serializer.
type ExportFormat string

const (
	FormatXLSX ExportFormat = "xlsx"
	FormatCSV  ExportFormat = "csv"
)

// ExportSheetName is the name of the single sheet in XLSX exports.
const ExportSheetName = "Emails"

// exportHeader is the header row of both export formats.
var exportHeader = []string{"Email", "Original row"}

// ParseExportFormat resolves a user-supplied format name.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch ExportFormat(strings.ToLower(strings.TrimSpace(s))) {
	case FormatXLSX:
		return FormatXLSX, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: export format %q", ErrUnsupportedFormat, s)
	}
}

// ContentType returns the MIME type of the format.
func (f ExportFormat) ContentType() string {
	if f == FormatXLSX {
		return XLSXContentType
	}
	return CSVContentType
}

// Export serializes records with the given format.
func Export(format ExportFormat, records []EmailRecord) ([]byte, error) {
	switch format {
	case FormatXLSX:
		return ExportXLSX(records)
	case FormatCSV:
		return ExportCSV(records)
	default:
		return nil, fmt.Errorf("%w: export format %q", ErrUnsupportedFormat, format)
	}
}

// ExportXLSX writes records to a one-sheet workbook.
func ExportXLSX(records []EmailRecord) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ExportSheetName); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(exportHeader))
	for i, h := range exportHeader {
		header[i] = h
	}
	if err := f.SetSheetRow(ExportSheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, rec := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}

		var row any
		if rec.OriginalRow > 0 {
			row = rec.OriginalRow
		}
		if err := f.SetSheetRow(ExportSheetName, cell, &[]any{rec.Email, row}); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportCSV writes records as comma-separated text with CRLF line endings.
func ExportCSV(records []EmailRecord) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNothingToExport
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	if err := w.Write(exportHeader); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	for _, rec := range records {
		var row string
		if rec.OriginalRow > 0 {
			row = strconv.Itoa(rec.OriginalRow)
		}
		if err := w.Write([]string{rec.Email, row}); err != nil {
			return nil, fmt.Errorf("write record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
