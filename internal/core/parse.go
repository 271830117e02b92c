package core

// parse.go turns an uploaded file into a Table.
//
// Supported inputs:
//   - .csv: comma-separated text. The reader strips a UTF-8 BOM, replaces
//     invalid UTF-8 and skips blank lines; rows may have varying widths.
//   - .xlsx: the first sheet of the workbook. Numeric cells become number
//     cells, booleans become other cells, everything else text.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// DefaultMaxFileSize is the upload size limit used when none is configured (10MB).
const DefaultMaxFileSize int64 = 10 * 1024 * 1024

// FileFormat is an input file type.
type FileFormat string

const (
	InputCSV  FileFormat = "csv"
	InputXLSX FileFormat = "xlsx"
)

// DetectFormat resolves the input format from the file name extension.
func DetectFormat(fileName string) (FileFormat, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		return InputCSV, nil
	case ".xlsx":
		return InputXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q (expected .csv or .xlsx)", ErrUnsupportedFormat, filepath.Ext(fileName))
	}
}

// ParseFile reads at most maxSize bytes from r and parses them according to
// the extension of fileName. A maxSize of zero or less uses DefaultMaxFileSize.
func ParseFile(fileName string, r io.Reader, maxSize int64) (Table, error) {
	format, err := DetectFormat(fileName)
	if err != nil {
		return nil, err
	}

	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}

	data, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > maxSize {
		return nil, fmt.Errorf("%w: exceeds %s limit", ErrFileTooLarge, formatSize(maxSize))
	}
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	var table Table
	switch format {
	case InputXLSX:
		table, err = parseXLSX(data)
	default:
		table, err = parseCSV(data)
	}
	if err != nil {
		return nil, err
	}

	if len(table) == 0 {
		return nil, ErrEmptyFile
	}
	return table, nil
}

// formatSize renders a byte count in the largest whole unit.
func formatSize(n int64) string {
	switch {
	case n >= 1<<20 && n%(1<<20) == 0:
		return fmt.Sprintf("%dMB", n>>20)
	case n >= 1<<10 && n%(1<<10) == 0:
		return fmt.Sprintf("%dKB", n>>10)
	default:
		return fmt.Sprintf("%d bytes", n)
	}
}

func parseCSV(data []byte) (Table, error) {
	r := csv.NewReader(WrapForStreaming(bytes.NewReader(data), int64(len(data))))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var table Table
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}

		row := make(Row, len(rec))
		for i, v := range rec {
			row[i] = TextCell(v)
		}
		table = append(table, row)
	}
	return table, nil
}

func parseXLSX(data []byte) (Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("invalid xlsx: workbook has no sheet")
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("invalid xlsx: read sheet %q: %w", sheet, err)
	}

	table := make(Table, 0, len(rows))
	for r, values := range rows {
		row := make(Row, len(values))
		for c, v := range values {
			if v == "" {
				row[c] = EmptyCell()
				continue
			}
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, fmt.Errorf("invalid xlsx: %w", err)
			}
			typ, err := f.GetCellType(sheet, name)
			if err != nil {
				return nil, fmt.Errorf("invalid xlsx: cell %s: %w", name, err)
			}
			row[c] = xlsxCell(typ, v)
		}
		table = append(table, row)
	}
	return table, nil
}

// xlsxCell converts a raw cell value according to its stored type. Numbers
// are usually stored without an explicit type, so unset cells that parse as
// floats are numbers too.
func xlsxCell(typ excelize.CellType, raw string) Cell {
	switch typ {
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return NumberCell(n)
		}
	case excelize.CellTypeBool:
		return OtherCell(raw == "1" || strings.EqualFold(raw, "true"))
	}
	return TextCell(raw)
}
