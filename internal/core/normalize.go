package core

import (
	"fmt"
	"strings"
)

// headerRows is the number of rows preceding the data; OriginalRow is the
// 1-based line of a data row, so the first data row is line 2.
const headerRows = 1

// NormalizeEmail trims and lower-cases a raw cell value.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizeRecords builds one EmailRecord per data row of data using the
// cell at col. Rows without a usable value are counted as invalid and left
// out of the result.
//
// TotalEmails is the number of records returned. InvalidEmails counts both
// the empty rows and the records that failed ValidEmail.
func NormalizeRecords(data Table, col int) ([]EmailRecord, ProcessingStats, error) {
	var stats ProcessingStats

	if len(data) == 0 {
		return nil, stats, fmt.Errorf("%w: data is empty", ErrInvalidInput)
	}
	if col < 0 || col >= len(data[0]) {
		return nil, stats, fmt.Errorf("%w: email column index %d out of range (header has %d columns)",
			ErrInvalidInput, col, len(data[0]))
	}

	rows := data[headerRows:]
	records := make([]EmailRecord, 0, len(rows))

	for i, row := range rows {
		lineNum := i + headerRows + 1

		var raw string
		if col < len(row) {
			raw = row[col].String()
		}

		email := NormalizeEmail(raw)
		if email == "" {
			stats.InvalidEmails++
			continue
		}

		valid := ValidEmail(email)
		if !valid {
			stats.InvalidEmails++
		}

		records = append(records, EmailRecord{
			Email:       email,
			IsValid:     valid,
			OriginalRow: lineNum,
		})
	}

	stats.TotalEmails = len(records)
	if stats.TotalEmails == 0 {
		return nil, stats, ErrNoEmails
	}

	return records, stats, nil
}
