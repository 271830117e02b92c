package core

import (
	"fmt"
	"strconv"
)

// CellKind identifies which variant a Cell holds.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellOther
)

// Cell is a single value from a parsed file. Spreadsheets carry typed cells,
// CSV files only text; both are reduced to text with Cell.String.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Other  any
}

// EmptyCell returns a cell with no value.
func EmptyCell() Cell { return Cell{Kind: CellEmpty} }

// TextCell returns a text cell. An empty string yields an empty cell.
func TextCell(s string) Cell {
	if s == "" {
		return EmptyCell()
	}
	return Cell{Kind: CellText, Text: s}
}

// NumberCell returns a numeric cell.
func NumberCell(n float64) Cell { return Cell{Kind: CellNumber, Number: n} }

// OtherCell wraps any other value (booleans, dates, errors from a sheet).
func OtherCell(v any) Cell {
	if v == nil {
		return EmptyCell()
	}
	return Cell{Kind: CellOther, Other: v}
}

// String coerces the cell to text. Numbers use the shortest decimal form
// ("123", "1.5").
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return c.Text
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellOther:
		return fmt.Sprint(c.Other)
	default:
		return ""
	}
}

// Row is an ordered sequence of cells.
type Row []Cell

// Table is parsed tabular data. The first row holds the headers.
type Table []Row

// EmailRecord is one processed email entry.
type EmailRecord struct {
	// Email is trimmed and lower-cased. Empty means no usable value.
	Email       string `json:"email"`
	IsValid     bool   `json:"isValid"`
	IsDuplicate bool   `json:"isDuplicate"`
	// OriginalRow is the 1-based line in the source file (first data row is 2).
	// Zero means unknown.
	OriginalRow int `json:"originalRow,omitempty"`
}

// ProcessingStats holds the counters of one run. They are computed once and
// are not adjusted by later pipeline steps.
type ProcessingStats struct {
	TotalEmails       int `json:"totalEmails"`
	InvalidEmails     int `json:"invalidEmails"`
	DuplicatesRemoved int `json:"duplicatesRemoved"`
}

// ProcessingOptions toggles the optional pipeline steps.
type ProcessingOptions struct {
	RemoveDuplicates   bool `json:"removeDuplicates" yaml:"remove_duplicates"`
	RemoveInvalid      bool `json:"removeInvalid" yaml:"remove_invalid"`
	SortAlphabetically bool `json:"sortAlphabetically" yaml:"sort_alphabetically"`
}

// PipelineResult is the output of ProcessEmails.
type PipelineResult struct {
	Records []EmailRecord
	Stats   ProcessingStats
	// MergeDropped counts incoming records dropped because their address was
	// already in the prior set. It is not part of Stats.
	MergeDropped int
}

// UploadPhase indicates the current stage of a run.
type UploadPhase string

const (
	PhaseReading    UploadPhase = "reading"
	PhaseProcessing UploadPhase = "processing"
	PhaseComplete   UploadPhase = "complete"
	PhaseFailed     UploadPhase = "failed"
)

// RunResult is returned to callers of Service.ProcessUpload.
type RunResult struct {
	RunID     string            `json:"runId"`
	SessionID string            `json:"sessionId"`
	FileName  string            `json:"fileName"`
	Phase     UploadPhase       `json:"phase"`
	Options   ProcessingOptions `json:"options"`
	Stats     ProcessingStats   `json:"stats"`
	// MergeDropped is the number of addresses dropped because the working set
	// already held them.
	MergeDropped int `json:"mergeDropped"`
	// Records is the session working set after this run.
	Records    []EmailRecord `json:"records"`
	DurationMs int64         `json:"durationMs"`
}
