package core

import "errors"

// Pipeline errors. Callers match them with errors.Is; messages are stable
// because MapError keys user messages on them.
var (
	// ErrInvalidInput reports malformed tabular input: missing header, no
	// rows, or a column index outside the header.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoEmailColumn is returned when no header matches the email keywords.
	ErrNoEmailColumn = errors.New("email column not found")

	// ErrNoEmails is returned when normalization leaves no non-empty address.
	ErrNoEmails = errors.New("no email found in file")

	// ErrNoValidEmails is returned when the pipeline output is empty after
	// filtering.
	ErrNoValidEmails = errors.New("no valid email found")

	// ErrNothingToExport is returned by the exporters for an empty list.
	ErrNothingToExport = errors.New("nothing to export")
)

// File and session errors raised around the pipeline.
var (
	ErrEmptyFile         = errors.New("empty file")
	ErrFileTooLarge      = errors.New("file too large")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionBusy       = errors.New("upload already in progress for session")
)
