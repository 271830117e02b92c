package core

// error_messages.go maps errors to user-facing messages with a support code.
//
// Codes by category:
//
//	FILE001  file too large           FILE004  no file provided
//	FILE002  unreadable file          FILE005  empty file
//	FILE003  unsupported format
//	COL001   no email column
//	EML001   no email in the file     EML002   no valid email
//	EXP001   nothing to export
//	SES001   session not found        SES002   upload already running
//	UPL002   too many uploads         UPL004   request cancelled
//	UPL005   request timed out
//	RATE001  rate limited
//	DB004    database unreachable
//	ERR000   anything else
//
// Known sentinel errors are matched first with errors.Is. Errors from
// outside the package (database drivers, multipart parsing) fall back to a
// case-insensitive substring match on the message.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

var (
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the list into smaller files",
		Code:    "FILE001",
	}
	msgInvalidFile = UserMessage{
		Message: "The file could not be read",
		Action:  "Check that the file is a valid CSV or Excel workbook",
		Code:    "FILE002",
	}
	msgUnsupported = UserMessage{
		Message: "Unsupported file format",
		Action:  "Upload a .csv or .xlsx file",
		Code:    "FILE003",
	}
	msgNoFile = UserMessage{
		Message: "No file was selected",
		Action:  "Choose a CSV or Excel file to upload",
		Code:    "FILE004",
	}
	msgEmptyFile = UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Upload a file with a header row and at least one address",
		Code:    "FILE005",
	}
	msgNoEmailColumn = UserMessage{
		Message: "No email column was found",
		Action:  "Name the column holding addresses \"Email\", \"E-mail\", \"Mail\" or \"Courriel\"",
		Code:    "COL001",
	}
	msgNoEmails = UserMessage{
		Message: "No email address found in the file",
		Action:  "Check that the email column is filled in",
		Code:    "EML001",
	}
	msgNoValidEmails = UserMessage{
		Message: "No valid email address found",
		Action:  "Review the addresses or disable invalid address removal",
		Code:    "EML002",
	}
	msgNothingToExport = UserMessage{
		Message: "There is nothing to export",
		Action:  "Upload a file first",
		Code:    "EXP001",
	}
	msgSessionNotFound = UserMessage{
		Message: "Session not found",
		Action:  "The session may have expired. Start a new list",
		Code:    "SES001",
	}
	msgSessionBusy = UserMessage{
		Message: "A file is already being processed for this list",
		Action:  "Wait for the current upload to finish",
		Code:    "SES002",
	}
	msgTooManyUploads = UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
	msgCancelled = UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}
	msgTimeout = UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}
	msgRateLimited = UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}
	msgDatabase = UserMessage{
		Message: "Unable to reach the database",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}
)

// sentinelMessages is checked in order with errors.Is.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrFileTooLarge, msgFileTooLarge},
	{ErrUnsupportedFormat, msgUnsupported},
	{ErrEmptyFile, msgEmptyFile},
	{ErrNoEmailColumn, msgNoEmailColumn},
	{ErrNoEmails, msgNoEmails},
	{ErrNoValidEmails, msgNoValidEmails},
	{ErrNothingToExport, msgNothingToExport},
	{ErrSessionNotFound, msgSessionNotFound},
	{ErrSessionBusy, msgSessionBusy},
	{ErrTooManyUploads, msgTooManyUploads},
	{ErrInvalidInput, msgInvalidFile},
	{context.Canceled, msgCancelled},
	{context.DeadlineExceeded, msgTimeout},
}

// errorPatterns is the substring fallback. The first match wins, so
// specific patterns come first.
var errorPatterns = []struct {
	pattern string
	msg     UserMessage
}{
	{"request body too large", msgFileTooLarge},
	{"no such file", msgNoFile},
	{"no file provided", msgNoFile},
	{"invalid csv", msgInvalidFile},
	{"invalid xlsx", msgInvalidFile},
	{"rate limit", msgRateLimited},
	{"connection refused", msgDatabase},
	{"connection reset", msgDatabase},
}

// defaultMessage is returned when nothing matches. Support staff should
// check the logs for the underlying error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-facing message. A nil error maps to
// the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(errStr, p.pattern) {
			return p.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	if err == nil {
		return ""
	}
	return NewUserError(err).Detail()
}

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message. Error returns the
// user message; Unwrap exposes the original for logging and errors.Is.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// Detail renders the message, code and action on one line.
func (e *UserError) Detail() string {
	return fmt.Sprintf("%s (Code: %s). %s", e.User.Message, e.User.Code, e.User.Action)
}

// NewUserError maps err into a UserError. It returns nil for a nil error.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
