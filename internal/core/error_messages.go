package core

// error_messages.go maps technical errors to coded, user-facing messages.
//
// Users quote the code to support; support looks it up here and, for
// ERR000, in the logs, where the technical error is always written.
//
//	DB001-DB099     storage constraints and connectivity
//	FILE001-FILE099 extract files that cannot be read at all
//	HDR001-HDR099   header rows that do not match the dataset
//	IMP001-IMP099   the import process itself (queue, cancellation)
//	DS001-DS099     dataset lookup and configuration
//	ERR000          fallback
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Storage constraints
	{"duplicate key", UserMessage{"A record with this key already exists", "Remove duplicate rows or clear the table before reloading", "DB001"}},
	{"unique constraint", UserMessage{"This value must be unique but already exists", "Check the extract for duplicate keys", "DB002"}},
	{"foreign key", UserMessage{"Referenced record does not exist", "Load the reference tables first", "DB003"}},
	{"too many sql variables", UserMessage{"Statement exceeded the database parameter limit", "Lower INGEST_BATCH_SIZE or set INGEST_PARAM_CEILING", "DB008"}},
	{"extended protocol limited", UserMessage{"Statement exceeded the database parameter limit", "Lower INGEST_BATCH_SIZE or set INGEST_PARAM_CEILING", "DB008"}},

	// Storage connectivity
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},
	{"database is locked", UserMessage{"Database was busy with another load", "Please try again", "DB007"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB007"}},
	{"timeout", UserMessage{"Operation timed out", "Try a smaller extract or try again later", "DB006"}},

	// Files
	{"file too large", UserMessage{"File exceeds the maximum size limit", "Split the extract into smaller files", "FILE001"}},
	{"unreadable file", UserMessage{"File could not be read as delimited text", "Check the delimiter and that the file is not truncated", "FILE002"}},
	{"empty file", UserMessage{"The uploaded file is empty", "Upload an extract with a header and data rows", "FILE003"}},
	{"no file provided", UserMessage{"No file was provided", "Attach the extract as the 'file' form field", "FILE004"}},

	// Headers
	{"missing required columns", UserMessage{"Required columns are missing from the header", "Add the listed columns to the extract header", "HDR001"}},
	{"columns, got", UserMessage{"Header does not match the dataset layout", "Export the extract with the documented column order", "HDR002"}},
	{`", expected "`, UserMessage{"Header does not match the dataset layout", "Export the extract with the documented column order", "HDR002"}},

	// Import process
	{"too many concurrent imports", UserMessage{"System is busy processing other imports", "Please wait a moment and try again", "IMP001"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "IMP002"}},
	{"context deadline exceeded", UserMessage{"Import timed out", "Try a smaller extract or raise INGEST_TIMEOUT", "IMP003"}},

	// Datasets
	{"unknown dataset", UserMessage{"Unknown dataset", "Check the dataset key against the dataset list", "DS001"}},
	{"no key column", UserMessage{"This dataset does not support keyed updates", "Use a dataset with a key column", "DS002"}},
	{"column not found", UserMessage{"Column is not part of this dataset", "Check the column names against the dataset", "DS003"}},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// If no pattern matches, the ERR000 fallback is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a specific pattern rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message. Error() returns
// the user message; Unwrap exposes the technical error for logging and
// errors.Is.
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

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
