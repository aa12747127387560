package core

// error_messages.go maps technical errors to user-facing messages with a
// short code that support can look up.
//
// # Codes
//
//	CSV001 - CSV has no content column          "'content' column"
//	CSV002 - CSV is structurally invalid        "invalid csv"
//	CSV003 - No CSV data supplied               "csv is empty", "no file provided"
//
//	IMG001 - Image payload is not valid base64  "failed to decode image", "illegal base64"
//	IMG002 - No image supplied                  "no image provided"
//	IMG003 - Image too large to decode          "pixel limit"
//	IMG004 - No QR code in the image            "no qr code detected"
//
//	ZIP001 - Entry could not be written         "failed to add file to archive"
//	ZIP002 - Archive could not be finished      "finalize archive", "create archive"
//	ZIP003 - Export file does not exist         "export not found"
//
//	BAT001 - All batch slots busy               "too many concurrent batches"
//	BAT002 - Save cancelled                     "save cancelled"
//	BAT003 - Request body too large             "too large"
//	BAT004 - Request cancelled                  "context canceled"
//	BAT005 - Request timed out                  "context deadline exceeded"
//
//	STO001 - Template name missing              "name is required"
//	STO002 - Style is not valid JSON            "invalid style json"
//	STO003 - Record does not exist              "not found"
//
//	DB001  - Database unreachable               "connection refused"
//	DB002  - Connection interrupted             "connection reset"
//	DB003  - Database busy                      "database is locked", "deadlock"
//	DB004  - Database timeout                   "timeout"
//
//	REQ001 - Request body unreadable            "invalid request body"
//	RATE001 - Too many requests                 "rate limit"
//	ERR000  - Anything else; check the logs for the technical error.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns precede general ones.

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
	// CSV input
	{"'content' column", UserMessage{"CSV must have a 'content' column", "Add a header row with a column named content", "CSV001"}},
	{"invalid csv", UserMessage{"File is not a valid CSV", "Check quoting near the reported row and save as comma-separated UTF-8", "CSV002"}},
	{"csv is empty", UserMessage{"The CSV file is empty", "Upload a CSV with a header row and at least one data row", "CSV003"}},
	{"no file provided", UserMessage{"No CSV data was provided", "Select a CSV file or paste CSV text", "CSV003"}},

	// Images
	{"failed to decode image", UserMessage{"An image payload could not be decoded", "Regenerate the codes and try again", "IMG001"}},
	{"illegal base64", UserMessage{"Image data is not valid base64", "Send the PNG as base64 or a data URL", "IMG001"}},
	{"no image provided", UserMessage{"No image was provided", "Attach an image or send imageData", "IMG002"}},
	{"pixel limit", UserMessage{"The image is too large to scan", "Resize the image and try again", "IMG003"}},
	{"no qr code detected", UserMessage{"No QR code was found in the image", "Use a sharper image with the whole code visible", "IMG004"}},

	// Archives
	{"failed to add file to archive", UserMessage{"An entry could not be added to the archive", "Check the item labels and try again", "ZIP001"}},
	{"finalize archive", UserMessage{"The archive could not be written", "Check free disk space and try again", "ZIP002"}},
	{"create archive", UserMessage{"The archive could not be created", "Check the output location is writable", "ZIP002"}},
	{"export not found", UserMessage{"The export file does not exist", "Export the batch again", "ZIP003"}},

	// Batch control
	{"too many concurrent batches", UserMessage{"System is busy processing other batches", "Please wait a moment and try again", "BAT001"}},
	{"save cancelled", UserMessage{"Save was cancelled", "Choose a location to save the archive", "BAT002"}},
	{"too large", UserMessage{"The request is too large", "Split the batch into smaller parts", "BAT003"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "BAT004"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try a smaller batch or try again later", "BAT005"}},

	// Stored history and templates
	{"name is required", UserMessage{"Template name is required", "Enter a name for the template", "STO001"}},
	{"invalid style json", UserMessage{"Template style is not valid JSON", "Check the style settings and save again", "STO002"}},
	{"not found", UserMessage{"The requested record was not found", "Refresh the list and try again", "STO003"}},

	// Database
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB001"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB002"}},
	{"database is locked", UserMessage{"Database is busy", "Please try again", "DB003"}},
	{"deadlock", UserMessage{"Database was busy with conflicting operations", "Please try again", "DB003"}},
	{"timeout", UserMessage{"Operation timed out", "Try a smaller batch or try again later", "DB004"}},

	{"invalid request body", UserMessage{"The request could not be read", "Check the request body and try again", "REQ001"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. Unknown
// errors map to ERR000.
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

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error (kept for logs) with its user message.
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

// NewUserError maps err. It returns nil for a nil err.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
