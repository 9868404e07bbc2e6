package core

// Error codes reference
//
// Call-level failures are mapped to user-friendly messages with a code that
// users can quote to support. Row-level failures never go through this
// mapping; they are reported verbatim in the import outcome.
//
//	DB001   - Duplicate email              ("duplicate key")
//	DB004   - Database unreachable         ("connection refused")
//	DB005   - Database connection dropped  ("connection reset")
//	FILE001 - File too large               ("file too large")
//	FILE002 - Invalid or truncated upload  ("invalid file")
//	FILE003 - Unsupported file type        ("file type not allowed")
//	FILE004 - No file in the request       ("no file provided")
//	UPL001  - Import cancelled             ("context canceled")
//	UPL002  - Too many concurrent imports  ("too many concurrent imports")
//	UPL003  - Import timed out             ("context deadline exceeded", "timeout")
//	RATE001 - Rate limited                 ("rate limit")
//	ERR000  - Anything else; check the logs for the technical error
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"duplicate key", UserMessage{"A contact with this email already exists", "Remove the duplicate rows and retry", "DB001"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"connection reset", UserMessage{"Database connection was interrupted", "Please try again", "DB005"}},

	{"file too large", UserMessage{"File exceeds the maximum upload size", "Split the file into smaller chunks", "FILE001"}},
	{"invalid file", UserMessage{"The uploaded file could not be read", "Upload the file again", "FILE002"}},
	{"file type not allowed", UserMessage{"Only CSV files can be imported", "Save the file as CSV and retry", "FILE003"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a CSV file to import", "FILE004"}},

	{"context canceled", UserMessage{"Import was cancelled", "Please try again", "UPL001"}},
	{"too many concurrent imports", UserMessage{"System is busy processing other imports", "Please wait a moment and try again", "UPL002"}},
	{"context deadline exceeded", UserMessage{"Import timed out", "Try a smaller file or try again later", "UPL003"}},
	{"timeout", UserMessage{"Import timed out", "Try a smaller file or try again later", "UPL003"}},

	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns the zero UserMessage for a nil error and ERR000 when nothing matches.
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

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
