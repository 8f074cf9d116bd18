package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Typed engine errors are mapped first; anything else (storage,
// transport, file handling) is matched against message patterns.
//
// # Validation Errors (VAL000-VAL099)
//
//	VAL000 - Record invalid: the row has one or more problems (RecordError)
//	VAL001 - Invalid date: "invalid date"
//	VAL002 - Invalid number: "invalid number"
//	VAL003 - Required field: ErrMissingField, "required field"
//	VAL004 - Wrong type: ErrUnexpectedType, "unexpected type"
//	VAL005 - Invalid URL: "invalid url"
//	VAL006 - Invalid boolean: "boolean must be", "must be y or n"
//	VAL007 - Inconsistent fields: ValidationError
//	VAL008 - Unrecognised value: ErrUnrecognised
//
// # Schema Errors (SCH001-SCH099)
//
//	SCH001 - Unknown profile: SchemaSelectionError, "unknown profile"
//	SCH002 - Unknown tier: "unknown tier"
//
// # Run Store Errors (DB001-DB099)
//
//	DB001 - Run saved twice: "duplicate key", "unique constraint"
//	DB003 - Orphaned rows: "foreign key"
//	DB004 - Store unreachable: "connection refused", "no such host"
//	DB005 - Connection dropped: "connection reset", "broken pipe"
//	DB006 - Store timeout: "timeout"
//	DB007 - Store busy: "deadlock", "database is locked"
//	DB008 - Run not found: "run not found"
//	DB009 - No store: "no store configured"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: "file too large"
//	FILE002 - Invalid CSV: "invalid csv"
//	FILE003 - Encoding error: "encoding error"
//	FILE004 - No file: "no file provided"
//	FILE005 - Empty file: "empty file"
//	FILE006 - Unsupported format: "unsupported file type"
//	FILE007 - Sheet missing: "sheet not found"
//	FILE008 - Invalid workbook: "invalid workbook"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - Rate limited: "rate limit exceeded"
//	UPL002 - System busy: "too many uploads"
//	UPL004 - Request cancelled: "context canceled"
//	UPL005 - Request timeout: "context deadline exceeded"
//	UPL006 - Invalid request body: "invalid request"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: an unexpected error occurred
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns are defined
// before general ones.
//
// ERR000 is logged with the technical error and request id; search the
// server log for the request id the client received.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage is what a person sees when a sheet, upload or run fails.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorPattern pairs a lower-case substring with the message it selects.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgRecordInvalid = UserMessage{
		Message: "The row failed validation",
		Action:  "Review the field errors listed for this row",
		Code:    "VAL000",
	}
	msgRequired = UserMessage{
		Message: "Required field is empty",
		Action:  "Fill in the field or validate under a less strict tier",
		Code:    "VAL003",
	}
	msgWrongType = UserMessage{
		Message: "Value has the wrong type for this field",
		Action:  "Check the field's expected type for this tier",
		Code:    "VAL004",
	}
	msgInconsistent = UserMessage{
		Message: "Fields are inconsistent with each other",
		Action:  "Check the related values in this row",
		Code:    "VAL007",
	}
	msgUnrecognised = UserMessage{
		Message: "Value was not recognised",
		Action:  "Correct the value in the source sheet",
		Code:    "VAL008",
	}
	msgRunExists = UserMessage{
		Message: "This run was already saved",
		Action:  "Validate the sheet again to get a new run ID",
		Code:    "DB001",
	}
	msgStoreDown = UserMessage{
		Message: "The run store cannot be reached",
		Action:  "Check STORE_DSN or try again in a few moments",
		Code:    "DB004",
	}
	msgStoreDropped = UserMessage{
		Message: "The connection to the run store was interrupted",
		Action:  "Try again; the report was not saved",
		Code:    "DB005",
	}
	msgStoreBusy = UserMessage{
		Message: "The run store is busy with another write",
		Action:  "Wait a moment and try again",
		Code:    "DB007",
	}
	msgUnknownProfile = UserMessage{
		Message: "No schema exists for this sheet type and tier",
		Action:  "Choose one of the listed sheet types and tiers",
		Code:    "SCH001",
	}
)

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Field Errors (VAL001-VAL006)
	// =========================================================================
	{
		pattern: "invalid date",
		msg: UserMessage{
			Message: "Invalid date format detected",
			Action:  "Use YYYY-MM-DD or DD/MM/YYYY",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "Invalid number format detected",
			Action:  "Use a plain number such as -80 or 12.5",
			Code:    "VAL002",
		},
	},
	{pattern: "required field", msg: msgRequired},
	{pattern: "unexpected type", msg: msgWrongType},
	{
		pattern: "invalid url",
		msg: UserMessage{
			Message: "Invalid link",
			Action:  "Use a full http:// or https:// address",
			Code:    "VAL005",
		},
	},
	{
		pattern: "boolean must be",
		msg: UserMessage{
			Message: "Invalid yes/no value",
			Action:  "Use y, n, t or f",
			Code:    "VAL006",
		},
	},
	{
		pattern: "must be y or n",
		msg: UserMessage{
			Message: "Invalid yes/no value",
			Action:  "Use y or n",
			Code:    "VAL006",
		},
	},

	// =========================================================================
	// Schema Errors (SCH001-SCH002)
	// =========================================================================
	{pattern: "unknown profile", msg: msgUnknownProfile},
	{
		pattern: "unknown tier",
		msg: UserMessage{
			Message: "Unknown strictness tier",
			Action:  "Use lenient, semistrict or strict",
			Code:    "SCH002",
		},
	},

	// =========================================================================
	// Run Store Errors (DB001-DB009)
	// =========================================================================
	{pattern: "duplicate key", msg: msgRunExists},
	{pattern: "unique constraint", msg: msgRunExists},
	{
		pattern: "foreign key",
		msg: UserMessage{
			Message: "Rows were written for a run that does not exist",
			Action:  "Validate the sheet again to create a new run",
			Code:    "DB003",
		},
	},
	{pattern: "connection refused", msg: msgStoreDown},
	{pattern: "no such host", msg: msgStoreDown},
	{pattern: "connection reset", msg: msgStoreDropped},
	{pattern: "broken pipe", msg: msgStoreDropped},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The run store took too long to answer",
			Action:  "Try a smaller sheet or try again later",
			Code:    "DB006",
		},
	},
	{pattern: "deadlock", msg: msgStoreBusy},
	{pattern: "database is locked", msg: msgStoreBusy},
	{
		pattern: "run not found",
		msg: UserMessage{
			Message: "Validation run not found",
			Action:  "Check the run ID",
			Code:    "DB008",
		},
	},
	{
		pattern: "no store configured",
		msg: UserMessage{
			Message: "Run history is not enabled on this server",
			Action:  "Configure a database to keep validation runs",
			Code:    "DB009",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE008)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure file is comma-separated with consistent columns",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save file as UTF-8 encoding",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV or XLSX file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with a header and data rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "File type is not supported",
			Action:  "Upload a .csv or .xlsx file",
			Code:    "FILE006",
		},
	},
	{
		pattern: "sheet not found",
		msg: UserMessage{
			Message: "The workbook has no sheet with that name",
			Action:  "Check the sheet name",
			Code:    "FILE007",
		},
	},
	{
		pattern: "invalid workbook",
		msg: UserMessage{
			Message: "The workbook could not be read",
			Action:  "Re-export the file as .xlsx",
			Code:    "FILE008",
		},
	},

	// =========================================================================
	// Upload Errors (UPL001-UPL006)
	// =========================================================================
	{
		pattern: "rate limit exceeded",
		msg: UserMessage{
			Message: "Too many requests from this address",
			Action:  "Wait for the Retry-After interval and try again",
			Code:    "UPL001",
		},
	},
	{
		pattern: "too many uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request body could not be read",
			Action:  "Send a JSON object with a records array",
			Code:    "UPL006",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Typed engine errors are recognised with errors.As and errors.Is; other
// errors are matched against the pattern table. If nothing matches, a
// generic fallback message with code ERR000 is returned.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var re *RecordError
	var se *SchemaSelectionError
	var ve *ValidationError
	var ce *CoercionError
	switch {
	case errors.As(err, &re):
		return msgRecordInvalid
	case errors.As(err, &se):
		return msgUnknownProfile
	case errors.As(err, &ve):
		return msgInconsistent
	case errors.Is(err, ErrMissingField):
		return msgRequired
	case errors.Is(err, ErrUnexpectedType):
		return msgWrongType
	case errors.As(err, &ce):
		if msg, ok := matchPattern(ce.Err); ok {
			return msg
		}
		return msgUnrecognised
	}

	if msg, ok := matchPattern(err); ok {
		return msg
	}
	if errors.Is(err, ErrUnrecognised) {
		return msgUnrecognised
	}
	return defaultMessage
}

func matchPattern(err error) (UserMessage, bool) {
	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg, true
		}
	}
	return UserMessage{}, false
}

// FormatUserError renders err as "Message (Code: XXX). Action" for
// terminals and logs.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to anything but the ERR000
// fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
