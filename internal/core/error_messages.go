package core

// error_messages.go maps technical errors to user-facing messages with codes
// for support reference. Users quote the code, support looks it up here.
//
// # Row Errors (ROW001-ROW099)
//
//	ROW001 - Row not found: The row no longer exists
//	         Action: Reload the page; it may have been deleted
//
// # Edit Errors (EDIT001-EDIT099)
//
//	EDIT001 - Edit in progress: Another row is being edited
//	          Action: Save or cancel the open edit first
//	EDIT002 - No edit: No row is being edited
//	          Action: Choose a row to edit first
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum size limit
//	          Action: Split the file into smaller chunks
//	FILE004 - No file: No file was selected
//	          Action: Please select a CSV file to load
//
// # Session Errors (SES001-SES099)
//
//	SES001 - Session not found: No file is loaded for this session
//	         Action: Load a CSV file to start editing
//
// # Load Errors (LOAD001-LOAD099)
//
//	LOAD002 - System busy: Too many loads in progress
//	LOAD004 - Request cancelled
//	LOAD005 - Request timeout
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//
// # Default (ERR000)
//
//	ERR000 - An unexpected error occurred; check the logs for the technical error.
//
// Sentinel errors are matched with errors.Is first. Anything else falls back
// to case-insensitive substring patterns, first match wins.

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
	Code    string // Error code for support reference
}

type sentinelMessage struct {
	err error
	msg UserMessage
}

var sentinelMessages = []sentinelMessage{
	{ErrRowNotFound, UserMessage{
		Message: "The row no longer exists",
		Action:  "Reload the page; it may have been deleted",
		Code:    "ROW001",
	}},
	{ErrEditInProgress, UserMessage{
		Message: "Another row is being edited",
		Action:  "Save or cancel the open edit first",
		Code:    "EDIT001",
	}},
	{ErrNoEditInProgress, UserMessage{
		Message: "No row is being edited",
		Action:  "Choose a row to edit first",
		Code:    "EDIT002",
	}},
	{ErrFileTooLarge, UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}},
	{ErrNoFile, UserMessage{
		Message: "No file was selected",
		Action:  "Please select a CSV file to load",
		Code:    "FILE004",
	}},
	{ErrSessionNotFound, UserMessage{
		Message: "No file is loaded",
		Action:  "Load a CSV file to start editing",
		Code:    "SES001",
	}},
	{ErrTooManyLoads, UserMessage{
		Message: "System is busy loading other files",
		Action:  "Please wait a moment and try again",
		Code:    "LOAD002",
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "LOAD004",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "LOAD005",
	}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
	{"request body too large", UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}},
	{"invalid row id", UserMessage{
		Message: "The row reference is not valid",
		Action:  "Reload the page and try again",
		Code:    "ROW002",
	}},
	{"invalid request body", UserMessage{
		Message: "The request could not be read",
		Action:  "Check the request format and try again",
		Code:    "REQ001",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// A nil error maps to the zero UserMessage.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, sm := range sentinelMessages {
		if errors.Is(err, sm.err) {
			return sm.msg
		}
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

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
