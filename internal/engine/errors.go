package engine

import (
	"errors"
	"fmt"
)

// EventError represents a failure while processing an inbound event.
//
// The Code determines how the caller reacts:
//   - MALFORMED_PAYLOAD: unrecoverable for this event, no retry here
//   - PERSISTENCE: reported; retry policy is the caller's concern
//   - ENRICHMENT: recovered locally, processing continues degraded
//   - NOTIFICATION: recovered locally, event still counts as processed
type EventError struct {
	// Code identifies the error category.
	Code EventErrorCode

	// Message is a human-readable description.
	Message string

	// IssueID identifies the affected issue, when known.
	IssueID int64

	// Err is the underlying cause, if any.
	Err error
}

// EventErrorCode categorizes event processing errors.
type EventErrorCode string

const (
	// ErrCodeMalformedPayload indicates a payload missing required fields.
	ErrCodeMalformedPayload EventErrorCode = "MALFORMED_PAYLOAD"

	// ErrCodePersistence indicates a table read or write failed.
	ErrCodePersistence EventErrorCode = "PERSISTENCE"

	// ErrCodeEnrichment indicates the similarity search failed or timed out.
	ErrCodeEnrichment EventErrorCode = "ENRICHMENT"

	// ErrCodeNotification indicates comment posting failed.
	ErrCodeNotification EventErrorCode = "NOTIFICATION"
)

// Error implements the error interface.
func (e *EventError) Error() string {
	if e.IssueID != 0 {
		return fmt.Sprintf("%s: %s (issue=%d)", e.Code, e.Message, e.IssueID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *EventError) Unwrap() error {
	return e.Err
}

// IsMalformedPayload returns true if the error is a malformed-payload error.
// Uses errors.As to handle wrapped errors.
func IsMalformedPayload(err error) bool {
	var ee *EventError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodeMalformedPayload
	}
	return false
}

// IsPersistence returns true if the error is a persistence error.
// Uses errors.As to handle wrapped errors.
func IsPersistence(err error) bool {
	var ee *EventError
	if errors.As(err, &ee) {
		return ee.Code == ErrCodePersistence
	}
	return false
}

// NewMalformedPayloadError creates an EventError for a payload with a
// missing or malformed required field.
func NewMalformedPayloadError(field, reason string) *EventError {
	return &EventError{
		Code:    ErrCodeMalformedPayload,
		Message: fmt.Sprintf("field %q %s", field, reason),
	}
}

// NewPersistenceError wraps a table I/O failure.
func NewPersistenceError(issueID int64, op string, err error) *EventError {
	return &EventError{
		Code:    ErrCodePersistence,
		Message: op + " failed",
		IssueID: issueID,
		Err:     err,
	}
}

// NewEnrichmentError wraps a similarity-search failure. Callers recover
// from these by continuing with an empty result set.
func NewEnrichmentError(issueID int64, err error) *EventError {
	return &EventError{
		Code:    ErrCodeEnrichment,
		Message: "similarity search failed",
		IssueID: issueID,
		Err:     err,
	}
}

// NewNotificationError wraps a comment-posting failure. Callers recover
// from these; the event still counts as processed.
func NewNotificationError(issueID int64, err error) *EventError {
	return &EventError{
		Code:    ErrCodeNotification,
		Message: "posting reply comment failed",
		IssueID: issueID,
		Err:     err,
	}
}
