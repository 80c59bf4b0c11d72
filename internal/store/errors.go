package store

import "fmt"

// WriteError is a persistence failure for a single record. The pipeline
// retries these with backoff before marking the item FAILED.
type WriteError struct {
	Platform string
	NativeID string
	Message  string
	Cause    error
}

func (e *WriteError) Error() string {
	msg := fmt.Sprintf("store write failed for %s/%s", e.Platform, e.NativeID)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *WriteError) Unwrap() error {
	return e.Cause
}
