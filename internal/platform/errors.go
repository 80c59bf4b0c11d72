package platform

import "fmt"

// SearchError is a platform-level failure: the adapter could not complete its
// search, so the platform's stream ends early. Other platforms are unaffected.
type SearchError struct {
	Platform string
	Keyword  string
	Message  string
	Cause    error
}

func (e *SearchError) Error() string {
	msg := fmt.Sprintf("%s search failed", e.Platform)
	if e.Keyword != "" {
		msg += fmt.Sprintf(" for %q", e.Keyword)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *SearchError) Unwrap() error {
	return e.Cause
}

// DetailError is an item-level failure: the detail fetch for one item failed.
// The item moves to FAILED with its partial data retained and the stream
// continues.
type DetailError struct {
	Platform string
	NativeID string
	Message  string
	Cause    error
}

func (e *DetailError) Error() string {
	msg := fmt.Sprintf("%s detail fetch failed for %s", e.Platform, e.NativeID)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *DetailError) Unwrap() error {
	return e.Cause
}
