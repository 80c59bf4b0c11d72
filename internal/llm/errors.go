// Package llm - errors.go classifies model-call failures so call sites can
// choose a deterministic fallback instead of branching on raw errors.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// FailureKind tags the reason a model call could not produce a usable result.
type FailureKind string

// Failure kinds. Every kind routes the call site to its fallback path.
const (
	// KindTimeout covers request deadlines and cancellations.
	KindTimeout FailureKind = "timeout"
	// KindAuth covers missing/invalid credentials and quota exhaustion.
	KindAuth FailureKind = "auth"
	// KindMalformed covers responses that fail to parse as the expected structure.
	KindMalformed FailureKind = "malformed"
	// KindUnavailable covers transport errors and provider-side failures.
	KindUnavailable FailureKind = "unavailable"
)

// CallError represents a failed model call with a tagged failure kind.
type CallError struct {
	Kind    FailureKind
	Message string
	Cause   error
}

func (e *CallError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("llm call failed (%s): %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("llm call failed (%s): %s", e.Kind, e.Message)
}

func (e *CallError) Unwrap() error {
	return e.Cause
}

// WrapCallError converts a provider error into a tagged CallError.
// Already-tagged errors pass through unchanged.
func WrapCallError(err error) error {
	if err == nil {
		return nil
	}

	var callErr *CallError
	if errors.As(err, &callErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &CallError{Kind: KindTimeout, Message: "request deadline exceeded", Cause: err}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusTooManyRequests:
			return &CallError{Kind: KindAuth, Message: "authentication or quota failure", Cause: err}
		}
	}

	return &CallError{Kind: KindUnavailable, Message: "provider request failed", Cause: err}
}

// KindOf returns the failure kind of err, or KindUnavailable when err is
// not a tagged CallError.
func KindOf(err error) FailureKind {
	var callErr *CallError
	if errors.As(err, &callErr) {
		return callErr.Kind
	}
	return KindUnavailable
}

// IsRecoverable reports whether err is a model-call failure that should
// degrade to the deterministic fallback rather than fail the pipeline.
func IsRecoverable(err error) bool {
	var callErr *CallError
	return errors.As(err, &callErr)
}
