package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"
)

func TestWrapCallError_Classification(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected FailureKind
	}{
		{"deadline exceeded", context.DeadlineExceeded, KindTimeout},
		{"cancelled", context.Canceled, KindTimeout},
		{"unauthorized", &googleapi.Error{Code: http.StatusUnauthorized}, KindAuth},
		{"forbidden", &googleapi.Error{Code: http.StatusForbidden}, KindAuth},
		{"quota exhausted", &googleapi.Error{Code: http.StatusTooManyRequests}, KindAuth},
		{"server error", &googleapi.Error{Code: http.StatusInternalServerError}, KindUnavailable},
		{"plain transport error", errors.New("connection refused"), KindUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := WrapCallError(tt.err)
			require.Error(t, wrapped)

			var callErr *CallError
			require.ErrorAs(t, wrapped, &callErr)
			assert.Equal(t, tt.expected, callErr.Kind)
			assert.Equal(t, tt.expected, KindOf(wrapped))
		})
	}
}

func TestWrapCallError_Passthrough(t *testing.T) {
	original := &CallError{Kind: KindMalformed, Message: "bad JSON"}
	assert.Same(t, original, WrapCallError(original).(*CallError))
	assert.Nil(t, WrapCallError(nil))
}

func TestWrapCallError_WrappedCause(t *testing.T) {
	cause := fmt.Errorf("rpc failed: %w", context.DeadlineExceeded)
	wrapped := WrapCallError(cause)

	assert.Equal(t, KindTimeout, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, context.DeadlineExceeded)
}

func TestIsRecoverable(t *testing.T) {
	assert.True(t, IsRecoverable(&CallError{Kind: KindAuth, Message: "no key"}))
	assert.True(t, IsRecoverable(fmt.Errorf("judge: %w", &CallError{Kind: KindTimeout})))
	assert.False(t, IsRecoverable(errors.New("unrelated")))
}
