package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrInvalidRequest marks a request rejected before any completion call.
var ErrInvalidRequest = errors.New("invalid request")

// CompletionError reports a failed or unusable completion engine call.
type CompletionError struct {
	Provider string
	Err      error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

func NewCompletionError(provider string, err error) *CompletionError {
	return &CompletionError{Provider: provider, Err: err}
}

// TransportError is raised client-side when the call to the analysis server
// fails or comes back with a non-2xx status.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("transport error: %v", e.Err)
	}
	return fmt.Sprintf("server responded %d: %s", e.StatusCode, e.Message)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UserMessage is the short text shown to the user for this failure.
func (e *TransportError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	if e.StatusCode != 0 {
		return http.StatusText(e.StatusCode)
	}
	return "Server unreachable"
}
