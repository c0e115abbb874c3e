package mediawiki

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork classifies connection, timeout and unexpected HTTP status failures.
	ErrNetwork = errors.New("network error")
	// ErrDecode classifies bodies that are not a valid response envelope.
	ErrDecode = errors.New("decode error")
	// ErrMissingField is returned when a page payload lacks the expected content path.
	ErrMissingField = errors.New("missing field")
	// ErrNoTitles is returned by FetchContent for an empty batch.
	ErrNoTitles = errors.New("no titles to fetch")
)

// TransportError wraps a failed API call. Kind is ErrNetwork or ErrDecode.
type TransportError struct {
	Kind       error
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%v (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func networkError(status int, err error) *TransportError {
	return &TransportError{Kind: ErrNetwork, StatusCode: status, Err: err}
}

func decodeError(err error) *TransportError {
	return &TransportError{Kind: ErrDecode, Err: err}
}

// ExtractionError reports the first segment of the content path that was
// absent or of the wrong type in a page payload.
type ExtractionError struct {
	Title string
	Field string
	Err   error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("page %q: missing field %s: %v", e.Title, e.Field, e.Err)
	}
	return fmt.Sprintf("page %q: missing field %s", e.Title, e.Field)
}

func (e *ExtractionError) Is(target error) bool {
	return target == ErrMissingField
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
