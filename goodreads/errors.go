package goodreads

import (
	"errors"
	"fmt"
)

// ErrAuthentication indicates the login form was rejected.
type ErrAuthentication struct {
	Err error
}

func (e ErrAuthentication) Error() string {
	return fmt.Errorf("authentication: %w", e.Err).Error()
}

func (e ErrAuthentication) Unwrap() error {
	return e.Err
}

// ErrLookup indicates the book or edition could not be located.
type ErrLookup struct {
	Err error
}

func (e ErrLookup) Error() string {
	return fmt.Errorf("lookup: %w", e.Err).Error()
}

func (e ErrLookup) Unwrap() error {
	return e.Err
}

// ErrUIState indicates an expected element was absent or a bounded wait
// timed out during a workflow step.
type ErrUIState struct {
	Step string
	Err  error
}

func (e ErrUIState) Error() string {
	return fmt.Errorf("ui state (%s): %w", e.Step, e.Err).Error()
}

func (e ErrUIState) Unwrap() error {
	return e.Err
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var auth ErrAuthentication
	if errors.As(err, &auth) {
		return "authentication"
	}
	var lookup ErrLookup
	if errors.As(err, &lookup) {
		return "lookup"
	}
	var uiState ErrUIState
	if errors.As(err, &uiState) {
		return "ui_state"
	}
	return "other"
}
