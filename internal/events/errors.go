package events

import "fmt"

// ValidationError reports malformed or incomplete ingestion input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NewValidationError creates a ValidationError for a field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// QueryParameterError reports a range bound that is missing or cannot be parsed.
type QueryParameterError struct {
	Param string
	Value string
	Err   error
}

func (e *QueryParameterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid query parameter %s=%q: %v", e.Param, e.Value, e.Err)
	}
	return fmt.Sprintf("invalid query parameter %s=%q", e.Param, e.Value)
}

func (e *QueryParameterError) Unwrap() error {
	return e.Err
}

// StorageError reports a store that is unreachable or rejected the operation.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
