package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is one field value that does not fit its declared kind.
type ValidationError struct {
	Key    string
	Reason string
	Value  any
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("field %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("field %q: %s (got %T)", e.Key, e.Reason, e.Value)
}

// AggregateError collects the failures of one Validate call, sorted by field name.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	parts := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		parts[i] = err.Error()
	}
	return fmt.Sprintf("%d invalid fields: %s", len(e.Errors), strings.Join(parts, "; "))
}

func (e *AggregateError) Unwrap() []error { return e.Errors }

// ValidationErrors returns the individual failures carried by err, or nil.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	var single *ValidationError
	if errors.As(err, &single) {
		return []error{single}
	}
	return nil
}
