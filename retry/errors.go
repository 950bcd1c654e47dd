package retry

import (
	"fmt"
	"strings"
)

// MultiError every failure of a retry run
type MultiError struct {
	Errors   []error
	Attempts int
}

// Error message of the last failure
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "retry failed: no errors"
	}
	return e.Errors[len(e.Errors)-1].Error()
}

// Unwrap exposes the last failure to errors.Is / errors.As
func (e *MultiError) Unwrap() error {
	return e.LastError()
}

// String lists every attempt
func (e *MultiError) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "retry failed after %d attempts:", e.Attempts)
	for i, err := range e.Errors {
		fmt.Fprintf(&b, "\n  attempt %d: %v", i+1, err)
	}
	return b.String()
}

// LastError last failure
func (e *MultiError) LastError() error {
	if len(e.Errors) == 0 {
		return nil
	}
	return e.Errors[len(e.Errors)-1]
}

// GetAttempts attempts made by the run that produced err
func GetAttempts(err error) int {
	if me, ok := err.(*MultiError); ok {
		return me.Attempts
	}
	return 0
}
