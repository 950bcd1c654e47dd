// Package errcode provides hierarchical error codes for user-facing outcomes.
// Code format: MMBBBB (MM = two digit module code, BBBB = four digit business code).
package errcode

import (
	"fmt"
	"net/http"
)

// LayeredError hierarchical error code with HTTP status mapping and context data
type LayeredError struct {
	module     string
	code       int
	msgKey     string
	msg        string
	httpStatus int
	data       map[string]interface{}
	cause      error
}

// New creates a layered error.
// moduleCode: 10-99, businessCode: 0001-9999, httpStatus defaults to 200
func New(moduleCode, businessCode int, module, msgKey, msg string, httpStatus ...int) *LayeredError {
	status := http.StatusOK
	if len(httpStatus) > 0 {
		status = httpStatus[0]
	}
	return &LayeredError{
		module:     module,
		code:       moduleCode*10000 + businessCode,
		msgKey:     msgKey,
		msg:        msg,
		httpStatus: status,
		data:       make(map[string]interface{}),
	}
}

func (e *LayeredError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

// Code full MMBBBB code
func (e *LayeredError) Code() int { return e.code }

// Module module name
func (e *LayeredError) Module() string { return e.module }

// MsgKey message key for translations
func (e *LayeredError) MsgKey() string { return e.msgKey }

// Message default message
func (e *LayeredError) Message() string { return e.msg }

// HTTPStatus mapped HTTP status code
func (e *LayeredError) HTTPStatus() int { return e.httpStatus }

// Data context data attached with WithData / WithFields
func (e *LayeredError) Data() map[string]interface{} { return e.data }

// Unwrap supports errors.Is / errors.As on the cause chain
func (e *LayeredError) Unwrap() error { return e.cause }

// WithMsgf returns a copy with a formatted message
func (e *LayeredError) WithMsgf(format string, args ...interface{}) *LayeredError {
	clone := *e
	clone.msg = fmt.Sprintf(format, args...)
	return &clone
}

// WithData returns a copy with one more context value
func (e *LayeredError) WithData(key string, value interface{}) *LayeredError {
	clone := *e
	clone.data = e.cloneData()
	clone.data[key] = value
	return &clone
}

// WithFields returns a copy with the given context values merged in
func (e *LayeredError) WithFields(fields map[string]interface{}) *LayeredError {
	clone := *e
	clone.data = e.cloneData()
	for k, v := range fields {
		clone.data[k] = v
	}
	return &clone
}

// Wrap returns a copy carrying cause
func (e *LayeredError) Wrap(cause error) *LayeredError {
	if cause == nil {
		return e
	}
	clone := *e
	clone.cause = cause
	return &clone
}

// Is matches any LayeredError with the same code
func (e *LayeredError) Is(target error) bool {
	t, ok := target.(*LayeredError)
	if !ok {
		return false
	}
	return e.code == t.code
}

func (e *LayeredError) cloneData() map[string]interface{} {
	data := make(map[string]interface{}, len(e.data))
	for k, v := range e.data {
		data[k] = v
	}
	return data
}

// String debug representation
func (e *LayeredError) String() string {
	if e.cause != nil {
		return fmt.Sprintf("LayeredError{code:%d, module:%s, msg:%s, cause:%v}", e.code, e.module, e.msg, e.cause)
	}
	return fmt.Sprintf("LayeredError{code:%d, module:%s, msg:%s}", e.code, e.module, e.msg)
}
