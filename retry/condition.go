package retry

import (
	"errors"
	"strings"
)

// RetryCondition decides whether err on attempt should be retried
type RetryCondition interface {
	ShouldRetry(err error, attempt int) bool
}

type alwaysRetry struct{}

// AlwaysRetry retries every error
func AlwaysRetry() RetryCondition {
	return alwaysRetry{}
}

func (alwaysRetry) ShouldRetry(err error, attempt int) bool {
	return err != nil
}

type neverRetry struct{}

// NeverRetry fails on the first error
func NeverRetry() RetryCondition {
	return neverRetry{}
}

func (neverRetry) ShouldRetry(error, int) bool {
	return false
}

type retryOnErrors struct {
	targets []error
}

// RetryOnErrors retries errors matching one of targets with errors.Is
func RetryOnErrors(targets ...error) RetryCondition {
	return &retryOnErrors{targets: targets}
}

func (c *retryOnErrors) ShouldRetry(err error, attempt int) bool {
	for _, target := range c.targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type retryOnCondition struct {
	fn func(error) bool
}

// RetryOnCondition retries when fn returns true
func RetryOnCondition(fn func(error) bool) RetryCondition {
	return &retryOnCondition{fn: fn}
}

func (c *retryOnCondition) ShouldRetry(err error, attempt int) bool {
	return err != nil && c.fn(err)
}

// lock and serialization failures of the supported SQL drivers
var lockConflictMarkers = []string{
	"database is locked",         // sqlite
	"database table is locked",   // sqlite
	"deadlock found",             // mysql 1213
	"lock wait timeout exceeded", // mysql 1205
	"could not serialize access", // postgres 40001
	"deadlock detected",          // postgres 40P01
	"sqlstate 40001",
	"sqlstate 40p01",
}

// IsLockConflict reports whether err is a transient row lock or serialization failure
func IsLockConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, marker := range lockConflictMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// RetryOnLockConflict retries transient lock and serialization failures only
func RetryOnLockConflict() RetryCondition {
	return RetryOnCondition(IsLockConflict)
}

type orCondition struct {
	conditions []RetryCondition
}

// Or retries when any condition does
func Or(conditions ...RetryCondition) RetryCondition {
	return &orCondition{conditions: conditions}
}

func (c *orCondition) ShouldRetry(err error, attempt int) bool {
	for _, cond := range c.conditions {
		if cond.ShouldRetry(err, attempt) {
			return true
		}
	}
	return false
}
