package errcode

import "net/http"

// Module codes
const (
	ModuleCommon = 10
	ModuleQuota  = 20
)

var (
	// ErrValidation request or configuration failed validation
	ErrValidation = Register(New(ModuleCommon, 1010, "common", "error.common.validation_failed",
		"validation failed", http.StatusBadRequest))

	// ErrAPICreditsExhausted the group used every API credit of the current month
	ErrAPICreditsExhausted = Register(New(ModuleQuota, 1, "quota", "error.quota.api_credits_exhausted",
		"API credit quota exhausted for the current month", http.StatusTooManyRequests))

	// ErrQuotaStore the quota counter store failed
	ErrQuotaStore = Register(New(ModuleQuota, 2, "quota", "error.quota.store_failed",
		"quota store unavailable", http.StatusServiceUnavailable))
)
