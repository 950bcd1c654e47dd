// Package throttle meters billable API calls against the monthly credit quota of a group.
package throttle

import "time"

// Usage monthly counter of one group
type Usage struct {
	Used       int64
	LastUsedAt *time.Time
}

// Decision outcome of one billable call
type Decision struct {
	Allowed bool
	// Used credits of the current month after the call
	Used int64
	// Limit nil when unlimited
	Limit *int64
	// RetryAt first instant the call may succeed again; zero when allowed
	RetryAt time.Time
}

// ApplyCredit charges one credit at now against limit.
// A counter last touched in another calendar month counts as zero. A rejected
// call returns state unchanged. A nil limit always allows and still counts.
// Months are UTC calendar months.
func ApplyCredit(state Usage, now time.Time, limit *int64) (Usage, Decision) {
	used := state.Used
	if state.LastUsedAt == nil || !SamePeriod(*state.LastUsedAt, now) {
		used = 0
	}

	if limit != nil && used >= *limit {
		return state, Decision{
			Allowed: false,
			Used:    used,
			Limit:   limit,
			RetryAt: NextPeriodStart(now),
		}
	}

	at := now
	next := Usage{Used: used + 1, LastUsedAt: &at}
	return next, Decision{Allowed: true, Used: next.Used, Limit: limit}
}

// SamePeriod reports whether a and b fall in the same UTC year and month
func SamePeriod(a, b time.Time) bool {
	return PeriodKey(a) == PeriodKey(b)
}

// PeriodKey months since year zero, UTC
func PeriodKey(t time.Time) int64 {
	u := t.UTC()
	return int64(u.Year())*12 + int64(u.Month()) - 1
}

// NextPeriodStart first instant of the UTC month after t
func NextPeriodStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month()+1, 1, 0, 0, 0, 0, time.UTC)
}
