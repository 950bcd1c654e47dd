package model

import "time"

// SubscriptionPlan quota set sold as a plan. A NULL column means unlimited.
type SubscriptionPlan struct {
	ID   uint64 `gorm:"primaryKey"`
	Name string `gorm:"size:100;not null"`

	MaxUsers                         *int64
	MaxAPIKeys                       *int64 `gorm:"column:max_api_keys"`
	MaxAPICreditsPerMonth            *int64 `gorm:"column:max_api_credits_per_month"`
	MaxTasks                         *int64
	MaxTaskExecutionConcurrency      *int64
	MaxTaskExecutionHistoryItems     *int64
	MaxWorkflows                     *int64
	MaxWorkflowExecutionConcurrency  *int64
	MaxWorkflowTaskInstances         *int64
	MaxWorkflowExecutionHistoryItems *int64
	MaxAlertsPerDay                  *int64
	MaxEvents                        *int64
	MaxNotifications                 *int64
}

// Subscription binds a plan to a group for a period
type Subscription struct {
	ID                 uint64 `gorm:"primaryKey"`
	GroupID            uint64 `gorm:"index;not null"`
	SubscriptionPlanID uint64 `gorm:"index;not null"`
	SubscriptionPlan   *SubscriptionPlan
	Active             bool      `gorm:"not null"`
	StartAt            time.Time `gorm:"not null"`
	EndAt              *time.Time
}

// IsActiveAt active flag set, started at or before now, not yet ended
func (s Subscription) IsActiveAt(now time.Time) bool {
	if !s.Active || s.StartAt.After(now) {
		return false
	}
	return s.EndAt == nil || s.EndAt.After(now)
}
