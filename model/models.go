// Package model holds the gorm entities read and written by the quota engines
package model

import (
	"time"

	"gorm.io/gorm"
)

// Group owning scope of tasks, workflows, events and subscriptions
type Group struct {
	ID        uint64 `gorm:"primaryKey"`
	Name      string `gorm:"size:200;not null"`
	CreatedAt time.Time
}

// GroupInfo per-group API credit counter
type GroupInfo struct {
	ID                         uint64     `gorm:"primaryKey"`
	GroupID                    uint64     `gorm:"uniqueIndex;not null"`
	APICreditsUsedCurrentMonth int64      `gorm:"column:api_credits_used_current_month;not null;default:0"`
	APILastUsedAt              *time.Time `gorm:"column:api_last_used_at"`
}

// Task scheduled or ad-hoc job
type Task struct {
	ID        uint64 `gorm:"primaryKey"`
	GroupID   uint64 `gorm:"index;not null"`
	Name      string `gorm:"size:200;not null"`
	CreatedAt time.Time
}

// Workflow multi-step pipeline
type Workflow struct {
	ID        uint64 `gorm:"primaryKey"`
	GroupID   uint64 `gorm:"index;not null"`
	Name      string `gorm:"size:200;not null"`
	CreatedAt time.Time
}

// TaskExecution one run of a Task
type TaskExecution struct {
	ID         uint64          `gorm:"primaryKey"`
	TaskID     uint64          `gorm:"index;not null"`
	Status     ExecutionStatus `gorm:"size:40;index;not null"`
	StartedAt  time.Time       `gorm:"index;not null"`
	FinishedAt *time.Time      `gorm:"index"`
}

// WorkflowExecution one run of a Workflow
type WorkflowExecution struct {
	ID         uint64          `gorm:"primaryKey"`
	WorkflowID uint64          `gorm:"index;not null"`
	Status     ExecutionStatus `gorm:"size:40;index;not null"`
	StartedAt  time.Time       `gorm:"index;not null"`
	FinishedAt *time.Time      `gorm:"index"`
}

// Event something that happened to a group, optionally tied to an execution
type Event struct {
	ID                  uint64    `gorm:"primaryKey"`
	GroupID             uint64    `gorm:"index;not null"`
	EventAt             time.Time `gorm:"index;not null"`
	Severity            string    `gorm:"size:20"`
	Summary             string    `gorm:"size:1000"`
	TaskExecutionID     *uint64   `gorm:"index"`
	WorkflowExecutionID *uint64   `gorm:"index"`
}

// Notification delivery attempt for an event
type Notification struct {
	ID          uint64    `gorm:"primaryKey"`
	GroupID     uint64    `gorm:"index;not null"`
	AttemptedAt time.Time `gorm:"index;not null"`
	EventID     *uint64   `gorm:"index"`
	Channel     string    `gorm:"size:50"`
}

// Alert raised for an execution
type Alert struct {
	ID                  uint64  `gorm:"primaryKey"`
	TaskExecutionID     *uint64 `gorm:"index"`
	WorkflowExecutionID *uint64 `gorm:"index"`
	CreatedAt           time.Time
}

// AutoMigrate creates or updates every table
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&Group{},
		&GroupInfo{},
		&SubscriptionPlan{},
		&Subscription{},
		&Task{},
		&Workflow{},
		&TaskExecution{},
		&WorkflowExecution{},
		&Event{},
		&Notification{},
		&Alert{},
	)
}
