package model

// ExecutionStatus status of a task or workflow execution
type ExecutionStatus string

// In-progress statuses
const (
	StatusManuallyStarted ExecutionStatus = "MANUALLY_STARTED"
	StatusStarting        ExecutionStatus = "STARTING"
	StatusRunning         ExecutionStatus = "RUNNING"
	StatusStopping        ExecutionStatus = "STOPPING"
	StatusRetrying        ExecutionStatus = "RETRYING"
)

// Completed statuses
const (
	StatusSucceeded              ExecutionStatus = "SUCCEEDED"
	StatusFailed                 ExecutionStatus = "FAILED"
	StatusTerminatedAfterTimeOut ExecutionStatus = "TERMINATED_AFTER_TIME_OUT"
	StatusMarkedDone             ExecutionStatus = "MARKED_DONE"
	StatusExitedAfterMarkedDone  ExecutionStatus = "EXITED_AFTER_MARKED_DONE"
	StatusAborted                ExecutionStatus = "ABORTED"
	StatusStopped                ExecutionStatus = "STOPPED"
	StatusAbandoned              ExecutionStatus = "ABANDONED"
)

var (
	inProgressStatuses = []ExecutionStatus{
		StatusManuallyStarted, StatusStarting, StatusRunning, StatusStopping, StatusRetrying,
	}
	completedStatuses = []ExecutionStatus{
		StatusSucceeded, StatusFailed, StatusTerminatedAfterTimeOut, StatusMarkedDone,
		StatusExitedAfterMarkedDone, StatusAborted, StatusStopped, StatusAbandoned,
	}
)

// InProgressStatuses returns a copy of the in-progress set
func InProgressStatuses() []ExecutionStatus {
	return append([]ExecutionStatus(nil), inProgressStatuses...)
}

// CompletedStatuses returns a copy of the completed set
func CompletedStatuses() []ExecutionStatus {
	return append([]ExecutionStatus(nil), completedStatuses...)
}

// IsInProgress reports membership in the in-progress set
func (s ExecutionStatus) IsInProgress() bool {
	for _, st := range inProgressStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// IsCompleted reports membership in the completed set
func (s ExecutionStatus) IsCompleted() bool {
	for _, st := range completedStatuses {
		if s == st {
			return true
		}
	}
	return false
}
