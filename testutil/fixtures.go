package testutil

import (
	"time"

	"github.com/KOMKZ/go-yogan-quota/model"
)

// CreateGroup inserts a group
func (h *DBHelper) CreateGroup(name string) *model.Group {
	g := &model.Group{Name: name}
	h.Seed(g)
	return g
}

// CreatePlan inserts a plan
func (h *DBHelper) CreatePlan(plan *model.SubscriptionPlan) *model.SubscriptionPlan {
	h.Seed(plan)
	return plan
}

// Subscribe inserts an open-ended active subscription starting at start
func (h *DBHelper) Subscribe(groupID uint64, plan *model.SubscriptionPlan, start time.Time) *model.Subscription {
	sub := &model.Subscription{
		GroupID:            groupID,
		SubscriptionPlanID: plan.ID,
		Active:             true,
		StartAt:            start,
	}
	h.Seed(sub)
	return sub
}

// CreateTask inserts a task
func (h *DBHelper) CreateTask(groupID uint64, name string) *model.Task {
	task := &model.Task{GroupID: groupID, Name: name}
	h.Seed(task)
	return task
}

// CreateWorkflow inserts a workflow
func (h *DBHelper) CreateWorkflow(groupID uint64, name string) *model.Workflow {
	wf := &model.Workflow{GroupID: groupID, Name: name}
	h.Seed(wf)
	return wf
}

// CompletedTaskExecution inserts a task execution that finished at finishedAt
func (h *DBHelper) CompletedTaskExecution(taskID uint64, finishedAt time.Time) *model.TaskExecution {
	te := &model.TaskExecution{
		TaskID:     taskID,
		Status:     model.StatusSucceeded,
		StartedAt:  finishedAt.Add(-time.Minute),
		FinishedAt: &finishedAt,
	}
	h.Seed(te)
	return te
}

// RunningTaskExecution inserts an in-progress task execution
func (h *DBHelper) RunningTaskExecution(taskID uint64, startedAt time.Time) *model.TaskExecution {
	te := &model.TaskExecution{
		TaskID:    taskID,
		Status:    model.StatusRunning,
		StartedAt: startedAt,
	}
	h.Seed(te)
	return te
}

// CompletedWorkflowExecution inserts a workflow execution that finished at finishedAt
func (h *DBHelper) CompletedWorkflowExecution(workflowID uint64, finishedAt time.Time) *model.WorkflowExecution {
	we := &model.WorkflowExecution{
		WorkflowID: workflowID,
		Status:     model.StatusFailed,
		StartedAt:  finishedAt.Add(-time.Minute),
		FinishedAt: &finishedAt,
	}
	h.Seed(we)
	return we
}

// RunningWorkflowExecution inserts an in-progress workflow execution
func (h *DBHelper) RunningWorkflowExecution(workflowID uint64, startedAt time.Time) *model.WorkflowExecution {
	we := &model.WorkflowExecution{
		WorkflowID: workflowID,
		Status:     model.StatusRunning,
		StartedAt:  startedAt,
	}
	h.Seed(we)
	return we
}
