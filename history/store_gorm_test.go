package history

import (
	"context"
	"testing"
	"time"

	"github.com/KOMKZ/go-yogan-quota/logger"
	"github.com/KOMKZ/go-yogan-quota/model"
	"github.com/KOMKZ/go-yogan-quota/quota"
	"github.com/KOMKZ/go-yogan-quota/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormExecutionStore_CalibrationScenario(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	h := testutil.NewDBHelper(t, db)

	g := h.CreateGroup("acme")
	task := h.CreateTask(g.ID, "nightly")
	neighbour := h.CreateTask(g.ID, "hourly")

	now := time.Now().UTC()
	for i := 0; i < 3; i++ {
		h.CompletedTaskExecution(task.ID, now.Add(-time.Duration(i)*time.Minute))
	}
	var running []uint64
	for i := 0; i < 5; i++ {
		running = append(running, h.RunningTaskExecution(task.ID, now.Add(-time.Duration(i)*time.Minute)).ID)
	}
	h.CompletedTaskExecution(neighbour.ID, now.Add(-time.Hour))

	engine := NewEngine(NewGormExecutionStore(db), fixedResolver{}, logger.NewTestCtxLogger())
	owner := Owner{Kind: OwnerTask, ID: task.ID, GroupID: g.ID}

	purged, err := engine.Purge(context.Background(), owner, quota.Int64(4), 1, Unbounded)
	require.NoError(t, err)
	assert.Equal(t, 3, purged)

	assert.Equal(t, int64(5), h.CountWhere(&model.TaskExecution{}, "task_id = ?", task.ID))
	for _, id := range running {
		assert.True(t, h.Exists(&model.TaskExecution{}, id))
	}
	assert.Equal(t, int64(1), h.CountWhere(&model.TaskExecution{}, "task_id = ?", neighbour.ID))
}

func TestGormExecutionStore_Ordering(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	h := testutil.NewDBHelper(t, db)
	g := h.CreateGroup("acme")
	wf := h.CreateWorkflow(g.ID, "etl")

	now := time.Now().UTC()
	newest := h.CompletedWorkflowExecution(wf.ID, now)
	oldest := h.CompletedWorkflowExecution(wf.ID, now.Add(-2*time.Hour))
	middle := h.CompletedWorkflowExecution(wf.ID, now.Add(-time.Hour))
	late := h.RunningWorkflowExecution(wf.ID, now.Add(-time.Minute))
	early := h.RunningWorkflowExecution(wf.ID, now.Add(-3*time.Hour))

	store := NewGormExecutionStore(db)
	owner := Owner{Kind: OwnerWorkflow, ID: wf.ID, GroupID: g.ID}

	completed, err := store.ListCompleted(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, completed, 3)
	assert.Equal(t, []uint64{oldest.ID, middle.ID, newest.ID},
		[]uint64{completed[0].ID, completed[1].ID, completed[2].ID})
	require.NotNil(t, completed[0].FinishedAt)

	inProgress, err := store.ListInProgress(context.Background(), owner)
	require.NoError(t, err)
	require.Len(t, inProgress, 2)
	assert.Equal(t, early.ID, inProgress[0].ID)
	assert.Equal(t, late.ID, inProgress[1].ID)
	assert.Equal(t, model.StatusRunning, inProgress[0].Status)
}

func TestGormExecutionStore_DeleteCascades(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	h := testutil.NewDBHelper(t, db)
	g := h.CreateGroup("acme")
	task := h.CreateTask(g.ID, "nightly")

	now := time.Now().UTC()
	doomed := h.CompletedTaskExecution(task.ID, now.Add(-time.Hour))
	kept := h.CompletedTaskExecution(task.ID, now)

	h.Seed(&model.Alert{TaskExecutionID: &doomed.ID})
	doomedEvent := &model.Event{GroupID: g.ID, EventAt: now, TaskExecutionID: &doomed.ID}
	keptEvent := &model.Event{GroupID: g.ID, EventAt: now, TaskExecutionID: &kept.ID}
	h.Seed(doomedEvent)
	h.Seed(keptEvent)
	detached := &model.Notification{GroupID: g.ID, AttemptedAt: now, EventID: &doomedEvent.ID}
	untouched := &model.Notification{GroupID: g.ID, AttemptedAt: now, EventID: &keptEvent.ID}
	h.Seed(detached)
	h.Seed(untouched)

	store := NewGormExecutionStore(db)
	owner := Owner{Kind: OwnerTask, ID: task.ID, GroupID: g.ID}
	require.NoError(t, store.Delete(context.Background(), owner, doomed.ID))

	assert.False(t, h.Exists(&model.TaskExecution{}, doomed.ID))
	assert.Zero(t, h.CountWhere(&model.Alert{}, "task_execution_id = ?", doomed.ID))
	assert.Zero(t, h.CountWhere(&model.Event{}, "task_execution_id = ?", doomed.ID))
	assert.Equal(t, int64(1), h.CountWhere(&model.Event{}, "task_execution_id = ?", kept.ID))

	var n model.Notification
	require.NoError(t, db.First(&n, detached.ID).Error)
	assert.Nil(t, n.EventID)
	require.NoError(t, db.First(&n, untouched.ID).Error)
	require.NotNil(t, n.EventID)
	assert.Equal(t, keptEvent.ID, *n.EventID)
}

func TestGormExecutionStore_DeleteOtherOwnerIsNotFound(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	h := testutil.NewDBHelper(t, db)
	g := h.CreateGroup("acme")
	mine := h.CreateTask(g.ID, "mine")
	theirs := h.CreateTask(g.ID, "theirs")

	exec := h.CompletedTaskExecution(theirs.ID, time.Now().UTC())
	h.Seed(&model.Alert{TaskExecutionID: &exec.ID})

	store := NewGormExecutionStore(db)
	err := store.Delete(context.Background(), Owner{Kind: OwnerTask, ID: mine.ID}, exec.ID)
	assert.ErrorIs(t, err, ErrExecutionNotFound)

	assert.True(t, h.Exists(&model.TaskExecution{}, exec.ID))
	assert.Equal(t, int64(1), h.CountWhere(&model.Alert{}, "task_execution_id = ?", exec.ID))
}

func TestGormExecutionStore_UnknownKind(t *testing.T) {
	store := NewGormExecutionStore(testutil.NewSQLiteDB(t))
	_, err := store.ListCompleted(context.Background(), Owner{Kind: "pipeline", ID: 1})
	assert.Error(t, err)
}
