package history

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-quota/model"
	"gorm.io/gorm"
)

// GormExecutionStore serves task and workflow executions from the database
type GormExecutionStore struct {
	db *gorm.DB
}

var _ ExecutionStore = (*GormExecutionStore)(nil)

// NewGormExecutionStore creates the store
func NewGormExecutionStore(db *gorm.DB) *GormExecutionStore {
	return &GormExecutionStore{db: db}
}

// table layout of one owner kind
type ownerTable struct {
	model    interface{}
	ownerCol string
	depCol   string // column referencing the execution on events and alerts
}

func tableFor(kind OwnerKind) (ownerTable, error) {
	switch kind {
	case OwnerTask:
		return ownerTable{model: &model.TaskExecution{}, ownerCol: "task_id", depCol: "task_execution_id"}, nil
	case OwnerWorkflow:
		return ownerTable{model: &model.WorkflowExecution{}, ownerCol: "workflow_id", depCol: "workflow_execution_id"}, nil
	default:
		return ownerTable{}, fmt.Errorf("history: unknown owner kind %q", kind)
	}
}

// ListCompleted completed executions by finished_at, then id
func (s *GormExecutionStore) ListCompleted(ctx context.Context, owner Owner) ([]Execution, error) {
	return s.list(ctx, owner, model.CompletedStatuses(), "finished_at ASC, id ASC")
}

// ListInProgress in-progress executions by started_at, then id
func (s *GormExecutionStore) ListInProgress(ctx context.Context, owner Owner) ([]Execution, error) {
	return s.list(ctx, owner, model.InProgressStatuses(), "started_at ASC, id ASC")
}

func (s *GormExecutionStore) list(ctx context.Context, owner Owner, statuses []model.ExecutionStatus, order string) ([]Execution, error) {
	t, err := tableFor(owner.Kind)
	if err != nil {
		return nil, err
	}

	var rows []Execution
	err = s.db.WithContext(ctx).
		Model(t.model).
		Select("id", "status", "started_at", "finished_at").
		Where(t.ownerCol+" = ? AND status IN ?", owner.ID, statuses).
		Order(order).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes alerts, events and the execution row in one transaction.
// Notifications of the removed events lose the reference.
func (s *GormExecutionStore) Delete(ctx context.Context, owner Owner, id uint64) error {
	t, err := tableFor(owner.Kind)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(t.depCol+" = ?", id).Delete(&model.Alert{}).Error; err != nil {
			return fmt.Errorf("delete alerts: %w", err)
		}
		err := tx.Model(&model.Notification{}).
			Where("event_id IN (?)", tx.Model(&model.Event{}).Select("id").Where(t.depCol+" = ?", id)).
			Update("event_id", nil).Error
		if err != nil {
			return fmt.Errorf("detach notifications: %w", err)
		}
		if err := tx.Where(t.depCol+" = ?", id).Delete(&model.Event{}).Error; err != nil {
			return fmt.Errorf("delete events: %w", err)
		}

		res := tx.Where("id = ? AND "+t.ownerCol+" = ?", id, owner.ID).Delete(t.model)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrExecutionNotFound
		}
		return nil
	})
}
