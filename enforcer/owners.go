package enforcer

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-quota/history"
	"github.com/KOMKZ/go-yogan-quota/model"
	"gorm.io/gorm"
)

// OwnerSource lists every task and workflow subject to history retention
type OwnerSource interface {
	ListOwners(ctx context.Context) ([]history.Owner, error)
}

// GormOwnerSource reads owners from the tasks and workflows tables
type GormOwnerSource struct {
	db *gorm.DB
}

// NewGormOwnerSource creates the source
func NewGormOwnerSource(db *gorm.DB) *GormOwnerSource {
	return &GormOwnerSource{db: db}
}

type ownerRow struct {
	ID      uint64
	GroupID uint64
}

// ListOwners tasks first, then workflows, each ordered by id
func (s *GormOwnerSource) ListOwners(ctx context.Context) ([]history.Owner, error) {
	var tasks, workflows []ownerRow
	db := s.db.WithContext(ctx)

	if err := db.Model(&model.Task{}).Select("id", "group_id").Order("id").Scan(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	if err := db.Model(&model.Workflow{}).Select("id", "group_id").Order("id").Scan(&workflows).Error; err != nil {
		return nil, fmt.Errorf("list workflows: %w", err)
	}

	owners := make([]history.Owner, 0, len(tasks)+len(workflows))
	for _, r := range tasks {
		owners = append(owners, history.Owner{Kind: history.OwnerTask, ID: r.ID, GroupID: r.GroupID})
	}
	for _, r := range workflows {
		owners = append(owners, history.Owner{Kind: history.OwnerWorkflow, ID: r.ID, GroupID: r.GroupID})
	}
	return owners, nil
}
