package volume

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-quota/model"
	"gorm.io/gorm"
)

// GormRecordStore events and notifications in the database
type GormRecordStore struct {
	db *gorm.DB
}

var _ RecordStore = (*GormRecordStore)(nil)

// NewGormRecordStore creates the store
func NewGormRecordStore(db *gorm.DB) *GormRecordStore {
	return &GormRecordStore{db: db}
}

func recordModel(kind Kind) (interface{}, string, error) {
	switch kind {
	case KindEvent:
		return &model.Event{}, "event_at", nil
	case KindNotification:
		return &model.Notification{}, "attempted_at", nil
	default:
		return nil, "", fmt.Errorf("volume: unknown record kind %q", kind)
	}
}

// Count records of kind owned by groupID
func (s *GormRecordStore) Count(ctx context.Context, kind Kind, groupID uint64) (int64, error) {
	m, _, err := recordModel(kind)
	if err != nil {
		return 0, err
	}
	var count int64
	err = s.db.WithContext(ctx).Model(m).Where("group_id = ?", groupID).Count(&count).Error
	return count, err
}

// DeleteOldest deletes by timestamp then id. Notifications pointing at an
// evicted event lose the reference. Concurrent creates for one group each
// evict their own excess, so the group may briefly settle below quota.
func (s *GormRecordStore) DeleteOldest(ctx context.Context, kind Kind, groupID uint64, n int64, keepID uint64) (int64, error) {
	m, tsCol, err := recordModel(kind)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, nil
	}

	var deleted int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint64
		err := tx.Model(m).
			Where("group_id = ? AND id <> ?", groupID, keepID).
			Order(tsCol+" ASC, id ASC").
			Limit(int(n)).
			Pluck("id", &ids).Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if kind == KindEvent {
			err := tx.Model(&model.Notification{}).
				Where("event_id IN ?", ids).
				Update("event_id", nil).Error
			if err != nil {
				return err
			}
		}

		res := tx.Where("id IN ?", ids).Delete(m)
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
