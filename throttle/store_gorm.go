package throttle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KOMKZ/go-yogan-quota/model"
	"github.com/KOMKZ/go-yogan-quota/retry"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCounterStore counter kept on the GroupInfo row, locked FOR UPDATE per call
type GormCounterStore struct {
	db        *gorm.DB
	retryOpts []retry.Option
}

var _ CounterStore = (*GormCounterStore)(nil)

// NewGormCounterStore creates the store. Lock conflicts are retried with opts
// on top of a default of 5 attempts with exponential backoff from 20ms.
func NewGormCounterStore(db *gorm.DB, opts ...retry.Option) *GormCounterStore {
	defaults := []retry.Option{
		retry.MaxAttempts(5),
		retry.Backoff(retry.ExponentialBackoff(20 * time.Millisecond)),
		retry.Condition(retry.RetryOnLockConflict()),
	}
	return &GormCounterStore{db: db, retryOpts: append(defaults, opts...)}
}

// Consume runs the read-check-increment in one transaction holding the row lock
func (s *GormCounterStore) Consume(ctx context.Context, groupID uint64, now time.Time, limit *int64) (Decision, error) {
	decision, err := retry.DoWithData(ctx, func() (Decision, error) {
		return s.consumeOnce(ctx, groupID, now, limit)
	}, s.retryOpts...)
	if err != nil {
		return Decision{}, fmt.Errorf("consume api credit of group %d: %w", groupID, err)
	}
	return decision, nil
}

func (s *GormCounterStore) consumeOnce(ctx context.Context, groupID uint64, now time.Time, limit *int64) (Decision, error) {
	var decision Decision
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		info, err := lockGroupInfo(tx, groupID)
		if err != nil {
			return err
		}

		state := Usage{Used: info.APICreditsUsedCurrentMonth, LastUsedAt: info.APILastUsedAt}
		next, d := ApplyCredit(state, now, limit)
		decision = d
		if !d.Allowed {
			return nil
		}

		return tx.Model(&model.GroupInfo{}).
			Where("id = ?", info.ID).
			Updates(map[string]interface{}{
				"api_credits_used_current_month": next.Used,
				"api_last_used_at":               next.LastUsedAt,
			}).Error
	})
	return decision, err
}

// lockGroupInfo selects the row FOR UPDATE, creating it on first use
func lockGroupInfo(tx *gorm.DB, groupID uint64) (*model.GroupInfo, error) {
	var info model.GroupInfo
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("group_id = ?", groupID).
		Take(&info).Error
	if err == nil {
		return &info, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "group_id"}},
		DoNothing: true,
	}).Create(&model.GroupInfo{GroupID: groupID}).Error
	if err != nil {
		return nil, err
	}

	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("group_id = ?", groupID).
		Take(&info).Error
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// Usage stored counter of groupID
func (s *GormCounterStore) Usage(ctx context.Context, groupID uint64) (Usage, error) {
	var info model.GroupInfo
	err := s.db.WithContext(ctx).Where("group_id = ?", groupID).Take(&info).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Usage{}, nil
	}
	if err != nil {
		return Usage{}, err
	}
	return Usage{Used: info.APICreditsUsedCurrentMonth, LastUsedAt: info.APILastUsedAt}, nil
}
