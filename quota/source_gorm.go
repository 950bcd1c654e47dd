package quota

import (
	"context"
	"fmt"

	"github.com/KOMKZ/go-yogan-quota/model"
	"gorm.io/gorm"
)

// GormSubscriptionSource reads subscriptions with their plans from the database
type GormSubscriptionSource struct {
	db *gorm.DB
}

// NewGormSubscriptionSource creates the source
func NewGormSubscriptionSource(db *gorm.DB) *GormSubscriptionSource {
	return &GormSubscriptionSource{db: db}
}

// ListSubscriptions returns the active-flagged subscriptions of groupID
func (s *GormSubscriptionSource) ListSubscriptions(ctx context.Context, groupID uint64) ([]model.Subscription, error) {
	var subs []model.Subscription
	err := s.db.WithContext(ctx).
		Preload("SubscriptionPlan").
		Where("group_id = ? AND active = ?", groupID, true).
		Order("id").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("list subscriptions of group %d: %w", groupID, err)
	}
	return subs, nil
}
