package volume

import (
	"context"

	"github.com/KOMKZ/go-yogan-quota/database"
	"github.com/KOMKZ/go-yogan-quota/model"
	"gorm.io/gorm"
)

// EvictionResult outcome of one create call
type EvictionResult struct {
	Kind      Kind
	GroupID   uint64
	CreatedID uint64
	Evicted   int
}

// Writer creation path for events and notifications.
// Every create runs the limiter before returning.
type Writer struct {
	events        *database.BaseRepository[model.Event]
	notifications *database.BaseRepository[model.Notification]
	limiter       *Limiter
}

// NewWriter creates a writer
func NewWriter(db *gorm.DB, limiter *Limiter) *Writer {
	return &Writer{
		events:        database.NewBaseRepository[model.Event](db),
		notifications: database.NewBaseRepository[model.Notification](db),
		limiter:       limiter,
	}
}

// CreateEvent saves event and evicts the group's oldest events over quota
func (w *Writer) CreateEvent(ctx context.Context, event *model.Event) (EvictionResult, error) {
	if err := w.events.Create(ctx, event); err != nil {
		return EvictionResult{}, err
	}
	return w.afterCreate(ctx, KindEvent, event.GroupID, event.ID)
}

// CreateNotification saves n and evicts the group's oldest notifications over quota
func (w *Writer) CreateNotification(ctx context.Context, n *model.Notification) (EvictionResult, error) {
	if err := w.notifications.Create(ctx, n); err != nil {
		return EvictionResult{}, err
	}
	return w.afterCreate(ctx, KindNotification, n.GroupID, n.ID)
}

// Event loads one event, database.ErrRecordNotFound when evicted
func (w *Writer) Event(ctx context.Context, id uint64) (*model.Event, error) {
	return w.events.FindByID(ctx, id)
}

func (w *Writer) afterCreate(ctx context.Context, kind Kind, groupID, id uint64) (EvictionResult, error) {
	res := EvictionResult{Kind: kind, GroupID: groupID, CreatedID: id}
	evicted, err := w.limiter.AfterCreate(ctx, kind, groupID, id)
	res.Evicted = evicted
	return res, err
}
