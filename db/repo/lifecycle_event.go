package repo

import (
	"context"

	"github.com/kaytu-io/fulfillment/db/connector"
	"github.com/kaytu-io/fulfillment/db/model"
)

type LifecycleEventRepo interface {
	Append(ctx context.Context, m *model.LifecycleEvent) error
	ListBySubscriptionID(ctx context.Context, subscriptionID string) ([]model.LifecycleEvent, error)
}

type LifecycleEventRepoImpl struct {
	db *connector.Database
}

func NewLifecycleEventRepo(db *connector.Database) LifecycleEventRepo {
	return &LifecycleEventRepoImpl{
		db: db,
	}
}

// Append inserts the event. There is deliberately no conflict handling:
// the log has no uniqueness constraint and every delivery attempt gets
// its own row.
func (r *LifecycleEventRepoImpl) Append(ctx context.Context, m *model.LifecycleEvent) error {
	return r.db.Conn().WithContext(ctx).Create(m).Error
}

func (r *LifecycleEventRepoImpl) ListBySubscriptionID(ctx context.Context, subscriptionID string) ([]model.LifecycleEvent, error) {
	var ms []model.LifecycleEvent
	tx := r.db.Conn().WithContext(ctx).
		Model(&model.LifecycleEvent{}).
		Where("subscription_id = ?", subscriptionID).
		Order("id ASC").
		Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return ms, nil
}
