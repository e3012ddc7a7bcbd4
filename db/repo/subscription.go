package repo

import (
	"context"

	"github.com/go-errors/errors"
	"github.com/kaytu-io/fulfillment/db/connector"
	"github.com/kaytu-io/fulfillment/db/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrDuplicateSubscription = errors.New("didn't create subscription due to id conflict")

type SubscriptionRepo interface {
	Create(ctx context.Context, m *model.MarketplaceSubscription) error
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (*model.MarketplaceSubscription, error)
	GetByAccountID(ctx context.Context, accountID string) (*model.MarketplaceSubscription, error)
	List(ctx context.Context) ([]model.MarketplaceSubscription, error)
}

type SubscriptionRepoImpl struct {
	db *connector.Database
}

func NewSubscriptionRepo(db *connector.Database) SubscriptionRepo {
	return &SubscriptionRepoImpl{
		db: db,
	}
}

// Create inserts the binding. The unique index on subscription_id makes
// the insert the linearization point for concurrent bind attempts; the
// losers get ErrDuplicateSubscription.
func (r *SubscriptionRepoImpl) Create(ctx context.Context, m *model.MarketplaceSubscription) error {
	tx := r.db.Conn().WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(m)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected != 1 {
		return ErrDuplicateSubscription
	}
	return nil
}

func (r *SubscriptionRepoImpl) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*model.MarketplaceSubscription, error) {
	var m model.MarketplaceSubscription
	tx := r.db.Conn().WithContext(ctx).
		Model(&model.MarketplaceSubscription{}).
		Where("subscription_id = ?", subscriptionID).
		First(&m)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, tx.Error
	}
	return &m, nil
}

func (r *SubscriptionRepoImpl) GetByAccountID(ctx context.Context, accountID string) (*model.MarketplaceSubscription, error) {
	var m model.MarketplaceSubscription
	tx := r.db.Conn().WithContext(ctx).
		Model(&model.MarketplaceSubscription{}).
		Where("account_id = ?", accountID).
		First(&m)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, tx.Error
	}
	return &m, nil
}

func (r *SubscriptionRepoImpl) List(ctx context.Context) ([]model.MarketplaceSubscription, error) {
	var ms []model.MarketplaceSubscription
	tx := r.db.Conn().WithContext(ctx).
		Model(&model.MarketplaceSubscription{}).
		Order("id ASC").
		Find(&ms)
	if tx.Error != nil {
		return nil, tx.Error
	}
	return ms, nil
}
