package repo

import (
	"context"

	"github.com/go-errors/errors"
	"github.com/kaytu-io/fulfillment/db/connector"
	"github.com/kaytu-io/fulfillment/db/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrDuplicateSetupRequest = errors.New("didn't create setup request due to token conflict")

type SetupRequestRepo interface {
	Create(ctx context.Context, m *model.SetupRequest) error
	GetByPurchaseToken(ctx context.Context, purchaseToken string) (*model.SetupRequest, error)
	GetBySubscriptionID(ctx context.Context, subscriptionID string) (*model.SetupRequest, error)
	DeleteBySubscriptionID(ctx context.Context, subscriptionID string) error
}

type SetupRequestRepoImpl struct {
	db *connector.Database
}

func NewSetupRequestRepo(db *connector.Database) SetupRequestRepo {
	return &SetupRequestRepoImpl{
		db: db,
	}
}

func (r *SetupRequestRepoImpl) Create(ctx context.Context, m *model.SetupRequest) error {
	tx := r.db.Conn().WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(m)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected != 1 {
		return ErrDuplicateSetupRequest
	}
	return nil
}

func (r *SetupRequestRepoImpl) GetByPurchaseToken(ctx context.Context, purchaseToken string) (*model.SetupRequest, error) {
	var m model.SetupRequest
	tx := r.db.Conn().WithContext(ctx).
		Model(&model.SetupRequest{}).
		Where("purchase_token = ?", purchaseToken).
		Where("is_deleted = ?", false).
		First(&m)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, tx.Error
	}
	return &m, nil
}

func (r *SetupRequestRepoImpl) GetBySubscriptionID(ctx context.Context, subscriptionID string) (*model.SetupRequest, error) {
	var m model.SetupRequest
	tx := r.db.Conn().WithContext(ctx).
		Model(&model.SetupRequest{}).
		Where("subscription_id = ?", subscriptionID).
		Where("is_deleted = ?", false).
		First(&m)
	if tx.Error != nil {
		if errors.Is(tx.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, tx.Error
	}
	return &m, nil
}

// DeleteBySubscriptionID marks the live setup request for the
// subscription as deleted. The row itself is kept for audit.
func (r *SetupRequestRepoImpl) DeleteBySubscriptionID(ctx context.Context, subscriptionID string) error {
	return r.db.Conn().WithContext(ctx).
		Model(&model.SetupRequest{}).
		Where("subscription_id = ?", subscriptionID).
		Where("is_deleted = ?", false).
		Update("is_deleted", true).Error
}
