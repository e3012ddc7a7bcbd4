package model

import (
	"time"
)

// SetupRequest is a purchase intent captured on marketplace checkout and
// waiting to be bound to an account. Rows are soft-deleted once the
// binding happens so the intake history stays queryable.
//
// The partial unique indexes are the concurrency-safety mechanism for
// intake: two racing inserts for the same live token (or subscription)
// cannot both commit.
type SetupRequest struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	PurchaseToken  string `gorm:"index:idx_setup_requests_token,unique,where:is_deleted = false"`
	TransactableID string
	SubscriptionID string `gorm:"index:idx_setup_requests_subscription,unique,where:is_deleted = false"`
	OfferID        string
	PlanID         string
	TenantID       string
	Quantity       int64

	FirstName   string
	LastName    string
	Phone       string
	CompanyName string
	CompanySite string
	Email       string

	IsDeleted bool `gorm:"index"`
}
