package model

import (
	"time"
)

// MarketplaceSubscription binds a marketplace subscription id to an
// internal account. A subscription maps to exactly one account, ever;
// the unique index is what rejects the losing side of a racing double
// bind. Rows are immutable once created.
type MarketplaceSubscription struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time

	SubscriptionID string `gorm:"uniqueIndex"`
	AccountID      string `gorm:"index"`
}
