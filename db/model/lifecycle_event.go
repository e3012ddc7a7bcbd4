package model

import (
	"time"

	"github.com/kaytu-io/fulfillment/azure/entities"
)

type EventAction string

const (
	EventActionInit           EventAction = "Init"
	EventActionReinstate      EventAction = EventAction(entities.OperationActionReinstate)
	EventActionChangePlan     EventAction = EventAction(entities.OperationActionChangePlan)
	EventActionChangeQuantity EventAction = EventAction(entities.OperationActionChangeQuantity)
	EventActionSuspend        EventAction = EventAction(entities.OperationActionSuspend)
	EventActionUnsubscribe    EventAction = EventAction(entities.OperationActionUnsubscribe)
)

// LifecycleEvent is one row of the append-only audit log. Rows come in
// two shapes sharing the Action discriminant: Init rows mirror a setup
// request, operation rows mirror a marketplace operation. Rows are never
// updated or deleted; insertion order is the only ordering.
type LifecycleEvent struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index"`

	Action EventAction `gorm:"index"`

	// shared by both shapes
	SubscriptionID string `gorm:"index"`
	OfferID        string
	PlanID         string
	Quantity       int64

	// Init shape
	PurchaseToken  string
	TransactableID string
	TenantID       string
	FirstName      string
	LastName       string
	Phone          string
	CompanyName    string
	CompanySite    string
	Email          string

	// operation shape
	OperationID        string
	ActivityID         string
	PublisherID        string
	OperationTimeStamp string
	Status             string
}

// NewInitEvent derives the Init-shaped event from a freshly persisted
// setup request.
func NewInitEvent(req SetupRequest) LifecycleEvent {
	return LifecycleEvent{
		Action:         EventActionInit,
		SubscriptionID: req.SubscriptionID,
		OfferID:        req.OfferID,
		PlanID:         req.PlanID,
		Quantity:       req.Quantity,
		PurchaseToken:  req.PurchaseToken,
		TransactableID: req.TransactableID,
		TenantID:       req.TenantID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		CompanyName:    req.CompanyName,
		CompanySite:    req.CompanySite,
		Email:          req.Email,
	}
}

// NewOperationEvent derives the operation-shaped event from a
// marketplace operation.
func NewOperationEvent(op entities.Operation) LifecycleEvent {
	return LifecycleEvent{
		Action:             EventAction(op.Action),
		SubscriptionID:     op.SubscriptionID,
		OfferID:            op.OfferID,
		PlanID:             op.PlanID,
		Quantity:           op.Quantity,
		OperationID:        op.ID,
		ActivityID:         op.ActivityID,
		PublisherID:        op.PublisherID,
		OperationTimeStamp: op.TimeStamp,
		Status:             string(op.Status),
	}
}
