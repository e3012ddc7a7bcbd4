package entities

// OperationAction is the lifecycle transition a marketplace operation
// carries.
type OperationAction string

const (
	OperationActionReinstate      OperationAction = "Reinstate"
	OperationActionChangePlan     OperationAction = "ChangePlan"
	OperationActionChangeQuantity OperationAction = "ChangeQuantity"
	OperationActionSuspend        OperationAction = "Suspend"
	OperationActionUnsubscribe    OperationAction = "Unsubscribe"
)

type OperationStatus string

const (
	OperationStatusNotStarted OperationStatus = "NotStarted"
	OperationStatusInProgress OperationStatus = "InProgress"
	OperationStatusSucceeded  OperationStatus = "Succeeded"
	OperationStatusFailed     OperationStatus = "Failed"
	OperationStatusConflict   OperationStatus = "Conflict"
)

type SubscriptionStatus string

const (
	SubscriptionStatusPendingFulfillmentStart SubscriptionStatus = "PendingFulfillmentStart"
	SubscriptionStatusSubscribed              SubscriptionStatus = "Subscribed"
	SubscriptionStatusSuspended               SubscriptionStatus = "Suspended"
	SubscriptionStatusUnsubscribed            SubscriptionStatus = "Unsubscribed"
)

type Purchaser struct {
	TenantID string `json:"tenantId"`
	EmailID  string `json:"emailId"`
	ObjectID string `json:"objectId"`
}

type Subscription struct {
	ID                     string             `json:"id"`
	Name                   string             `json:"name"`
	OfferID                string             `json:"offerId"`
	PlanID                 string             `json:"planId"`
	Quantity               int64              `json:"quantity"`
	SaaSSubscriptionStatus SubscriptionStatus `json:"saasSubscriptionStatus"`
	Purchaser              Purchaser          `json:"purchaser"`
}

// ResolvedPurchase is the marketplace's answer to a purchase token
// resolution call.
type ResolvedPurchase struct {
	ID             string       `json:"id"`
	SubscriptionID string       `json:"subscriptionId"`
	OfferID        string       `json:"offerId"`
	PlanID         string       `json:"planId"`
	Quantity       int64        `json:"quantity"`
	Subscription   Subscription `json:"subscription"`
}

type Operation struct {
	ID             string          `json:"id"`
	ActivityID     string          `json:"activityId"`
	SubscriptionID string          `json:"subscriptionId"`
	OfferID        string          `json:"offerId"`
	PublisherID    string          `json:"publisherId"`
	PlanID         string          `json:"planId"`
	Quantity       int64           `json:"quantity"`
	TimeStamp      string          `json:"timeStamp"`
	Status         OperationStatus `json:"status"`
	Action         OperationAction `json:"action"`
}

type ActivateRequest struct {
	PlanID   string `json:"planId"`
	Quantity int64  `json:"quantity"`
}
