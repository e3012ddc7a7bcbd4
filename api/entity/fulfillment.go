package entity

import "time"

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateSetupRequestRequest struct {
	PurchaseIDToken string `json:"purchaseIdToken" validate:"required"`
	FirstName       string `json:"firstName" validate:"required"`
	LastName        string `json:"lastName" validate:"required"`
	Phone           string `json:"phone" validate:"required"`
	CompanyName     string `json:"companyName" validate:"required"`
	CompanySite     string `json:"companySite"`
	Email           string `json:"email" validate:"required,email"`
}

// WebhookRequest is the marketplace webhook payload. Only the operation
// and subscription ids are trusted; everything else is re-fetched from
// the marketplace before acting on it.
type WebhookRequest struct {
	ID             string `json:"id" validate:"required"`
	SubscriptionID string `json:"subscriptionId" validate:"required"`
}

type CreateSubscriptionRequest struct {
	AccountID      string `json:"accountId" validate:"required"`
	SubscriptionID string `json:"subscriptionId" validate:"required"`
}

type Subscription struct {
	ID             uint      `json:"id"`
	CreatedAt      time.Time `json:"createdAt"`
	SubscriptionID string    `json:"subscriptionId"`
	AccountID      string    `json:"accountId"`
}

type SetupRequest struct {
	ID             uint      `json:"id"`
	CreatedAt      time.Time `json:"createdAt"`
	PurchaseToken  string    `json:"purchaseToken"`
	SubscriptionID string    `json:"subscriptionId"`
	OfferID        string    `json:"offerId"`
	PlanID         string    `json:"planId"`
	Quantity       int64     `json:"quantity"`
	FirstName      string    `json:"firstName"`
	LastName       string    `json:"lastName"`
	Phone          string    `json:"phone"`
	CompanyName    string    `json:"companyName"`
	CompanySite    string    `json:"companySite"`
	Email          string    `json:"email"`
}

type PurchaseStateResponse struct {
	SubscriptionID     string        `json:"subscriptionId"`
	OfferID            string        `json:"offerId"`
	PlanID             string        `json:"planId"`
	Quantity           int64         `json:"quantity"`
	SubscriptionStatus string        `json:"subscriptionStatus"`
	SetupRequest       *SetupRequest `json:"setupRequest,omitempty"`
	Linkage            *Subscription `json:"linkage,omitempty"`
	AccountID          string        `json:"accountId,omitempty"`
	AccountCompanyName string        `json:"accountCompanyName,omitempty"`
	AccountDomain      string        `json:"accountDomain,omitempty"`
}

type LifecycleEvent struct {
	ID             uint      `json:"id"`
	CreatedAt      time.Time `json:"createdAt"`
	Action         string    `json:"action"`
	SubscriptionID string    `json:"subscriptionId"`
	OfferID        string    `json:"offerId"`
	PlanID         string    `json:"planId"`
	Quantity       int64     `json:"quantity"`
	OperationID    string    `json:"operationId,omitempty"`
	Status         string    `json:"status,omitempty"`
	Email          string    `json:"email,omitempty"`
	CompanyName    string    `json:"companyName,omitempty"`
}
