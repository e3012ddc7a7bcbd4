package api

import "time"

// Account is the tenant record owned by the account service. This
// service only ever mutates expiration and license count, and only
// through the account service's update endpoints.
type Account struct {
	ID                  string    `json:"id"`
	CompanyName         string    `json:"companyName"`
	ExpirationDate      time.Time `json:"expirationDate"`
	MaxNumberOfLicenses int64     `json:"maxNumberOfLicenses"`
}

type DomainMapping struct {
	AccountID string `json:"accountId"`
	Domain    string `json:"domain"`
}

type UpdateExpirationRequest struct {
	ExpirationDate time.Time `json:"expirationDate"`
}

type UpdateMaxLicensesRequest struct {
	MaxNumberOfLicenses int64 `json:"maxNumberOfLicenses"`
}
