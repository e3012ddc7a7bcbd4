package azure

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/kaytu-io/fulfillment/azure/entities"
	"github.com/kaytu-io/fulfillment/pkg/httpclient"
	"github.com/labstack/echo/v4"
)

const (
	DefaultBaseURL    = "https://marketplaceapi.microsoft.com/api"
	DefaultAPIVersion = "2018-08-31"
)

// Client talks to the SaaS fulfillment side of the marketplace API.
type Client interface {
	Resolve(marketplaceToken string) (*entities.ResolvedPurchase, error)
	GetSubscription(subscriptionID string) (*entities.Subscription, error)
	GetOperation(subscriptionID, operationID string) (*entities.Operation, error)
	Activate(subscriptionID, planID string, quantity int64) error
}

type SaaSClient struct {
	baseURL    string
	apiVersion string
	token      string
}

func NewSaaSClient(baseURL, apiVersion, token string) *SaaSClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if apiVersion == "" {
		apiVersion = DefaultAPIVersion
	}
	return &SaaSClient{
		baseURL:    baseURL,
		apiVersion: apiVersion,
		token:      token,
	}
}

func (c *SaaSClient) headers() map[string]string {
	return map[string]string{
		"content-type":  "application/json",
		"authorization": "Bearer " + c.token,
	}
}

func (c *SaaSClient) Resolve(marketplaceToken string) (*entities.ResolvedPurchase, error) {
	url := fmt.Sprintf("%s/saas/subscriptions/resolve?api-version=%s", c.baseURL, c.apiVersion)
	headers := c.headers()
	headers["x-ms-marketplace-token"] = marketplaceToken

	var res entities.ResolvedPurchase
	if statusCode, err := httpclient.DoRequest(http.MethodPost, url, headers, nil, &res); err != nil {
		if 400 <= statusCode && statusCode < 500 {
			return nil, echo.NewHTTPError(statusCode, err.Error())
		}
		return nil, err
	}
	if res.SubscriptionID == "" {
		res.SubscriptionID = res.Subscription.ID
	}
	return &res, nil
}

func (c *SaaSClient) GetSubscription(subscriptionID string) (*entities.Subscription, error) {
	url := fmt.Sprintf("%s/saas/subscriptions/%s?api-version=%s", c.baseURL, subscriptionID, c.apiVersion)

	var res entities.Subscription
	if statusCode, err := httpclient.DoRequest(http.MethodGet, url, c.headers(), nil, &res); err != nil {
		if 400 <= statusCode && statusCode < 500 {
			return nil, echo.NewHTTPError(statusCode, err.Error())
		}
		return nil, err
	}
	return &res, nil
}

func (c *SaaSClient) GetOperation(subscriptionID, operationID string) (*entities.Operation, error) {
	url := fmt.Sprintf("%s/saas/subscriptions/%s/operations/%s?api-version=%s", c.baseURL, subscriptionID, operationID, c.apiVersion)

	var res entities.Operation
	if statusCode, err := httpclient.DoRequest(http.MethodGet, url, c.headers(), nil, &res); err != nil {
		if 400 <= statusCode && statusCode < 500 {
			return nil, echo.NewHTTPError(statusCode, err.Error())
		}
		return nil, err
	}
	return &res, nil
}

func (c *SaaSClient) Activate(subscriptionID, planID string, quantity int64) error {
	url := fmt.Sprintf("%s/saas/subscriptions/%s/activate?api-version=%s", c.baseURL, subscriptionID, c.apiVersion)

	reqJson, err := json.Marshal(entities.ActivateRequest{
		PlanID:   planID,
		Quantity: quantity,
	})
	if err != nil {
		return err
	}

	if statusCode, err := httpclient.DoRequest(http.MethodPost, url, c.headers(), reqJson, nil); err != nil {
		if 400 <= statusCode && statusCode < 500 {
			return echo.NewHTTPError(statusCode, err.Error())
		}
		return err
	}
	return nil
}
