package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kaytu-io/fulfillment/account/api"
	"github.com/kaytu-io/fulfillment/pkg/httpclient"
	"github.com/labstack/echo/v4"
)

type AccountServiceClient interface {
	GetAccount(ctx *httpclient.Context, accountID string) (*api.Account, error)
	GetDomainMapping(ctx *httpclient.Context, accountID string) (*api.DomainMapping, error)
	UpdateExpiration(ctx *httpclient.Context, accountID string, expirationDate time.Time) error
	UpdateMaxLicenses(ctx *httpclient.Context, accountID string, maxNumberOfLicenses int64) error
}

type accountClient struct {
	baseURL string
}

func NewAccountServiceClient(baseURL string) AccountServiceClient {
	return &accountClient{
		baseURL: baseURL,
	}
}

// GetAccount returns nil without error when the account does not exist.
func (s *accountClient) GetAccount(ctx *httpclient.Context, accountID string) (*api.Account, error) {
	url := fmt.Sprintf("%s/api/v1/accounts/%s", s.baseURL, accountID)

	var account api.Account
	if statusCode, err := httpclient.DoRequest(http.MethodGet, url, ctx.ToHeaders(), nil, &account); err != nil {
		if statusCode == http.StatusNotFound {
			return nil, nil
		}
		if 400 <= statusCode && statusCode < 500 {
			return nil, echo.NewHTTPError(statusCode, err.Error())
		}
		return nil, err
	}
	return &account, nil
}

func (s *accountClient) GetDomainMapping(ctx *httpclient.Context, accountID string) (*api.DomainMapping, error) {
	url := fmt.Sprintf("%s/api/v1/accounts/%s/domain", s.baseURL, accountID)

	var mapping api.DomainMapping
	if statusCode, err := httpclient.DoRequest(http.MethodGet, url, ctx.ToHeaders(), nil, &mapping); err != nil {
		if statusCode == http.StatusNotFound {
			return nil, nil
		}
		if 400 <= statusCode && statusCode < 500 {
			return nil, echo.NewHTTPError(statusCode, err.Error())
		}
		return nil, err
	}
	return &mapping, nil
}

func (s *accountClient) UpdateExpiration(ctx *httpclient.Context, accountID string, expirationDate time.Time) error {
	url := fmt.Sprintf("%s/api/v1/accounts/%s/expiration", s.baseURL, accountID)

	reqJson, err := json.Marshal(api.UpdateExpirationRequest{
		ExpirationDate: expirationDate,
	})
	if err != nil {
		return err
	}

	if statusCode, err := httpclient.DoRequest(http.MethodPut, url, ctx.ToHeaders(), reqJson, nil); err != nil {
		if 400 <= statusCode && statusCode < 500 {
			return echo.NewHTTPError(statusCode, err.Error())
		}
		return err
	}
	return nil
}

func (s *accountClient) UpdateMaxLicenses(ctx *httpclient.Context, accountID string, maxNumberOfLicenses int64) error {
	url := fmt.Sprintf("%s/api/v1/accounts/%s/license-count", s.baseURL, accountID)

	reqJson, err := json.Marshal(api.UpdateMaxLicensesRequest{
		MaxNumberOfLicenses: maxNumberOfLicenses,
	})
	if err != nil {
		return err
	}

	if statusCode, err := httpclient.DoRequest(http.MethodPut, url, ctx.ToHeaders(), reqJson, nil); err != nil {
		if 400 <= statusCode && statusCode < 500 {
			return echo.NewHTTPError(statusCode, err.Error())
		}
		return err
	}
	return nil
}
