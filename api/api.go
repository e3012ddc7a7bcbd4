package api

import (
	"github.com/kaytu-io/fulfillment/api/saas"
	"github.com/kaytu-io/fulfillment/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

type API struct {
	logger *zap.Logger
	saas   saas.API
}

func New(logger *zap.Logger, svc *service.FulfillmentService) *API {
	return &API{
		logger: logger.Named("api"),
		saas:   saas.New(logger, svc),
	}
}

func (api *API) Register(e *echo.Echo) {
	api.saas.Register(e.Group("/api/v1/saas"))
}
