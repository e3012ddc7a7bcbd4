package saas

import (
	"errors"
	"net/http"

	"github.com/kaytu-io/fulfillment/api/entity"
	"github.com/kaytu-io/fulfillment/db/model"
	"github.com/kaytu-io/fulfillment/pkg/api"
	"github.com/kaytu-io/fulfillment/pkg/httpserver"
	"github.com/kaytu-io/fulfillment/service"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

type API struct {
	logger *zap.Logger
	svc    *service.FulfillmentService
}

func New(logger *zap.Logger, svc *service.FulfillmentService) API {
	return API{
		logger: logger.Named("saas"),
		svc:    svc,
	}
}

func (s API) Register(g *echo.Group) {
	g.POST("/setup", httpserver.AuthorizeHandler(s.CreateSetupRequest, api.ViewerRole))
	g.GET("/setup/:purchaseIdToken", httpserver.AuthorizeHandler(s.GetPurchaseState, api.ViewerRole))
	g.POST("/webhook", s.HandleWebhook)
	g.POST("/subscriptions", httpserver.AuthorizeHandler(s.CreateSubscription, api.EditorRole))
	g.GET("/subscriptions/account/:accountId", httpserver.AuthorizeHandler(s.GetSubscriptionByAccount, api.ViewerRole))
	g.GET("/subscriptions", httpserver.AuthorizeHandler(s.ListSubscriptions, api.AdminRole))
	g.GET("/events/:subscriptionId", httpserver.AuthorizeHandler(s.ListEvents, api.AdminRole))
}

func bindValidate(ctx echo.Context, i interface{}) error {
	if err := ctx.Bind(i); err != nil {
		return err
	}

	if err := ctx.Validate(i); err != nil {
		return err
	}

	return nil
}

// CreateSetupRequest godoc
//
//	@Summary	Record a marketplace purchase intent
//	@Security	BearerToken
//	@Tags		saas
//	@Accept		json
//	@Produce	json
//	@Param		request	body	entity.CreateSetupRequestRequest	true	"Request"
//	@Success	201
//	@Router		/fulfillment/api/v1/saas/setup [post]
func (s API) CreateSetupRequest(ctx echo.Context) error {
	_, span := otel.Tracer("").Start(ctx.Request().Context(), "CreateSetupRequest")
	defer span.End()

	var req entity.CreateSetupRequestRequest
	if err := bindValidate(ctx, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := s.svc.CreateSetupRequest(ctx.Request().Context(), req.PurchaseIDToken, service.ContactInfo{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Phone:       req.Phone,
		CompanyName: req.CompanyName,
		CompanySite: req.CompanySite,
		Email:       req.Email,
	})
	if err != nil {
		if errors.Is(err, service.ErrPurchaseTokenAlreadyKnown) ||
			errors.Is(err, service.ErrTokenBelongsToActiveAccount) {
			return ctx.JSON(http.StatusConflict, entity.Error{
				Code:    service.ErrorCode(err),
				Message: err.Error(),
			})
		}
		return err
	}

	return ctx.NoContent(http.StatusCreated)
}

// GetPurchaseState godoc
//
//	@Summary	Resolve a purchase token and report everything known about it
//	@Security	BearerToken
//	@Tags		saas
//	@Produce	json
//	@Param		purchaseIdToken	path		string	true	"Purchase id token"
//	@Success	200				{object}	entity.PurchaseStateResponse
//	@Router		/fulfillment/api/v1/saas/setup/{purchaseIdToken} [get]
func (s API) GetPurchaseState(ctx echo.Context) error {
	_, span := otel.Tracer("").Start(ctx.Request().Context(), "GetPurchaseState")
	defer span.End()

	token := ctx.Param("purchaseIdToken")
	if token == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "purchaseIdToken is required")
	}

	state, err := s.svc.ResolvePurchaseToken(ctx.Request().Context(), token)
	if err != nil {
		return err
	}

	resp := entity.PurchaseStateResponse{
		SubscriptionID:     state.Purchase.SubscriptionID,
		OfferID:            state.Purchase.OfferID,
		PlanID:             state.Purchase.PlanID,
		Quantity:           state.Purchase.Quantity,
		SubscriptionStatus: string(state.Purchase.Subscription.SaaSSubscriptionStatus),
	}
	if state.SetupRequest != nil {
		sr := toSetupRequest(*state.SetupRequest)
		resp.SetupRequest = &sr
	}
	if state.Subscription != nil {
		l := toSubscription(*state.Subscription)
		resp.Linkage = &l
		resp.AccountID = state.Subscription.AccountID
	}
	if state.Account != nil {
		resp.AccountCompanyName = state.Account.CompanyName
	}
	if state.Domain != nil {
		resp.AccountDomain = state.Domain.Domain
	}

	return ctx.JSON(http.StatusOK, resp)
}

// HandleWebhook godoc
//
//	@Summary	Ingest a marketplace lifecycle operation
//	@Tags		saas
//	@Accept		json
//	@Produce	json
//	@Param		request	body	entity.WebhookRequest	true	"Request"
//	@Success	200
//	@Router		/fulfillment/api/v1/saas/webhook [post]
func (s API) HandleWebhook(ctx echo.Context) error {
	_, span := otel.Tracer("").Start(ctx.Request().Context(), "HandleWebhook")
	defer span.End()

	var req entity.WebhookRequest
	if err := bindValidate(ctx, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := s.svc.IngestOperation(ctx.Request().Context(), req.ID, req.SubscriptionID)
	if err != nil {
		// business failures answer 200 so the marketplace stops
		// redelivering an operation that can never succeed
		if code := service.ErrorCode(err); code != "" {
			s.logger.Warn("webhook rejected",
				zap.String("operationID", req.ID),
				zap.String("subscriptionID", req.SubscriptionID),
				zap.String("code", code))
			return ctx.JSON(http.StatusOK, entity.Error{
				Code:    code,
				Message: err.Error(),
			})
		}
		return err
	}

	return ctx.NoContent(http.StatusOK)
}

// CreateSubscription godoc
//
//	@Summary	Bind a marketplace subscription to an account
//	@Security	BearerToken
//	@Tags		saas
//	@Accept		json
//	@Produce	json
//	@Param		request	body	entity.CreateSubscriptionRequest	true	"Request"
//	@Success	201
//	@Router		/fulfillment/api/v1/saas/subscriptions [post]
func (s API) CreateSubscription(ctx echo.Context) error {
	_, span := otel.Tracer("").Start(ctx.Request().Context(), "CreateSubscription")
	defer span.End()

	var req entity.CreateSubscriptionRequest
	if err := bindValidate(ctx, &req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := s.svc.CreateLinkage(ctx.Request().Context(), req.AccountID, req.SubscriptionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSetupRequestNotFound),
			errors.Is(err, service.ErrAccountNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrSubscriptionAlreadyExists):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return err
	}

	return ctx.NoContent(http.StatusCreated)
}

// GetSubscriptionByAccount godoc
//
//	@Summary	Get the marketplace linkage of an account
//	@Security	BearerToken
//	@Tags		saas
//	@Produce	json
//	@Param		accountId	path		string	true	"Account id"
//	@Success	200			{object}	entity.Subscription
//	@Router		/fulfillment/api/v1/saas/subscriptions/account/{accountId} [get]
func (s API) GetSubscriptionByAccount(ctx echo.Context) error {
	_, span := otel.Tracer("").Start(ctx.Request().Context(), "GetSubscriptionByAccount")
	defer span.End()

	accountID := ctx.Param("accountId")
	if accountID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "accountId is required")
	}

	sub, err := s.svc.GetLinkageByAccountID(ctx.Request().Context(), accountID)
	if err != nil {
		return err
	}
	if sub == nil {
		return echo.NewHTTPError(http.StatusNotFound, "account has no marketplace subscription")
	}

	return ctx.JSON(http.StatusOK, toSubscription(*sub))
}

// ListSubscriptions godoc
//
//	@Summary	List all marketplace linkages
//	@Security	BearerToken
//	@Tags		saas
//	@Produce	json
//	@Success	200	{object}	[]entity.Subscription
//	@Router		/fulfillment/api/v1/saas/subscriptions [get]
func (s API) ListSubscriptions(ctx echo.Context) error {
	_, span := otel.Tracer("").Start(ctx.Request().Context(), "ListSubscriptions")
	defer span.End()

	subs, err := s.svc.ListSubscriptions(ctx.Request().Context())
	if err != nil {
		return err
	}

	resp := make([]entity.Subscription, 0, len(subs))
	for _, sub := range subs {
		resp = append(resp, toSubscription(sub))
	}

	return ctx.JSON(http.StatusOK, resp)
}

// ListEvents godoc
//
//	@Summary	List the lifecycle event log of a subscription
//	@Security	BearerToken
//	@Tags		saas
//	@Produce	json
//	@Param		subscriptionId	path		string	true	"Subscription id"
//	@Success	200				{object}	[]entity.LifecycleEvent
//	@Router		/fulfillment/api/v1/saas/events/{subscriptionId} [get]
func (s API) ListEvents(ctx echo.Context) error {
	_, span := otel.Tracer("").Start(ctx.Request().Context(), "ListEvents")
	defer span.End()

	subscriptionID := ctx.Param("subscriptionId")
	if subscriptionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "subscriptionId is required")
	}

	events, err := s.svc.ListEvents(ctx.Request().Context(), subscriptionID)
	if err != nil {
		return err
	}

	resp := make([]entity.LifecycleEvent, 0, len(events))
	for _, event := range events {
		resp = append(resp, entity.LifecycleEvent{
			ID:             event.ID,
			CreatedAt:      event.CreatedAt,
			Action:         string(event.Action),
			SubscriptionID: event.SubscriptionID,
			OfferID:        event.OfferID,
			PlanID:         event.PlanID,
			Quantity:       event.Quantity,
			OperationID:    event.OperationID,
			Status:         event.Status,
			Email:          event.Email,
			CompanyName:    event.CompanyName,
		})
	}

	return ctx.JSON(http.StatusOK, resp)
}

func toSubscription(sub model.MarketplaceSubscription) entity.Subscription {
	return entity.Subscription{
		ID:             sub.ID,
		CreatedAt:      sub.CreatedAt,
		SubscriptionID: sub.SubscriptionID,
		AccountID:      sub.AccountID,
	}
}

func toSetupRequest(req model.SetupRequest) entity.SetupRequest {
	return entity.SetupRequest{
		ID:             req.ID,
		CreatedAt:      req.CreatedAt,
		PurchaseToken:  req.PurchaseToken,
		SubscriptionID: req.SubscriptionID,
		OfferID:        req.OfferID,
		PlanID:         req.PlanID,
		Quantity:       req.Quantity,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		Phone:          req.Phone,
		CompanyName:    req.CompanyName,
		CompanySite:    req.CompanySite,
		Email:          req.Email,
	}
}
