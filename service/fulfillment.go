package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	accountapi "github.com/kaytu-io/fulfillment/account/api"
	accountclient "github.com/kaytu-io/fulfillment/account/client"
	"github.com/kaytu-io/fulfillment/azure"
	"github.com/kaytu-io/fulfillment/azure/entities"
	"github.com/kaytu-io/fulfillment/db/model"
	"github.com/kaytu-io/fulfillment/db/repo"
	"github.com/kaytu-io/fulfillment/pkg/api"
	"github.com/kaytu-io/fulfillment/pkg/email"
	"github.com/kaytu-io/fulfillment/pkg/httpclient"
	"github.com/kaytu-io/fulfillment/pkg/jq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const (
	StreamName  = "fulfillment"
	EventsTopic = "fulfillment-lifecycle-events"
)

var SetupRequestsCreatedCount = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "kaytu",
	Subsystem: "fulfillment",
	Name:      "setup_requests_created_total",
	Help:      "Count of setup requests created by marketplace checkout intake",
})

var OperationsIngestedCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "kaytu",
	Subsystem: "fulfillment",
	Name:      "operations_ingested_total",
	Help:      "Count of marketplace webhook operations ingested, by action",
}, []string{"action"})

var ActivationFailuresCount = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "kaytu",
	Subsystem: "fulfillment",
	Name:      "activation_failures_total",
	Help:      "Count of failed subscription activation attempts",
})

type ContactInfo struct {
	FirstName   string
	LastName    string
	Phone       string
	CompanyName string
	CompanySite string
	Email       string
}

// PurchaseState is the read-path projection of everything known about a
// purchase token.
type PurchaseState struct {
	Purchase     *entities.ResolvedPurchase
	SetupRequest *model.SetupRequest
	Subscription *model.MarketplaceSubscription
	Account      *accountapi.Account
	Domain       *accountapi.DomainMapping
}

type FulfillmentService struct {
	logger *zap.Logger

	setupRepo        repo.SetupRequestRepo
	subscriptionRepo repo.SubscriptionRepo
	eventRepo        repo.LifecycleEventRepo

	marketplace   azure.Client
	accountClient accountclient.AccountServiceClient
	mailer        email.Service
	events        *jq.JobQueue

	opsEmail string
}

func New(
	logger *zap.Logger,
	setupRepo repo.SetupRequestRepo,
	subscriptionRepo repo.SubscriptionRepo,
	eventRepo repo.LifecycleEventRepo,
	marketplace azure.Client,
	accountClient accountclient.AccountServiceClient,
	mailer email.Service,
	events *jq.JobQueue,
	opsEmail string,
) *FulfillmentService {
	return &FulfillmentService{
		logger:           logger.Named("fulfillment"),
		setupRepo:        setupRepo,
		subscriptionRepo: subscriptionRepo,
		eventRepo:        eventRepo,
		marketplace:      marketplace,
		accountClient:    accountClient,
		mailer:           mailer,
		events:           events,
		opsEmail:         opsEmail,
	}
}

// CreateSetupRequest resolves the purchase token against the marketplace
// and records the purchase intent plus its Init event. Notifications are
// fire-and-forget and never fail the intake.
func (s *FulfillmentService) CreateSetupRequest(ctx context.Context, purchaseToken string, contact ContactInfo) error {
	existing, err := s.setupRepo.GetByPurchaseToken(ctx, purchaseToken)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrPurchaseTokenAlreadyKnown
	}

	resolved, err := s.marketplace.Resolve(purchaseToken)
	if err != nil {
		return err
	}

	linked, err := s.subscriptionRepo.GetBySubscriptionID(ctx, resolved.SubscriptionID)
	if err != nil {
		return err
	}
	if linked != nil {
		return ErrTokenBelongsToActiveAccount
	}

	setupRequest := model.SetupRequest{
		PurchaseToken:  purchaseToken,
		TransactableID: resolved.ID,
		SubscriptionID: resolved.SubscriptionID,
		OfferID:        resolved.OfferID,
		PlanID:         resolved.PlanID,
		TenantID:       resolved.Subscription.Purchaser.TenantID,
		Quantity:       resolved.Quantity,
		FirstName:      contact.FirstName,
		LastName:       contact.LastName,
		Phone:          contact.Phone,
		CompanyName:    contact.CompanyName,
		CompanySite:    contact.CompanySite,
		Email:          contact.Email,
	}
	if err := s.setupRepo.Create(ctx, &setupRequest); err != nil {
		if errors.Is(err, repo.ErrDuplicateSetupRequest) {
			return ErrPurchaseTokenAlreadyKnown
		}
		return err
	}
	SetupRequestsCreatedCount.Inc()

	event := model.NewInitEvent(setupRequest)
	if err := s.eventRepo.Append(ctx, &event); err != nil {
		// the event log is observability, not correctness; the setup
		// request is already durable at this point
		s.logger.Error("failed to append init event",
			zap.String("purchaseToken", purchaseToken),
			zap.String("subscriptionID", setupRequest.SubscriptionID),
			zap.Error(err))
	} else {
		s.publishEvent(event)
	}

	s.notifyClient(contact.Email, "Welcome aboard",
		fmt.Sprintf("Hi %s, we received your marketplace purchase for %s and will be in touch shortly.", contact.FirstName, contact.CompanyName))
	s.notifyOps("New marketplace setup request",
		fmt.Sprintf("company=%s email=%s subscription=%s quantity=%d", contact.CompanyName, contact.Email, setupRequest.SubscriptionID, setupRequest.Quantity))

	return nil
}

// IngestOperation handles one webhook delivery. The event is appended
// before any validation so every delivery attempt leaves a row, then the
// operation's effect is applied to the linked account.
func (s *FulfillmentService) IngestOperation(ctx context.Context, operationID, subscriptionID string) error {
	op, err := s.marketplace.GetOperation(subscriptionID, operationID)
	if err != nil {
		return err
	}

	event := model.NewOperationEvent(*op)
	if err := s.eventRepo.Append(ctx, &event); err != nil {
		return err
	}
	s.publishEvent(event)
	OperationsIngestedCount.WithLabelValues(string(op.Action)).Inc()

	linkage, err := s.subscriptionRepo.GetBySubscriptionID(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if linkage == nil {
		s.notifyOps("Webhook for unlinked subscription",
			fmt.Sprintf("subscription=%s operation=%s action=%s", subscriptionID, operationID, op.Action))
		return ErrSubscriptionNotLinked
	}

	hctx := &httpclient.Context{UserRole: api.InternalRole}
	account, err := s.accountClient.GetAccount(hctx, linkage.AccountID)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}

	// the dispatch branches only on action; operation status is recorded
	// on the event and otherwise passed through
	switch op.Action {
	case entities.OperationActionSuspend:
		s.notifyOps("Marketplace subscription suspended",
			fmt.Sprintf("account=%s subscription=%s", account.ID, subscriptionID))
	case entities.OperationActionUnsubscribe:
		yesterday := time.Now().UTC().AddDate(0, 0, -1)
		if err := s.accountClient.UpdateExpiration(hctx, account.ID, yesterday); err != nil {
			return err
		}
		s.notifyOps("Marketplace subscription cancelled",
			fmt.Sprintf("account=%s subscription=%s expired=%s", account.ID, subscriptionID, yesterday.Format(time.RFC3339)))
	case entities.OperationActionChangePlan:
		// plan switching is not offered; seeing one means something is
		// off on the marketplace side
		s.logger.Warn("unexpected plan change operation",
			zap.String("accountID", account.ID),
			zap.String("subscriptionID", subscriptionID),
			zap.String("planID", op.PlanID))
		s.notifyOps("Marketplace subscription changed",
			fmt.Sprintf("account=%s subscription=%s plan=%s (plan changes are not supported)", account.ID, subscriptionID, op.PlanID))
	case entities.OperationActionChangeQuantity:
		if err := s.accountClient.UpdateMaxLicenses(hctx, account.ID, op.Quantity); err != nil {
			return err
		}
		s.notifyOps("Marketplace subscription changed",
			fmt.Sprintf("account=%s subscription=%s quantity=%d", account.ID, subscriptionID, op.Quantity))
	case entities.OperationActionReinstate:
		s.notifyOps("Marketplace subscription reinstated",
			fmt.Sprintf("account=%s subscription=%s", account.ID, subscriptionID))
	default:
		s.logger.Warn("unknown operation action",
			zap.String("subscriptionID", subscriptionID),
			zap.String("action", string(op.Action)))
	}

	return nil
}

// CreateLinkage binds the subscription to the account, consumes the
// pending setup request and kicks off activation. Activation is
// best-effort; the linkage is the correctness-critical artifact.
func (s *FulfillmentService) CreateLinkage(ctx context.Context, accountID, subscriptionID string) error {
	setupRequest, err := s.setupRepo.GetBySubscriptionID(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if setupRequest == nil {
		return ErrSetupRequestNotFound
	}

	existing, err := s.subscriptionRepo.GetBySubscriptionID(ctx, subscriptionID)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrSubscriptionAlreadyExists
	}

	hctx := &httpclient.Context{UserRole: api.InternalRole}
	account, err := s.accountClient.GetAccount(hctx, accountID)
	if err != nil {
		return err
	}
	if account == nil {
		return ErrAccountNotFound
	}

	linkage := model.MarketplaceSubscription{
		SubscriptionID: subscriptionID,
		AccountID:      accountID,
	}
	if err := s.subscriptionRepo.Create(ctx, &linkage); err != nil {
		if errors.Is(err, repo.ErrDuplicateSubscription) {
			return ErrSubscriptionAlreadyExists
		}
		return err
	}

	if err := s.setupRepo.DeleteBySubscriptionID(ctx, subscriptionID); err != nil {
		s.logger.Error("failed to consume setup request",
			zap.String("subscriptionID", subscriptionID),
			zap.Error(err))
	}

	s.activate(subscriptionID, setupRequest.Quantity)

	return nil
}

// ResolvePurchaseToken reports the current state of a purchase for
// client-side polling after checkout. Pure read, no side effects.
func (s *FulfillmentService) ResolvePurchaseToken(ctx context.Context, purchaseToken string) (*PurchaseState, error) {
	resolved, err := s.marketplace.Resolve(purchaseToken)
	if err != nil {
		return nil, err
	}

	state := PurchaseState{
		Purchase: resolved,
	}

	state.SetupRequest, err = s.setupRepo.GetBySubscriptionID(ctx, resolved.SubscriptionID)
	if err != nil {
		return nil, err
	}

	state.Subscription, err = s.subscriptionRepo.GetBySubscriptionID(ctx, resolved.SubscriptionID)
	if err != nil {
		return nil, err
	}
	if state.Subscription == nil {
		// not linked yet; the account part of the projection stays empty
		return &state, nil
	}

	hctx := &httpclient.Context{UserRole: api.InternalRole}
	state.Account, err = s.accountClient.GetAccount(hctx, state.Subscription.AccountID)
	if err != nil {
		return nil, err
	}
	state.Domain, err = s.accountClient.GetDomainMapping(hctx, state.Subscription.AccountID)
	if err != nil {
		return nil, err
	}

	return &state, nil
}

func (s *FulfillmentService) GetLinkageByAccountID(ctx context.Context, accountID string) (*model.MarketplaceSubscription, error) {
	return s.subscriptionRepo.GetByAccountID(ctx, accountID)
}

func (s *FulfillmentService) ListSubscriptions(ctx context.Context) ([]model.MarketplaceSubscription, error) {
	return s.subscriptionRepo.List(ctx)
}

func (s *FulfillmentService) ListEvents(ctx context.Context, subscriptionID string) ([]model.LifecycleEvent, error) {
	return s.eventRepo.ListBySubscriptionID(ctx, subscriptionID)
}

func (s *FulfillmentService) publishEvent(event model.LifecycleEvent) {
	if s.events == nil {
		return
	}

	body, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to marshal lifecycle event", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if _, err := s.events.Produce(ctx, EventsTopic, body, fmt.Sprintf("lifecycle-event-%d", event.ID)); err != nil {
		s.logger.Error("failed to publish lifecycle event",
			zap.Uint("eventID", event.ID),
			zap.Error(err))
	}
}
