package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	accountapi "github.com/kaytu-io/fulfillment/account/api"
	"github.com/kaytu-io/fulfillment/azure/entities"
	"github.com/kaytu-io/fulfillment/db/connector"
	"github.com/kaytu-io/fulfillment/db/model"
	"github.com/kaytu-io/fulfillment/db/repo"
	"github.com/kaytu-io/fulfillment/pkg/dockertest"
	"github.com/kaytu-io/fulfillment/pkg/httpclient"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errBadToken        = errors.New("purchase token cannot be resolved")
	errNoSubscription  = errors.New("subscription not found")
	errNoOperation     = errors.New("operation not found")
	errMarketplaceDown = errors.New("marketplace unavailable")
)

type activation struct {
	subscriptionID string
	planID         string
	quantity       int64
}

type fakeMarketplace struct {
	mu sync.Mutex

	purchases     map[string]*entities.ResolvedPurchase
	subscriptions map[string]*entities.Subscription
	operations    map[string]*entities.Operation

	resolveErr  error
	activateErr error
	activations []activation
}

func newFakeMarketplace() *fakeMarketplace {
	return &fakeMarketplace{
		purchases:     map[string]*entities.ResolvedPurchase{},
		subscriptions: map[string]*entities.Subscription{},
		operations:    map[string]*entities.Operation{},
	}
}

func (f *fakeMarketplace) Resolve(purchaseToken string) (*entities.ResolvedPurchase, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.resolveErr != nil {
		return nil, f.resolveErr
	}
	p, ok := f.purchases[purchaseToken]
	if !ok {
		return nil, errBadToken
	}
	return p, nil
}

func (f *fakeMarketplace) GetSubscription(subscriptionID string) (*entities.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sub, ok := f.subscriptions[subscriptionID]
	if !ok {
		return nil, errNoSubscription
	}
	return sub, nil
}

func (f *fakeMarketplace) GetOperation(subscriptionID, operationID string) (*entities.Operation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	op, ok := f.operations[operationID]
	if !ok || op.SubscriptionID != subscriptionID {
		return nil, errNoOperation
	}
	return op, nil
}

func (f *fakeMarketplace) Activate(subscriptionID, planID string, quantity int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.activateErr != nil {
		return f.activateErr
	}
	f.activations = append(f.activations, activation{
		subscriptionID: subscriptionID,
		planID:         planID,
		quantity:       quantity,
	})
	return nil
}

type fakeAccounts struct {
	mu sync.Mutex

	accounts    map[string]*accountapi.Account
	domains     map[string]*accountapi.DomainMapping
	expirations map[string]time.Time
	maxLicenses map[string]int64
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{
		accounts:    map[string]*accountapi.Account{},
		domains:     map[string]*accountapi.DomainMapping{},
		expirations: map[string]time.Time{},
		maxLicenses: map[string]int64{},
	}
}

func (f *fakeAccounts) GetAccount(_ *httpclient.Context, accountID string) (*accountapi.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.accounts[accountID], nil
}

func (f *fakeAccounts) GetDomainMapping(_ *httpclient.Context, accountID string) (*accountapi.DomainMapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.domains[accountID], nil
}

func (f *fakeAccounts) UpdateExpiration(_ *httpclient.Context, accountID string, expirationDate time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.expirations[accountID] = expirationDate
	return nil
}

func (f *fakeAccounts) UpdateMaxLicenses(_ *httpclient.Context, accountID string, maxNumberOfLicenses int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.maxLicenses[accountID] = maxNumberOfLicenses
	return nil
}

func TestFulfillmentService(t *testing.T) {
	suite.Run(t, &ServiceTestSuite{
		orm: dockertest.StartupPostgreSQL(t),
	})
}

type ServiceTestSuite struct {
	suite.Suite

	orm *gorm.DB

	setupRepo        repo.SetupRequestRepo
	subscriptionRepo repo.SubscriptionRepo
	eventRepo        repo.LifecycleEventRepo

	marketplace *fakeMarketplace
	accounts    *fakeAccounts

	svc *FulfillmentService
}

func (s *ServiceTestSuite) SetupSuite() {
	require := s.Require()

	db := connector.NewWithConn(s.orm)
	require.NoError(db.Initialize(), "auto migrate")

	s.setupRepo = repo.NewSetupRequestRepo(db)
	s.subscriptionRepo = repo.NewSubscriptionRepo(db)
	s.eventRepo = repo.NewLifecycleEventRepo(db)
}

func (s *ServiceTestSuite) SetupTest() {
	s.marketplace = newFakeMarketplace()
	s.accounts = newFakeAccounts()

	s.svc = New(
		zap.NewNop(),
		s.setupRepo,
		s.subscriptionRepo,
		s.eventRepo,
		s.marketplace,
		s.accounts,
		nil,
		nil,
		"",
	)
}

func (s *ServiceTestSuite) TearDownTest() {
	require := s.Require()

	require.NoError(s.orm.Exec("DELETE FROM setup_requests").Error)
	require.NoError(s.orm.Exec("DELETE FROM marketplace_subscriptions").Error)
	require.NoError(s.orm.Exec("DELETE FROM lifecycle_events").Error)
}

func (s *ServiceTestSuite) seedPurchase(token, subscriptionID string, quantity int64) {
	s.marketplace.purchases[token] = &entities.ResolvedPurchase{
		ID:             "purchase-" + subscriptionID,
		SubscriptionID: subscriptionID,
		OfferID:        "offer-1",
		PlanID:         "silver",
		Quantity:       quantity,
		Subscription: entities.Subscription{
			ID:                     subscriptionID,
			Name:                   "Contoso",
			OfferID:                "offer-1",
			PlanID:                 "silver",
			Quantity:               quantity,
			SaaSSubscriptionStatus: entities.SubscriptionStatusPendingFulfillmentStart,
			Purchaser: entities.Purchaser{
				TenantID: "tenant-1",
				EmailID:  "buyer@contoso.com",
			},
		},
	}
}

func (s *ServiceTestSuite) contact() ContactInfo {
	return ContactInfo{
		FirstName:   "Jane",
		LastName:    "Doe",
		Phone:       "+15550100",
		CompanyName: "Contoso",
		CompanySite: "contoso.com",
		Email:       "jane@contoso.com",
	}
}

func (s *ServiceTestSuite) TestCreateSetupRequest() {
	require := s.Require()
	ctx := context.Background()

	s.seedPurchase("token-1", "sub-1", 5)

	require.NoError(s.svc.CreateSetupRequest(ctx, "token-1", s.contact()))

	req, err := s.setupRepo.GetByPurchaseToken(ctx, "token-1")
	require.NoError(err)
	require.NotNil(req)
	require.Equal("sub-1", req.SubscriptionID)
	require.Equal("silver", req.PlanID)
	require.Equal(int64(5), req.Quantity)
	require.Equal("tenant-1", req.TenantID)
	require.Equal("jane@contoso.com", req.Email)

	events, err := s.eventRepo.ListBySubscriptionID(ctx, "sub-1")
	require.NoError(err)
	require.Len(events, 1)
	require.Equal(model.EventActionInit, events[0].Action)
	require.Equal("token-1", events[0].PurchaseToken)
	require.Equal("Contoso", events[0].CompanyName)
}

func (s *ServiceTestSuite) TestCreateSetupRequestDuplicateToken() {
	require := s.Require()
	ctx := context.Background()

	s.seedPurchase("token-1", "sub-1", 5)

	require.NoError(s.svc.CreateSetupRequest(ctx, "token-1", s.contact()))
	err := s.svc.CreateSetupRequest(ctx, "token-1", s.contact())
	require.ErrorIs(err, ErrPurchaseTokenAlreadyKnown)

	events, err := s.eventRepo.ListBySubscriptionID(ctx, "sub-1")
	require.NoError(err)
	require.Len(events, 1)
}

func (s *ServiceTestSuite) TestCreateSetupRequestResolveFailure() {
	require := s.Require()
	ctx := context.Background()

	err := s.svc.CreateSetupRequest(ctx, "bogus-token", s.contact())
	require.Error(err)

	req, err := s.setupRepo.GetByPurchaseToken(ctx, "bogus-token")
	require.NoError(err)
	require.Nil(req)
}

func (s *ServiceTestSuite) TestCreateSetupRequestAlreadyLinked() {
	require := s.Require()
	ctx := context.Background()

	s.seedPurchase("token-1", "sub-1", 5)
	require.NoError(s.subscriptionRepo.Create(ctx, &model.MarketplaceSubscription{
		SubscriptionID: "sub-1",
		AccountID:      "acc-1",
	}))

	err := s.svc.CreateSetupRequest(ctx, "token-1", s.contact())
	require.ErrorIs(err, ErrTokenBelongsToActiveAccount)
}

func (s *ServiceTestSuite) TestCreateLinkage() {
	require := s.Require()
	ctx := context.Background()

	s.seedPurchase("token-1", "sub-1", 5)
	s.marketplace.subscriptions["sub-1"] = &s.marketplace.purchases["token-1"].Subscription
	s.accounts.accounts["acc-1"] = &accountapi.Account{ID: "acc-1", CompanyName: "Contoso"}

	require.NoError(s.svc.CreateSetupRequest(ctx, "token-1", s.contact()))
	require.NoError(s.svc.CreateLinkage(ctx, "acc-1", "sub-1"))

	linkage, err := s.subscriptionRepo.GetBySubscriptionID(ctx, "sub-1")
	require.NoError(err)
	require.NotNil(linkage)
	require.Equal("acc-1", linkage.AccountID)

	// the setup request is consumed
	req, err := s.setupRepo.GetBySubscriptionID(ctx, "sub-1")
	require.NoError(err)
	require.Nil(req)

	require.Len(s.marketplace.activations, 1)
	require.Equal(activation{
		subscriptionID: "sub-1",
		planID:         "silver",
		quantity:       5,
	}, s.marketplace.activations[0])
}

func (s *ServiceTestSuite) TestCreateLinkageSkipsActivationWhenNotPending() {
	require := s.Require()
	ctx := context.Background()

	s.seedPurchase("token-1", "sub-1", 5)
	sub := s.marketplace.purchases["token-1"].Subscription
	sub.SaaSSubscriptionStatus = entities.SubscriptionStatusSubscribed
	s.marketplace.subscriptions["sub-1"] = &sub
	s.accounts.accounts["acc-1"] = &accountapi.Account{ID: "acc-1"}

	require.NoError(s.svc.CreateSetupRequest(ctx, "token-1", s.contact()))
	require.NoError(s.svc.CreateLinkage(ctx, "acc-1", "sub-1"))

	require.Empty(s.marketplace.activations)
}

func (s *ServiceTestSuite) TestCreateLinkageActivationFailureDoesNotFail() {
	require := s.Require()
	ctx := context.Background()

	s.seedPurchase("token-1", "sub-1", 5)
	s.marketplace.subscriptions["sub-1"] = &s.marketplace.purchases["token-1"].Subscription
	s.marketplace.activateErr = errMarketplaceDown
	s.accounts.accounts["acc-1"] = &accountapi.Account{ID: "acc-1"}

	require.NoError(s.svc.CreateSetupRequest(ctx, "token-1", s.contact()))
	require.NoError(s.svc.CreateLinkage(ctx, "acc-1", "sub-1"))

	linkage, err := s.subscriptionRepo.GetBySubscriptionID(ctx, "sub-1")
	require.NoError(err)
	require.NotNil(linkage)
}

func (s *ServiceTestSuite) TestCreateLinkageMissingSetupRequest() {
	require := s.Require()
	ctx := context.Background()

	s.accounts.accounts["acc-1"] = &accountapi.Account{ID: "acc-1"}

	err := s.svc.CreateLinkage(ctx, "acc-1", "sub-1")
	require.ErrorIs(err, ErrSetupRequestNotFound)
}

func (s *ServiceTestSuite) TestCreateLinkageDuplicate() {
	require := s.Require()
	ctx := context.Background()

	s.seedPurchase("token-1", "sub-1", 5)
	s.marketplace.subscriptions["sub-1"] = &s.marketplace.purchases["token-1"].Subscription
	s.accounts.accounts["acc-1"] = &accountapi.Account{ID: "acc-1"}
	s.accounts.accounts["acc-2"] = &accountapi.Account{ID: "acc-2"}

	require.NoError(s.svc.CreateSetupRequest(ctx, "token-1", s.contact()))
	require.NoError(s.svc.CreateLinkage(ctx, "acc-1", "sub-1"))

	err := s.svc.CreateLinkage(ctx, "acc-2", "sub-1")
	require.ErrorIs(err, ErrSetupRequestNotFound)

	// even with a fresh setup request the linkage itself rejects a rebind
	require.NoError(s.setupRepo.Create(ctx, &model.SetupRequest{
		PurchaseToken:  "token-2",
		SubscriptionID: "sub-1",
		PlanID:         "silver",
		Quantity:       5,
	}))
	err = s.svc.CreateLinkage(ctx, "acc-2", "sub-1")
	require.ErrorIs(err, ErrSubscriptionAlreadyExists)
}

func (s *ServiceTestSuite) TestCreateLinkageMissingAccount() {
	require := s.Require()
	ctx := context.Background()

	s.seedPurchase("token-1", "sub-1", 5)
	require.NoError(s.svc.CreateSetupRequest(ctx, "token-1", s.contact()))

	err := s.svc.CreateLinkage(ctx, "acc-missing", "sub-1")
	require.ErrorIs(err, ErrAccountNotFound)
}

func (s *ServiceTestSuite) linkSubscription(subscriptionID, accountID string) {
	require := s.Require()
	require.NoError(s.subscriptionRepo.Create(context.Background(), &model.MarketplaceSubscription{
		SubscriptionID: subscriptionID,
		AccountID:      accountID,
	}))
	s.accounts.accounts[accountID] = &accountapi.Account{ID: accountID}
}

func (s *ServiceTestSuite) TestIngestOperationUnsubscribe() {
	require := s.Require()
	ctx := context.Background()

	s.linkSubscription("sub-1", "acc-1")
	s.marketplace.operations["op-1"] = &entities.Operation{
		ID:             "op-1",
		SubscriptionID: "sub-1",
		PlanID:         "silver",
		Action:         entities.OperationActionUnsubscribe,
		Status:         entities.OperationStatusSucceeded,
	}

	require.NoError(s.svc.IngestOperation(ctx, "op-1", "sub-1"))

	expiration, ok := s.accounts.expirations["acc-1"]
	require.True(ok)
	require.WithinDuration(time.Now().UTC().AddDate(0, 0, -1), expiration, time.Minute)

	// redelivery lands on the same terminal state
	require.NoError(s.svc.IngestOperation(ctx, "op-1", "sub-1"))
	require.WithinDuration(time.Now().UTC().AddDate(0, 0, -1), s.accounts.expirations["acc-1"], time.Minute)

	events, err := s.eventRepo.ListBySubscriptionID(ctx, "sub-1")
	require.NoError(err)
	require.Len(events, 2)
	require.Equal(model.EventActionUnsubscribe, events[0].Action)
	require.Equal("op-1", events[0].OperationID)
}

func (s *ServiceTestSuite) TestIngestOperationChangeQuantity() {
	require := s.Require()
	ctx := context.Background()

	s.linkSubscription("sub-1", "acc-1")
	s.marketplace.operations["op-1"] = &entities.Operation{
		ID:             "op-1",
		SubscriptionID: "sub-1",
		PlanID:         "silver",
		Quantity:       10,
		Action:         entities.OperationActionChangeQuantity,
		Status:         entities.OperationStatusSucceeded,
	}

	require.NoError(s.svc.IngestOperation(ctx, "op-1", "sub-1"))

	require.Equal(int64(10), s.accounts.maxLicenses["acc-1"])

	events, err := s.eventRepo.ListBySubscriptionID(ctx, "sub-1")
	require.NoError(err)
	require.Len(events, 1)
	require.Equal(model.EventActionChangeQuantity, events[0].Action)
	require.Equal(int64(10), events[0].Quantity)
}

func (s *ServiceTestSuite) TestIngestOperationUnlinkedStillAppendsEvent() {
	require := s.Require()
	ctx := context.Background()

	s.marketplace.operations["op-1"] = &entities.Operation{
		ID:             "op-1",
		SubscriptionID: "sub-ghost",
		Action:         entities.OperationActionSuspend,
		Status:         entities.OperationStatusInProgress,
	}

	err := s.svc.IngestOperation(ctx, "op-1", "sub-ghost")
	require.ErrorIs(err, ErrSubscriptionNotLinked)

	events, err := s.eventRepo.ListBySubscriptionID(ctx, "sub-ghost")
	require.NoError(err)
	require.Len(events, 1)
	require.Equal(model.EventActionSuspend, events[0].Action)
}

func (s *ServiceTestSuite) TestIngestOperationUnknownOperation() {
	require := s.Require()
	ctx := context.Background()

	err := s.svc.IngestOperation(ctx, "op-ghost", "sub-1")
	require.Error(err)

	events, err := s.eventRepo.ListBySubscriptionID(ctx, "sub-1")
	require.NoError(err)
	require.Empty(events)
}

func (s *ServiceTestSuite) TestResolvePurchaseTokenUnlinked() {
	require := s.Require()
	ctx := context.Background()

	s.seedPurchase("token-1", "sub-1", 5)
	require.NoError(s.svc.CreateSetupRequest(ctx, "token-1", s.contact()))

	state, err := s.svc.ResolvePurchaseToken(ctx, "token-1")
	require.NoError(err)
	require.Equal("sub-1", state.Purchase.SubscriptionID)
	require.NotNil(state.SetupRequest)
	require.Nil(state.Subscription)
	require.Nil(state.Account)
}

func (s *ServiceTestSuite) TestResolvePurchaseTokenLinked() {
	require := s.Require()
	ctx := context.Background()

	s.seedPurchase("token-1", "sub-1", 5)
	s.linkSubscription("sub-1", "acc-1")
	s.accounts.accounts["acc-1"].CompanyName = "Contoso"
	s.accounts.domains["acc-1"] = &accountapi.DomainMapping{AccountID: "acc-1", Domain: "contoso.com"}

	state, err := s.svc.ResolvePurchaseToken(ctx, "token-1")
	require.NoError(err)
	require.NotNil(state.Subscription)
	require.Equal("acc-1", state.Subscription.AccountID)
	require.NotNil(state.Account)
	require.Equal("Contoso", state.Account.CompanyName)
	require.NotNil(state.Domain)
	require.Equal("contoso.com", state.Domain.Domain)
}
