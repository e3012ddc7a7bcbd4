package service

import (
	"fmt"

	"github.com/kaytu-io/fulfillment/azure/entities"
	"go.uber.org/zap"
)

// activate tells the marketplace the subscription is ready to be billed.
// Activation is best effort: the linkage is already committed, so failures
// are reported to operations and retried manually rather than rolling back.
func (s *FulfillmentService) activate(subscriptionID string, quantity int64) {
	sub, err := s.marketplace.GetSubscription(subscriptionID)
	if err != nil {
		ActivationFailuresCount.Inc()
		s.logger.Error("failed to fetch subscription for activation",
			zap.String("subscriptionID", subscriptionID), zap.Error(err))
		s.notifyOps("Marketplace activation failed",
			fmt.Sprintf("Could not fetch subscription %s from the marketplace: %v. Activate it manually.", subscriptionID, err))
		return
	}

	if sub.SaaSSubscriptionStatus != entities.SubscriptionStatusPendingFulfillmentStart {
		s.logger.Info("skipping activation, subscription is not pending fulfillment",
			zap.String("subscriptionID", subscriptionID),
			zap.String("status", string(sub.SaaSSubscriptionStatus)))
		return
	}

	if err := s.marketplace.Activate(subscriptionID, sub.PlanID, quantity); err != nil {
		ActivationFailuresCount.Inc()
		s.logger.Error("failed to activate subscription",
			zap.String("subscriptionID", subscriptionID), zap.Error(err))
		s.notifyOps("Marketplace activation failed",
			fmt.Sprintf("Could not activate subscription %s on plan %s: %v. Activate it manually.", subscriptionID, sub.PlanID, err))
		return
	}

	s.logger.Info("activated marketplace subscription",
		zap.String("subscriptionID", subscriptionID), zap.String("planID", sub.PlanID))
}
