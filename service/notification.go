package service

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// notifyClient sends a customer-facing email asynchronously. Delivery
// failures are logged and never surfaced to the caller.
func (s *FulfillmentService) notifyClient(to, subject, body string) {
	if s.mailer == nil || to == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.mailer.SendEmail(ctx, to, subject, body); err != nil {
			s.logger.Error("failed to send client notification",
				zap.String("to", to), zap.String("subject", subject), zap.Error(err))
		}
	}()
}

// notifyOps sends an internal alert to the operations mailbox.
func (s *FulfillmentService) notifyOps(subject, body string) {
	if s.mailer == nil || s.opsEmail == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.mailer.SendEmail(ctx, s.opsEmail, subject, body); err != nil {
			s.logger.Error("failed to send ops notification",
				zap.String("subject", subject), zap.Error(err))
		}
	}()
}
