package email

import (
	"context"
	"fmt"

	sendgridgo "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

type Service interface {
	SendEmail(ctx context.Context, email, subject, htmlBody string) error
}

type sendGridClient struct {
	client     *sendgridgo.Client
	sender     string
	senderName string
	logger     *zap.Logger
}

func NewSendGridClient(apiKey, sender, senderName string, logger *zap.Logger) Service {
	return sendGridClient{
		client:     sendgridgo.NewSendClient(apiKey),
		sender:     sender,
		senderName: senderName,
		logger:     logger.Named("sendgrid"),
	}
}

func (c sendGridClient) SendEmail(ctx context.Context, email, subject, htmlBody string) error {
	from := mail.NewEmail(c.senderName, c.sender)
	to := mail.NewEmail(email, email)

	message := mail.NewSingleEmail(from, subject, to, "", htmlBody)
	resp, err := c.client.SendWithContext(ctx, message)
	if err != nil {
		c.logger.Error("send email error",
			zap.String("recipient", email),
			zap.Error(err))
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("send email error",
			zap.String("recipient", email),
			zap.String("response", resp.Body),
		)
		return fmt.Errorf("send email: status %d", resp.StatusCode)
	}

	c.logger.Info("letter sent",
		zap.String("recipient", email))
	return nil
}
