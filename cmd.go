package fulfillment

import (
	"fmt"

	accountclient "github.com/kaytu-io/fulfillment/account/client"
	"github.com/kaytu-io/fulfillment/api"
	"github.com/kaytu-io/fulfillment/azure"
	"github.com/kaytu-io/fulfillment/config"
	"github.com/kaytu-io/fulfillment/db/connector"
	"github.com/kaytu-io/fulfillment/db/repo"
	"github.com/kaytu-io/fulfillment/pkg/email"
	"github.com/kaytu-io/fulfillment/pkg/httpserver"
	"github.com/kaytu-io/fulfillment/pkg/jq"
	"github.com/kaytu-io/fulfillment/service"
	"github.com/kaytu-io/kaytu-util/pkg/koanf"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm/logger"
)

func Command() *cobra.Command {
	return &cobra.Command{
		RunE: func(cmd *cobra.Command, args []string) error {
			cnf := koanf.Provide("fulfillment", config.FulfillmentConfig{})

			zapLogger, err := zap.NewProduction()
			if err != nil {
				return fmt.Errorf("new logger: %w", err)
			}
			zapLogger = zapLogger.Named("fulfillment")

			db, err := connector.New(cnf.Postgres, zapLogger, logger.Warn)
			if err != nil {
				return fmt.Errorf("new postgres client: %w", err)
			}
			if err := db.Initialize(); err != nil {
				return fmt.Errorf("init database: %w", err)
			}

			marketplace := azure.NewSaaSClient(cnf.Marketplace.BaseURL, cnf.Marketplace.APIVersion, cnf.Marketplace.APIToken)
			accounts := accountclient.NewAccountServiceClient(cnf.Account.BaseURL)

			var mailer email.Service
			if cnf.SendGrid.APIKey != "" {
				mailer = email.NewSendGridClient(cnf.SendGrid.APIKey, cnf.SendGrid.Sender, cnf.SendGrid.SenderName, zapLogger)
			}

			var events *jq.JobQueue
			if cnf.NATS.URL != "" {
				events, err = jq.New(cnf.NATS.URL, zapLogger)
				if err != nil {
					return fmt.Errorf("new job queue: %w", err)
				}
				if err := events.Stream(cmd.Context(), service.StreamName, "marketplace fulfillment lifecycle events", []string{service.EventsTopic}, 1000000); err != nil {
					return fmt.Errorf("create stream: %w", err)
				}
			}

			svc := service.New(
				zapLogger,
				repo.NewSetupRequestRepo(db),
				repo.NewSubscriptionRepo(db),
				repo.NewLifecycleEventRepo(db),
				marketplace,
				accounts,
				mailer,
				events,
				cnf.SendGrid.OpsEmail,
			)

			return httpserver.RegisterAndStart(zapLogger, cnf.Http.Address, api.New(zapLogger, svc))
		},
	}
}
