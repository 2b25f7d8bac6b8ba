package services

import (
	"github.com/mailtemp/tempmail/config"
	"github.com/mailtemp/tempmail/interfaces"
	"github.com/mailtemp/tempmail/internal/logger"
	"github.com/mailtemp/tempmail/internal/repository"
	"github.com/mailtemp/tempmail/services/account"
	"github.com/mailtemp/tempmail/services/email"
	"github.com/mailtemp/tempmail/services/events"
	"github.com/mailtemp/tempmail/services/ingest"
	"github.com/mailtemp/tempmail/services/retention"
	"github.com/mailtemp/tempmail/services/storage"
)

type Services struct {
	// EventsService is nil when no broker is configured; inbound mail is
	// then ingested inline.
	EventsService    *events.EventsService
	RawMessageStore  interfaces.RawMessageStore
	AccountService   interfaces.AccountService
	IngestService    interfaces.IngestService
	EmailService     interfaces.EmailService
	RetentionService interfaces.RetentionService
}

func InitServices(cfg *config.Config, log logger.Logger, repos *repository.Repositories) (*Services, error) {
	rawStore := storage.NewR2RawMessageStore(cfg.R2StorageConfig)
	accountService := account.NewAccountService(repos.AccountRepository, cfg.AppConfig)

	services := Services{
		RawMessageStore: rawStore,
		AccountService:  accountService,
		IngestService: ingest.NewIngestService(
			log,
			repos.EmailRepository,
			accountService,
			rawStore,
			cfg.AppConfig,
			cfg.ParserConfig,
		),
		EmailService: email.NewEmailService(repos.EmailRepository, rawStore),
		RetentionService: retention.NewRetentionService(
			log,
			repos.EmailRepository,
			repos.AccountRepository,
			rawStore,
			cfg.Cron.RetentionBatchSize,
		),
	}

	if cfg.AppConfig.RabbitMQURL != "" {
		eventsService, err := events.NewEventsService(
			cfg.AppConfig.RabbitMQURL,
			log,
			events.DefaultPublisherConfig(),
			events.DefaultSubscriberConfig(),
		)
		if err != nil {
			return nil, err
		}
		services.EventsService = eventsService
	} else {
		log.Warn("RABBITMQ_URL not set, inbound mail is ingested inline")
	}

	return &services, nil
}

// Close releases the broker connections.
func (s *Services) Close() error {
	if s.EventsService == nil {
		return nil
	}
	return s.EventsService.Close()
}
