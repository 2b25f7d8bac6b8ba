package handlers

import (
	"github.com/mailtemp/tempmail/config"
	"github.com/mailtemp/tempmail/interfaces"
	"github.com/mailtemp/tempmail/internal/logger"
	"github.com/mailtemp/tempmail/services"
)

type APIHandlers struct {
	API     *APIHandler
	Inbound *InboundHandler
	UI      *UIHandler
}

func InitHandlers(cfg *config.AppConfig, s *services.Services, log logger.Logger) *APIHandlers {
	var publisher interfaces.EventPublisher
	if s.EventsService != nil && s.EventsService.Publisher != nil {
		publisher = s.EventsService.Publisher
	}

	return &APIHandlers{
		API:     NewAPIHandler(s.AccountService, s.EmailService),
		Inbound: NewInboundHandler(log, publisher, s.IngestService, cfg.MaxInboundBytes),
		UI:      NewUIHandler(s.AccountService, s.EmailService, cfg),
	}
}
