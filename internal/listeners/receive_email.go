package listeners

import (
	"context"

	"github.com/opentracing/opentracing-go"

	"github.com/mailtemp/tempmail/dto"
	"github.com/mailtemp/tempmail/interfaces"
	"github.com/mailtemp/tempmail/internal/enum"
	"github.com/mailtemp/tempmail/internal/logger"
	"github.com/mailtemp/tempmail/internal/tracing"
	"github.com/mailtemp/tempmail/services/events"
)

type InboundEmailListener struct {
	events.BaseEventListener
	ingestService interfaces.IngestService
}

func NewInboundEmailListener(logger logger.Logger, ingestService interfaces.IngestService) interfaces.EventListener {
	return &InboundEmailListener{
		BaseEventListener: events.NewBaseEventListener(
			logger,
			events.GetEventType[dto.InboundEmail](), // subscribed event
			events.QueueInboundEmail,                // listening on Direct queue
		),
		ingestService: ingestService,
	}
}

func (l *InboundEmailListener) Handle(ctx context.Context, baseEvent any) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "InboundEmailListener.Handle")
	defer span.Finish()
	tracing.SetDefaultListenerSpanTags(ctx, span)

	validatedEvent, err := l.ValidateBaseEvent(ctx, baseEvent)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	span.SetTag(tracing.SpanTagEntityId, validatedEvent.Event.Id)

	inboundEmail, err := events.DecodeEventData[dto.InboundEmail](ctx, validatedEvent)
	if err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	tracing.TagAddress(span, inboundEmail.To)
	if inboundEmail.Source == "" {
		inboundEmail.Source = enum.EmailSourceQueue
	}

	email, err := l.ingestService.Ingest(ctx, inboundEmail)
	if err != nil {
		tracing.TraceErr(span, err)
		l.Logger().Errorf("failed to ingest email for %s: %v", inboundEmail.To, err)
		return err
	}
	l.Logger().Debugf("ingested email %s for %s", email.ID, email.Address)
	return nil
}
