package interfaces

import (
	"context"

	"github.com/mailtemp/tempmail/dto"
)

type EventPublisher interface {
	PublishInboundEmail(ctx context.Context, message dto.InboundEmail) error
	Close() error
}

type EventListener interface {
	Handle(ctx context.Context, event any) error
	GetEventType() string
	GetQueueName() string
}

type EventSubscriber interface {
	RegisterListener(listener EventListener)
	ListenQueue(queueName string) error
	ListenQueueExclusive(queueName string) error
	Close() error
}
