package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailtemp/tempmail/dto"
	"github.com/mailtemp/tempmail/interfaces"
	"github.com/mailtemp/tempmail/internal/enum"
	"github.com/mailtemp/tempmail/internal/logger"
	"github.com/mailtemp/tempmail/internal/utils"
)

type recordingListener struct {
	BaseEventListener
	handled []dto.InboundEmail
	address string
	err     error
}

func (l *recordingListener) Handle(ctx context.Context, baseEvent any) error {
	event, err := l.ValidateBaseEvent(ctx, baseEvent)
	if err != nil {
		return err
	}
	message, err := DecodeEventData[dto.InboundEmail](ctx, event)
	if err != nil {
		return err
	}
	l.handled = append(l.handled, message)
	l.address = utils.GetAddressFromContext(ctx)
	return l.err
}

func newTestSubscriber(listeners ...interfaces.EventListener) *RabbitMQSubscriber {
	s := &RabbitMQSubscriber{
		logger:    logger.NewNopLogger(),
		listeners: map[string]interfaces.EventListener{},
		closed:    make(chan struct{}),
	}
	for _, l := range listeners {
		s.RegisterListener(l)
	}
	return s
}

func encodedEvent(t *testing.T, message dto.InboundEmail) []byte {
	t.Helper()
	span := opentracing.StartSpan("test")
	defer span.Finish()

	body, err := json.Marshal(newEvent(context.Background(), span, message.To, message))
	require.NoError(t, err)
	return body
}

func TestNewEvent(t *testing.T) {
	span := opentracing.StartSpan("test")
	defer span.Finish()
	message := dto.InboundEmail{From: "a@b.c", To: "bodi12@qubit.qzz.io", Raw: "Subject: x\r\n\r\nhi"}

	event := newEvent(context.Background(), span, message.To, message)

	assert.Equal(t, "InboundEmail", event.Event.EventType)
	assert.Equal(t, "bodi12@qubit.qzz.io", event.Event.EntityId)
	assert.Equal(t, AppSourceTempmail, event.Metadata.AppSource)
	_, err := uuid.Parse(event.Event.Id)
	assert.NoError(t, err)
	_, err = time.Parse(time.RFC3339, event.Metadata.Timestamp)
	assert.NoError(t, err)
}

func TestGetEventType(t *testing.T) {
	assert.Equal(t, "InboundEmail", GetEventType[dto.InboundEmail]())
	assert.Equal(t, "InboundEmail", GetEventType[*dto.InboundEmail]())
}

func TestProcessMessage_DispatchesToListener(t *testing.T) {
	listener := &recordingListener{
		BaseEventListener: NewBaseEventListener(logger.NewNopLogger(), GetEventType[dto.InboundEmail](), QueueInboundEmail),
	}
	subscriber := newTestSubscriber(listener)
	message := dto.InboundEmail{
		From:   "sender@example.com",
		To:     "bodi12@qubit.qzz.io",
		Raw:    "Subject: hi\r\n\r\nbody",
		Source: enum.EmailSourceWebhook,
	}

	err := subscriber.processMessage(encodedEvent(t, message), QueueInboundEmail)

	require.NoError(t, err)
	require.Len(t, listener.handled, 1)
	assert.Equal(t, message.Raw, listener.handled[0].Raw)
	assert.Equal(t, enum.EmailSourceWebhook, listener.handled[0].Source)
	assert.Equal(t, "bodi12@qubit.qzz.io", listener.address)
}

func TestProcessMessage_ListenerErrorIsReturned(t *testing.T) {
	listener := &recordingListener{
		BaseEventListener: NewBaseEventListener(logger.NewNopLogger(), GetEventType[dto.InboundEmail](), QueueInboundEmail),
		err:               errors.New("db down"),
	}
	subscriber := newTestSubscriber(listener)

	err := subscriber.processMessage(encodedEvent(t, dto.InboundEmail{To: "x@y.z", Raw: "r"}), QueueInboundEmail)

	assert.EqualError(t, err, "db down")
}

func TestProcessMessage_IgnoresUnroutable(t *testing.T) {
	listener := &recordingListener{
		BaseEventListener: NewBaseEventListener(logger.NewNopLogger(), GetEventType[dto.InboundEmail](), QueueInboundEmail),
	}
	subscriber := newTestSubscriber(listener)
	body := encodedEvent(t, dto.InboundEmail{To: "x@y.z", Raw: "r"})

	assert.NoError(t, subscriber.processMessage(body, "some-other-queue"))
	assert.Empty(t, listener.handled)

	assert.NoError(t, newTestSubscriber().processMessage(body, QueueInboundEmail))
}

func TestProcessMessage_MalformedBody(t *testing.T) {
	err := newTestSubscriber().processMessage([]byte("{not json"), QueueInboundEmail)
	assert.ErrorContains(t, err, "failed to unmarshal message")
}

func TestValidateBaseEvent(t *testing.T) {
	base := NewBaseEventListener(logger.NewNopLogger(), "InboundEmail", QueueInboundEmail)
	ctx := context.Background()

	_, err := base.ValidateBaseEvent(ctx, "not an event")
	assert.Error(t, err)

	_, err = base.ValidateBaseEvent(ctx, dto.Event{Event: dto.EventDetails{EntityId: "a", EventType: "InboundEmail"}})
	assert.EqualError(t, err, "message data is nil")

	_, err = base.ValidateBaseEvent(ctx, dto.Event{Event: dto.EventDetails{Data: map[string]any{}, EventType: "InboundEmail"}})
	assert.EqualError(t, err, "entity id is empty")

	_, err = base.ValidateBaseEvent(ctx, dto.Event{Event: dto.EventDetails{Data: map[string]any{}, EntityId: "a", EventType: "Other"}})
	assert.Error(t, err)

	event, err := base.ValidateBaseEvent(ctx, dto.Event{Event: dto.EventDetails{Data: map[string]any{}, EntityId: "a", EventType: "InboundEmail"}})
	require.NoError(t, err)
	assert.Equal(t, "a", event.Event.EntityId)
}

func TestQueueArguments(t *testing.T) {
	args := queueArguments(30 * time.Minute)

	assert.Equal(t, ExchangeDeadLetter, args["x-dead-letter-exchange"])
	assert.Equal(t, RoutingKeyDeadLetter, args["x-dead-letter-routing-key"])
	assert.Equal(t, int64(1800000), args["x-message-ttl"])
}
