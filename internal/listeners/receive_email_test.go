package listeners

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mailtemp/tempmail/dto"
	"github.com/mailtemp/tempmail/internal/enum"
	"github.com/mailtemp/tempmail/internal/logger"
	"github.com/mailtemp/tempmail/internal/mocks"
	"github.com/mailtemp/tempmail/internal/models"
	"github.com/mailtemp/tempmail/services/events"
)

// inboundEvent builds the event as the subscriber hands it over, with Data
// decoded from JSON into a generic map.
func inboundEvent(t *testing.T, message dto.InboundEmail) dto.Event {
	t.Helper()
	raw, err := json.Marshal(message)
	require.NoError(t, err)
	var data map[string]any
	require.NoError(t, json.Unmarshal(raw, &data))

	return dto.Event{
		Event: dto.EventDetails{
			Id:        "evt-1",
			EntityId:  message.To,
			EventType: "InboundEmail",
			Data:      data,
		},
	}
}

func TestInboundEmailListener_Subscription(t *testing.T) {
	listener := NewInboundEmailListener(logger.NewNopLogger(), &mocks.IngestService{})
	assert.Equal(t, "InboundEmail", listener.GetEventType())
	assert.Equal(t, events.QueueInboundEmail, listener.GetQueueName())
}

func TestInboundEmailListener_Ingests(t *testing.T) {
	ingest := &mocks.IngestService{}
	ingest.On("Ingest", mock.Anything, dto.InboundEmail{
		From:   "a@example.org",
		To:     "bodi12@example.com",
		Raw:    "Subject: hi\r\n\r\nbody",
		Source: enum.EmailSourceQueue,
	}).Return(&models.Email{ID: "1-aaaaaa", Address: "bodi12@example.com"}, nil)
	listener := NewInboundEmailListener(logger.NewNopLogger(), ingest)

	err := listener.Handle(context.Background(), inboundEvent(t, dto.InboundEmail{
		From: "a@example.org",
		To:   "bodi12@example.com",
		Raw:  "Subject: hi\r\n\r\nbody",
	}))
	require.NoError(t, err)
	ingest.AssertExpectations(t)
}

func TestInboundEmailListener_KeepsExplicitSource(t *testing.T) {
	ingest := &mocks.IngestService{}
	ingest.On("Ingest", mock.Anything, mock.MatchedBy(func(m dto.InboundEmail) bool {
		return m.Source == enum.EmailSourceWebhook
	})).Return(&models.Email{ID: "1-aaaaaa"}, nil)
	listener := NewInboundEmailListener(logger.NewNopLogger(), ingest)

	err := listener.Handle(context.Background(), inboundEvent(t, dto.InboundEmail{
		To:     "bodi12@example.com",
		Raw:    "hello",
		Source: enum.EmailSourceWebhook,
	}))
	require.NoError(t, err)
	ingest.AssertExpectations(t)
}

func TestInboundEmailListener_PropagatesIngestError(t *testing.T) {
	ingest := &mocks.IngestService{}
	ingest.On("Ingest", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
	listener := NewInboundEmailListener(logger.NewNopLogger(), ingest)

	err := listener.Handle(context.Background(), inboundEvent(t, dto.InboundEmail{To: "bodi12@example.com", Raw: "hello"}))
	assert.Error(t, err)
}

func TestInboundEmailListener_RejectsInvalidEvent(t *testing.T) {
	ingest := &mocks.IngestService{}
	listener := NewInboundEmailListener(logger.NewNopLogger(), ingest)

	err := listener.Handle(context.Background(), "garbage")
	assert.Error(t, err)
	ingest.AssertNotCalled(t, "Ingest", mock.Anything, mock.Anything)
}
