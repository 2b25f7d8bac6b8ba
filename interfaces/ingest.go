package interfaces

import (
	"context"

	"github.com/mailtemp/tempmail/dto"
	"github.com/mailtemp/tempmail/internal/models"
)

type IngestService interface {
	// Ingest parses, stores and archives one inbound message.
	Ingest(ctx context.Context, message dto.InboundEmail) (*models.Email, error)
}

type EmailService interface {
	Inbox(ctx context.Context, address string) ([]*models.Email, error)
	// Get returns the email prepared for display, with the display-time
	// rescue and reclassification applied.
	Get(ctx context.Context, address, id string) (*models.Email, error)
	Raw(ctx context.Context, address, id string) ([]byte, error)
}
