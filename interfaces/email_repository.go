package interfaces

import (
	"context"
	"time"

	"github.com/mailtemp/tempmail/internal/models"
)

type EmailRepository interface {
	Create(ctx context.Context, email *models.Email) error
	// GetByID returns nil, nil when the email does not exist, belongs to
	// another address or has expired.
	GetByID(ctx context.Context, address, id string) (*models.Email, error)
	// ListByAddress returns live emails, newest first.
	ListByAddress(ctx context.Context, address string, limit int) ([]*models.Email, error)
	// ListExpired returns up to limit emails past their expiry, oldest first.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.Email, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}
