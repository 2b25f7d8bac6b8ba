package interfaces

import (
	"context"
	"time"

	"github.com/mailtemp/tempmail/internal/models"
)

type AccountRepository interface {
	Create(ctx context.Context, account *models.Account) error
	// GetByAddress returns nil, nil for unknown or expired accounts.
	GetByAddress(ctx context.Context, address string) (*models.Account, error)
	Exists(ctx context.Context, address string) (bool, error)
	// ExtendExpiry pushes the expiry of a live account. It reports false when
	// no live account matched.
	ExtendExpiry(ctx context.Context, address string, expiresAt time.Time) (bool, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
