package interfaces

import (
	"context"

	"github.com/mailtemp/tempmail/internal/models"
)

type AccountService interface {
	Domains() []string
	// Create issues a new address on domain; "" selects the default domain.
	Create(ctx context.Context, domain string) (*models.Account, error)
	// Authenticate checks address and secret against a live account.
	Authenticate(ctx context.Context, address, secret string) (*models.Account, error)
	// Restore is Authenticate with distinct errors for an unknown account and
	// a wrong secret.
	Restore(ctx context.Context, address, secret string) (*models.Account, error)
	Exists(ctx context.Context, address string) (bool, error)
	KeepAlive(ctx context.Context, address string) (bool, error)
}
