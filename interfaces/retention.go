package interfaces

import (
	"context"
	"time"
)

type SweepResult struct {
	EmailsDeleted   int64
	ObjectsDeleted  int
	AccountsDeleted int64
}

type RetentionService interface {
	// Sweep removes every email and account that expired before now, along
	// with the archived raw messages of the removed emails.
	Sweep(ctx context.Context, now time.Time) (SweepResult, error)
}
