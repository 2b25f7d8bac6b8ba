package retention

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/mailtemp/tempmail/interfaces"
	"github.com/mailtemp/tempmail/internal/logger"
	"github.com/mailtemp/tempmail/internal/tracing"
)

const (
	DefaultBatchSize = 500
	// bounds a single sweep, the next run picks up the rest
	maxBatchesPerSweep = 50
)

type retentionService struct {
	log       logger.Logger
	emails    interfaces.EmailRepository
	accounts  interfaces.AccountRepository
	rawStore  interfaces.RawMessageStore
	batchSize int
}

func NewRetentionService(
	log logger.Logger,
	emails interfaces.EmailRepository,
	accounts interfaces.AccountRepository,
	rawStore interfaces.RawMessageStore,
	batchSize int,
) interfaces.RetentionService {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &retentionService{
		log:       log,
		emails:    emails,
		accounts:  accounts,
		rawStore:  rawStore,
		batchSize: batchSize,
	}
}

func (s *retentionService) Sweep(ctx context.Context, now time.Time) (interfaces.SweepResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "retentionService.Sweep")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	var result interfaces.SweepResult

	for batch := 0; batch < maxBatchesPerSweep; batch++ {
		expired, err := s.emails.ListExpired(ctx, now, s.batchSize)
		if err != nil {
			tracing.TraceErr(span, err)
			return result, errors.Wrap(err, "failed to list expired emails")
		}
		if len(expired) == 0 {
			break
		}

		ids := make([]string, 0, len(expired))
		for _, email := range expired {
			ids = append(ids, email.ID)
			if email.RawObjectKey == "" || s.rawStore == nil {
				continue
			}
			if err := s.rawStore.Remove(ctx, email.RawObjectKey); err != nil {
				// the object outlives its row, bucket lifecycle rules catch it
				s.log.Warnf("failed to delete raw message %s: %v", email.RawObjectKey, err)
				continue
			}
			result.ObjectsDeleted++
		}

		deleted, err := s.emails.DeleteByIDs(ctx, ids)
		if err != nil {
			tracing.TraceErr(span, err)
			return result, errors.Wrap(err, "failed to delete expired emails")
		}
		result.EmailsDeleted += deleted

		if len(expired) < s.batchSize {
			break
		}
	}

	accounts, err := s.accounts.DeleteExpired(ctx, now)
	if err != nil {
		tracing.TraceErr(span, err)
		return result, errors.Wrap(err, "failed to delete expired accounts")
	}
	result.AccountsDeleted = accounts

	span.LogKV("emails_deleted", result.EmailsDeleted, "objects_deleted", result.ObjectsDeleted, "accounts_deleted", result.AccountsDeleted)
	return result, nil
}
