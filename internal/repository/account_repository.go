package repository

import (
	"context"
	"errors"
	"time"

	"github.com/opentracing/opentracing-go"
	"gorm.io/gorm"

	"github.com/mailtemp/tempmail/interfaces"
	"github.com/mailtemp/tempmail/internal/models"
	"github.com/mailtemp/tempmail/internal/tracing"
)

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) interfaces.AccountRepository {
	return &accountRepository{
		db: db,
	}
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "accountRepository.Create")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagAddress(span, account.Address)

	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		tracing.TraceErr(span, err)
		return err
	}
	return nil
}

func (r *accountRepository) GetByAddress(ctx context.Context, address string) (*models.Account, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "accountRepository.GetByAddress")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagAddress(span, address)

	var account models.Account
	err := r.db.WithContext(ctx).
		Where("address = ? AND expires_at > ?", address, time.Now().UTC()).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) Exists(ctx context.Context, address string) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "accountRepository.Exists")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagAddress(span, address)

	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("address = ? AND expires_at > ?", address, time.Now().UTC()).
		Count(&count).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return false, err
	}
	return count > 0, nil
}

func (r *accountRepository) ExtendExpiry(ctx context.Context, address string, expiresAt time.Time) (bool, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "accountRepository.ExtendExpiry")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagAddress(span, address)

	result := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("address = ? AND expires_at > ?", address, time.Now().UTC()).
		Update("expires_at", expiresAt)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *accountRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "accountRepository.DeleteExpired")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.Account{})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return 0, result.Error
	}
	span.LogKV("result.deleted", result.RowsAffected)

	return result.RowsAffected, nil
}
