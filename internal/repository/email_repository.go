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

const defaultInboxLimit = 200

type emailRepository struct {
	db *gorm.DB
}

func NewEmailRepository(db *gorm.DB) interfaces.EmailRepository {
	return &emailRepository{
		db: db,
	}
}

func (r *emailRepository) Create(ctx context.Context, email *models.Email) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.Create")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagAddress(span, email.Address)

	result := r.db.WithContext(ctx).Create(email)
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return result.Error
	}
	tracing.TagEntity(span, email.ID)

	return nil
}

func (r *emailRepository) GetByID(ctx context.Context, address, id string) (*models.Email, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.GetByID")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagEntity(span, id)

	var email models.Email
	err := r.db.WithContext(ctx).
		Where("id = ? AND address = ? AND expires_at > ?", id, address, time.Now().UTC()).
		First(&email).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		tracing.TraceErr(span, err)
		return nil, err
	}
	return &email, nil
}

func (r *emailRepository) ListByAddress(ctx context.Context, address string, limit int) ([]*models.Email, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.ListByAddress")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)
	tracing.TagAddress(span, address)

	if limit <= 0 {
		limit = defaultInboxLimit
	}

	var emails []*models.Email
	err := r.db.WithContext(ctx).
		Where("address = ? AND expires_at > ?", address, time.Now().UTC()).
		Order("received_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&emails).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.LogKV("result.count", len(emails))

	return emails, nil
}

func (r *emailRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.Email, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.ListExpired")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	var emails []*models.Email
	err := r.db.WithContext(ctx).
		Select("id", "address", "raw_object_key", "expires_at").
		Where("expires_at <= ?", now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&emails).Error
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	span.LogKV("result.count", len(emails))

	return emails, nil
}

func (r *emailRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailRepository.DeleteByIDs")
	defer span.Finish()
	tracing.SetDefaultPostgresRepositorySpanTags(ctx, span)

	if len(ids) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&models.Email{})
	if result.Error != nil {
		tracing.TraceErr(span, result.Error)
		return 0, result.Error
	}
	span.LogKV("result.deleted", result.RowsAffected)

	return result.RowsAffected, nil
}
