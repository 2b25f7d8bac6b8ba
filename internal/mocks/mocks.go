// Package mocks holds testify mocks of the service and repository
// interfaces, shared by the package tests.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/mailtemp/tempmail/dto"
	"github.com/mailtemp/tempmail/internal/models"
)

type AccountRepository struct {
	mock.Mock
}

func (m *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	return m.Called(ctx, account).Error(0)
}

func (m *AccountRepository) GetByAddress(ctx context.Context, address string) (*models.Account, error) {
	args := m.Called(ctx, address)
	account, _ := args.Get(0).(*models.Account)
	return account, args.Error(1)
}

func (m *AccountRepository) Exists(ctx context.Context, address string) (bool, error) {
	args := m.Called(ctx, address)
	return args.Bool(0), args.Error(1)
}

func (m *AccountRepository) ExtendExpiry(ctx context.Context, address string, expiresAt time.Time) (bool, error) {
	args := m.Called(ctx, address, expiresAt)
	return args.Bool(0), args.Error(1)
}

func (m *AccountRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

type EmailRepository struct {
	mock.Mock
}

func (m *EmailRepository) Create(ctx context.Context, email *models.Email) error {
	return m.Called(ctx, email).Error(0)
}

func (m *EmailRepository) GetByID(ctx context.Context, address, id string) (*models.Email, error) {
	args := m.Called(ctx, address, id)
	email, _ := args.Get(0).(*models.Email)
	return email, args.Error(1)
}

func (m *EmailRepository) ListByAddress(ctx context.Context, address string, limit int) ([]*models.Email, error) {
	args := m.Called(ctx, address, limit)
	emails, _ := args.Get(0).([]*models.Email)
	return emails, args.Error(1)
}

func (m *EmailRepository) ListExpired(ctx context.Context, now time.Time, limit int) ([]*models.Email, error) {
	args := m.Called(ctx, now, limit)
	emails, _ := args.Get(0).([]*models.Email)
	return emails, args.Error(1)
}

func (m *EmailRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

type RawMessageStore struct {
	mock.Mock
}

func (m *RawMessageStore) Archive(ctx context.Context, address, emailID string, raw []byte) (string, error) {
	args := m.Called(ctx, address, emailID, raw)
	return args.String(0), args.Error(1)
}

func (m *RawMessageStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *RawMessageStore) Remove(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

type AccountService struct {
	mock.Mock
}

func (m *AccountService) Domains() []string {
	domains, _ := m.Called().Get(0).([]string)
	return domains
}

func (m *AccountService) Create(ctx context.Context, domain string) (*models.Account, error) {
	args := m.Called(ctx, domain)
	account, _ := args.Get(0).(*models.Account)
	return account, args.Error(1)
}

func (m *AccountService) Authenticate(ctx context.Context, address, secret string) (*models.Account, error) {
	args := m.Called(ctx, address, secret)
	account, _ := args.Get(0).(*models.Account)
	return account, args.Error(1)
}

func (m *AccountService) Restore(ctx context.Context, address, secret string) (*models.Account, error) {
	args := m.Called(ctx, address, secret)
	account, _ := args.Get(0).(*models.Account)
	return account, args.Error(1)
}

func (m *AccountService) Exists(ctx context.Context, address string) (bool, error) {
	args := m.Called(ctx, address)
	return args.Bool(0), args.Error(1)
}

func (m *AccountService) KeepAlive(ctx context.Context, address string) (bool, error) {
	args := m.Called(ctx, address)
	return args.Bool(0), args.Error(1)
}

type IngestService struct {
	mock.Mock
}

func (m *IngestService) Ingest(ctx context.Context, message dto.InboundEmail) (*models.Email, error) {
	args := m.Called(ctx, message)
	email, _ := args.Get(0).(*models.Email)
	return email, args.Error(1)
}

type EmailService struct {
	mock.Mock
}

func (m *EmailService) Inbox(ctx context.Context, address string) ([]*models.Email, error) {
	args := m.Called(ctx, address)
	emails, _ := args.Get(0).([]*models.Email)
	return emails, args.Error(1)
}

func (m *EmailService) Get(ctx context.Context, address, id string) (*models.Email, error) {
	args := m.Called(ctx, address, id)
	email, _ := args.Get(0).(*models.Email)
	return email, args.Error(1)
}

func (m *EmailService) Raw(ctx context.Context, address, id string) ([]byte, error) {
	args := m.Called(ctx, address, id)
	raw, _ := args.Get(0).([]byte)
	return raw, args.Error(1)
}

type EventPublisher struct {
	mock.Mock
}

func (m *EventPublisher) PublishInboundEmail(ctx context.Context, message dto.InboundEmail) error {
	return m.Called(ctx, message).Error(0)
}

func (m *EventPublisher) Close() error {
	return m.Called().Error(0)
}
