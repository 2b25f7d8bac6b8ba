package ingest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mailtemp/tempmail/config"
	"github.com/mailtemp/tempmail/dto"
	tempmail_errors "github.com/mailtemp/tempmail/errors"
	"github.com/mailtemp/tempmail/interfaces"
	"github.com/mailtemp/tempmail/internal/enum"
	"github.com/mailtemp/tempmail/internal/logger"
	"github.com/mailtemp/tempmail/internal/mocks"
	"github.com/mailtemp/tempmail/internal/models"
	"github.com/mailtemp/tempmail/internal/parser"
)

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

const alternativeMessage = "From: Alice <alice@example.org>\r\n" +
	"To: bodi12@example.com\r\n" +
	"Subject: =?UTF-8?B?SGVsbG8gd29ybGQ=?=\r\n" +
	"Message-Id: <abc@example.org>\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=\"b1\"\r\n" +
	"\r\n" +
	"--b1\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"plain\r\n" +
	"--b1\r\n" +
	"Content-Type: text/html\r\n" +
	"\r\n" +
	"<p>Hi <script>alert(1)</script><a href=\"https://example.org\" onclick=\"x()\">there</a></p>\r\n" +
	"--b1--\r\n"

type fixture struct {
	emails   *mocks.EmailRepository
	accounts *mocks.AccountService
	rawStore *mocks.RawMessageStore
}

func newTestService(f *fixture, withStorage bool) *ingestService {
	var store interfaces.RawMessageStore
	if withStorage {
		store = f.rawStore
	}
	svc := NewIngestService(
		logger.NewNopLogger(),
		f.emails,
		f.accounts,
		store,
		&config.AppConfig{EmailTTL: 30 * time.Minute},
		&config.ParserConfig{MaxDepth: 50, MaxParts: 10000},
	).(*ingestService)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func newFixture() *fixture {
	return &fixture{
		emails:   &mocks.EmailRepository{},
		accounts: &mocks.AccountService{},
		rawStore: &mocks.RawMessageStore{},
	}
}

func TestIngest_StoresRenderedEmail(t *testing.T) {
	f := newFixture()
	f.emails.On("Create", mock.Anything, mock.AnythingOfType("*models.Email")).Return(nil)
	f.accounts.On("KeepAlive", mock.Anything, "bodi12@example.com").Return(true, nil)
	svc := newTestService(f, false)

	email, err := svc.Ingest(context.Background(), dto.InboundEmail{
		From: "bounce@example.org",
		To:   "Bodi12@Example.com",
		Raw:  alternativeMessage,
	})
	require.NoError(t, err)

	assert.Equal(t, "bodi12@example.com", email.Address)
	assert.Equal(t, "bounce@example.org", email.FromAddress)
	assert.Equal(t, "Hello world", email.Subject)
	assert.Equal(t, parser.KindHTML, email.BodyType)
	assert.NotContains(t, email.Body, "<script")
	assert.NotContains(t, email.Body, "onclick")
	assert.Contains(t, email.Body, `target="_blank"`)
	assert.Equal(t, "Hi there", email.Preview)
	assert.Equal(t, fixedNow, email.ReceivedAt)
	assert.Equal(t, fixedNow.Add(30*time.Minute), email.ExpiresAt)
	assert.Equal(t, enum.EmailSourceWebhook, email.Source)
	assert.Regexp(t, `^\d+-[a-z0-9]{6}$`, email.ID)
	assert.True(t, strings.HasPrefix(email.ID, "1740830400000-"))
	assert.Equal(t, []string{"<abc@example.org>"}, email.Headers["message-id"])
	assert.Empty(t, email.RawObjectKey)

	f.emails.AssertExpectations(t)
	f.accounts.AssertExpectations(t)
}

func TestIngest_DefaultSubjectAndHeaderFrom(t *testing.T) {
	f := newFixture()
	f.emails.On("Create", mock.Anything, mock.AnythingOfType("*models.Email")).Return(nil)
	f.accounts.On("KeepAlive", mock.Anything, "bodi12@example.com").Return(false, nil)
	svc := newTestService(f, false)

	email, err := svc.Ingest(context.Background(), dto.InboundEmail{
		To:     "bodi12@example.com",
		Raw:    "From: carol@example.net\r\n\r\nvisit https://example.net now",
		Source: enum.EmailSourceMboxImport,
	})
	require.NoError(t, err)

	assert.Equal(t, defaultSubject, email.Subject)
	assert.Equal(t, "carol@example.net", email.FromAddress)
	assert.Equal(t, parser.KindText, email.BodyType)
	assert.Contains(t, email.Body, `<a href="https://example.net"`)
	assert.Equal(t, enum.EmailSourceMboxImport, email.Source)
}

func TestIngest_UnknownRecipientIsStillStored(t *testing.T) {
	f := newFixture()
	f.emails.On("Create", mock.Anything, mock.AnythingOfType("*models.Email")).Return(nil)
	f.accounts.On("KeepAlive", mock.Anything, "nobody@example.com").Return(false, nil)
	svc := newTestService(f, false)

	_, err := svc.Ingest(context.Background(), dto.InboundEmail{To: "nobody@example.com", Raw: "hello"})
	require.NoError(t, err)
	f.emails.AssertNumberOfCalls(t, "Create", 1)
}

func TestIngest_KeepAliveFailureDoesNotFail(t *testing.T) {
	f := newFixture()
	f.emails.On("Create", mock.Anything, mock.AnythingOfType("*models.Email")).Return(nil)
	f.accounts.On("KeepAlive", mock.Anything, "bodi12@example.com").Return(false, errors.New("db down"))
	svc := newTestService(f, false)

	email, err := svc.Ingest(context.Background(), dto.InboundEmail{To: "bodi12@example.com", Raw: "hello"})
	require.NoError(t, err)
	assert.NotNil(t, email)
}

func TestIngest_Validation(t *testing.T) {
	f := newFixture()
	svc := newTestService(f, false)

	_, err := svc.Ingest(context.Background(), dto.InboundEmail{To: " ", Raw: "hello"})
	assert.ErrorIs(t, err, tempmail_errors.ErrMissingAddress)

	_, err = svc.Ingest(context.Background(), dto.InboundEmail{To: "bodi12@example.com", Raw: " \r\n"})
	assert.ErrorIs(t, err, tempmail_errors.ErrEmptyRawMessage)

	f.emails.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestIngest_RepositoryErrorIsReturned(t *testing.T) {
	f := newFixture()
	f.emails.On("Create", mock.Anything, mock.AnythingOfType("*models.Email")).Return(errors.New("db down"))
	svc := newTestService(f, false)

	_, err := svc.Ingest(context.Background(), dto.InboundEmail{To: "bodi12@example.com", Raw: "hello"})
	require.Error(t, err)
	f.accounts.AssertNotCalled(t, "KeepAlive", mock.Anything, mock.Anything)
}

func TestIngest_ArchivesRawMessage(t *testing.T) {
	f := newFixture()
	raw := "Subject: hi\r\n\r\nbody"
	f.rawStore.On("Archive", mock.Anything, "bodi12@example.com", mock.MatchedBy(func(id string) bool {
		return strings.HasPrefix(id, "1740830400000-")
	}), []byte(raw)).Return("raw/example.com/bodi12/x.eml", nil)
	f.emails.On("Create", mock.Anything, mock.MatchedBy(func(email *models.Email) bool {
		return email.RawObjectKey == "raw/example.com/bodi12/x.eml"
	})).Return(nil)
	f.accounts.On("KeepAlive", mock.Anything, "bodi12@example.com").Return(true, nil)
	svc := newTestService(f, true)

	_, err := svc.Ingest(context.Background(), dto.InboundEmail{To: "bodi12@example.com", Raw: raw})
	require.NoError(t, err)
	f.rawStore.AssertExpectations(t)
	f.emails.AssertExpectations(t)
}

func TestIngest_ArchiveFailureKeepsEmail(t *testing.T) {
	f := newFixture()
	f.rawStore.On("Archive", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("r2 down"))
	f.emails.On("Create", mock.Anything, mock.AnythingOfType("*models.Email")).Return(nil)
	f.accounts.On("KeepAlive", mock.Anything, "bodi12@example.com").Return(true, nil)
	svc := newTestService(f, true)

	email, err := svc.Ingest(context.Background(), dto.InboundEmail{To: "bodi12@example.com", Raw: "hello"})
	require.NoError(t, err)
	assert.Empty(t, email.RawObjectKey)
}

func TestReadRawEnvelope(t *testing.T) {
	env := readRawEnvelope("Subject: raw subject\r\nFrom: x@example.org\r\n\r\nbody")
	assert.Equal(t, "raw subject", env.subject)
	assert.Equal(t, "x@example.org", env.from)
	assert.Equal(t, []string{"raw subject"}, env.headers["subject"])

	env = readRawEnvelope("no headers at all")
	assert.Equal(t, defaultSubject, env.subject)
	assert.Empty(t, env.from)
}
