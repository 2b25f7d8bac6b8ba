package email

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	tempmail_errors "github.com/mailtemp/tempmail/errors"
	"github.com/mailtemp/tempmail/internal/mocks"
	"github.com/mailtemp/tempmail/internal/models"
	"github.com/mailtemp/tempmail/internal/parser"
)

func TestInbox(t *testing.T) {
	repo := &mocks.EmailRepository{}
	stored := []*models.Email{{ID: "2-bbbbbb"}, {ID: "1-aaaaaa"}}
	repo.On("ListByAddress", mock.Anything, "bodi12@example.com", 0).Return(stored, nil)
	svc := NewEmailService(repo, nil)

	emails, err := svc.Inbox(context.Background(), "Bodi12@Example.com")
	require.NoError(t, err)
	assert.Equal(t, stored, emails)
}

func TestInbox_MissingAddress(t *testing.T) {
	svc := NewEmailService(&mocks.EmailRepository{}, nil)

	_, err := svc.Inbox(context.Background(), "")
	assert.ErrorIs(t, err, tempmail_errors.ErrMissingAddress)
}

func TestGet_NotFound(t *testing.T) {
	repo := &mocks.EmailRepository{}
	repo.On("GetByID", mock.Anything, "bodi12@example.com", "1-aaaaaa").Return(nil, nil)
	svc := NewEmailService(repo, nil)

	_, err := svc.Get(context.Background(), "bodi12@example.com", "1-aaaaaa")
	assert.ErrorIs(t, err, tempmail_errors.ErrEmailNotFound)

	_, err = svc.Get(context.Background(), "bodi12@example.com", "")
	assert.ErrorIs(t, err, tempmail_errors.ErrEmailNotFound)
}

func TestGet_RepositoryError(t *testing.T) {
	repo := &mocks.EmailRepository{}
	repo.On("GetByID", mock.Anything, "bodi12@example.com", "1-aaaaaa").Return(nil, errors.New("db down"))
	svc := NewEmailService(repo, nil)

	_, err := svc.Get(context.Background(), "bodi12@example.com", "1-aaaaaa")
	require.Error(t, err)
	assert.NotErrorIs(t, err, tempmail_errors.ErrEmailNotFound)
}

func TestGet_AppliesDisplayTimeFixes(t *testing.T) {
	repo := &mocks.EmailRepository{}
	repo.On("GetByID", mock.Anything, "bodi12@example.com", "1-aaaaaa").Return(&models.Email{
		ID:       "1-aaaaaa",
		Address:  "bodi12@example.com",
		BodyType: parser.KindText,
		Body:     `<div style=3D"color:red">hi</div>`,
	}, nil)
	svc := NewEmailService(repo, nil)

	email, err := svc.Get(context.Background(), "bodi12@example.com", "1-aaaaaa")
	require.NoError(t, err)
	assert.Equal(t, parser.KindHTML, email.BodyType)
	assert.Equal(t, `<div style="color:red">hi</div>`, email.Body)
}

func TestGet_LeavesCleanBodiesAlone(t *testing.T) {
	repo := &mocks.EmailRepository{}
	repo.On("GetByID", mock.Anything, "bodi12@example.com", "1-aaaaaa").Return(&models.Email{
		ID:       "1-aaaaaa",
		BodyType: parser.KindText,
		Body:     "just text",
	}, nil)
	svc := NewEmailService(repo, nil)

	email, err := svc.Get(context.Background(), "bodi12@example.com", "1-aaaaaa")
	require.NoError(t, err)
	assert.Equal(t, parser.KindText, email.BodyType)
	assert.Equal(t, "just text", email.Body)
}

func TestGet_RescuedTextMovesToSandboxedView(t *testing.T) {
	repo := &mocks.EmailRepository{}
	repo.On("GetByID", mock.Anything, "bodi12@example.com", "1-aaaaaa").Return(&models.Email{
		ID:       "1-aaaaaa",
		BodyType: parser.KindText,
		Body:     "a=3Db =3Cscript=3Ealert(1)=3C/script=3E",
	}, nil)
	svc := NewEmailService(repo, nil)

	email, err := svc.Get(context.Background(), "bodi12@example.com", "1-aaaaaa")
	require.NoError(t, err)
	assert.Equal(t, parser.KindHTML, email.BodyType)
	assert.Equal(t, preformattedOpen+"a=b <script>alert(1)</script>"+preformattedClose, email.Body)
}

func TestGet_RescuedHTMLIsSanitizedAgain(t *testing.T) {
	repo := &mocks.EmailRepository{}
	repo.On("GetByID", mock.Anything, "bodi12@example.com", "1-aaaaaa").Return(&models.Email{
		ID:       "1-aaaaaa",
		BodyType: parser.KindHTML,
		Body:     "<p>a=3D b</p>=3Cscript=3Ealert(1)=3C/script=3E",
	}, nil)
	svc := NewEmailService(repo, nil)

	email, err := svc.Get(context.Background(), "bodi12@example.com", "1-aaaaaa")
	require.NoError(t, err)
	assert.Equal(t, parser.KindHTML, email.BodyType)
	assert.NotContains(t, email.Body, "<script")
	assert.Equal(t, "<p>a= b</p>", email.Body)
}

func TestGet_RescuedTextTurnedHTMLIsSanitized(t *testing.T) {
	repo := &mocks.EmailRepository{}
	repo.On("GetByID", mock.Anything, "bodi12@example.com", "1-aaaaaa").Return(&models.Email{
		ID:       "1-aaaaaa",
		BodyType: parser.KindText,
		Body:     `<div style=3D"color:red">hi</div>=3Cscript=3Ealert(1)=3C/script=3E`,
	}, nil)
	svc := NewEmailService(repo, nil)

	email, err := svc.Get(context.Background(), "bodi12@example.com", "1-aaaaaa")
	require.NoError(t, err)
	assert.Equal(t, parser.KindHTML, email.BodyType)
	assert.Equal(t, `<div style="color:red">hi</div>`, email.Body)
}

func TestRaw(t *testing.T) {
	repo := &mocks.EmailRepository{}
	store := &mocks.RawMessageStore{}
	repo.On("GetByID", mock.Anything, "bodi12@example.com", "1-aaaaaa").Return(&models.Email{
		ID:           "1-aaaaaa",
		RawObjectKey: "raw/example.com/bodi12/1-aaaaaa.eml",
	}, nil)
	store.On("Fetch", mock.Anything, "raw/example.com/bodi12/1-aaaaaa.eml").Return([]byte("Subject: hi\r\n\r\nbody"), nil)
	svc := NewEmailService(repo, store)

	raw, err := svc.Raw(context.Background(), "Bodi12@example.com", "1-aaaaaa")
	require.NoError(t, err)
	assert.Equal(t, []byte("Subject: hi\r\n\r\nbody"), raw)
}

func TestRaw_Unavailable(t *testing.T) {
	repo := &mocks.EmailRepository{}
	repo.On("GetByID", mock.Anything, "bodi12@example.com", "1-aaaaaa").Return(&models.Email{ID: "1-aaaaaa"}, nil)
	repo.On("GetByID", mock.Anything, "bodi12@example.com", "2-bbbbbb").Return(nil, nil)
	store := &mocks.RawMessageStore{}

	_, err := NewEmailService(repo, nil).Raw(context.Background(), "bodi12@example.com", "1-aaaaaa")
	assert.ErrorIs(t, err, tempmail_errors.ErrStorageDisabled)

	_, err = NewEmailService(repo, store).Raw(context.Background(), "bodi12@example.com", "1-aaaaaa")
	assert.ErrorIs(t, err, tempmail_errors.ErrRawMessageNotArchived)

	_, err = NewEmailService(repo, store).Raw(context.Background(), "bodi12@example.com", "2-bbbbbb")
	assert.ErrorIs(t, err, tempmail_errors.ErrEmailNotFound)

	store.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}
