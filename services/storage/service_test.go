package storage

import (
	"context"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mailtemp/tempmail/config"
)

type mockS3Client struct {
	mock.Mock
}

func (m *mockS3Client) Upload(ctx context.Context, uploadContainer s3manager.UploadInput) error {
	args := m.Called(ctx, uploadContainer)
	return args.Error(0)
}

func (m *mockS3Client) Download(ctx context.Context, bucket, key string) ([]byte, error) {
	args := m.Called(ctx, bucket, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *mockS3Client) Delete(ctx context.Context, bucket, key string) error {
	args := m.Called(ctx, bucket, key)
	return args.Error(0)
}

func TestArchive(t *testing.T) {
	client := &mockS3Client{}
	store := NewRawMessageStore(client, StorageConfig{BucketName: "raw-messages"})
	raw := []byte("Subject: hi\r\n\r\nbody")

	var captured s3manager.UploadInput
	client.On("Upload", mock.Anything, mock.AnythingOfType("s3manager.UploadInput")).
		Run(func(args mock.Arguments) {
			captured = args.Get(1).(s3manager.UploadInput)
		}).
		Return(nil)

	key, err := store.Archive(context.Background(), "bodi12@example.com", "1-aaaaaa", raw)
	require.NoError(t, err)

	assert.Equal(t, "raw/example.com/bodi12/1-aaaaaa.eml", key)
	assert.Equal(t, "raw-messages", aws.StringValue(captured.Bucket))
	assert.Equal(t, key, aws.StringValue(captured.Key))
	assert.Equal(t, RawMessageContentType, aws.StringValue(captured.ContentType))
	body, err := io.ReadAll(captured.Body)
	require.NoError(t, err)
	assert.Equal(t, raw, body)
	client.AssertExpectations(t)
}

func TestArchive_UploadFailure(t *testing.T) {
	client := &mockS3Client{}
	store := NewRawMessageStore(client, StorageConfig{BucketName: "raw-messages"})
	client.On("Upload", mock.Anything, mock.Anything).Return(errors.New("r2 down"))

	key, err := store.Archive(context.Background(), "bodi12@example.com", "1-aaaaaa", []byte("x"))
	assert.Error(t, err)
	assert.Empty(t, key)
}

func TestFetch(t *testing.T) {
	client := &mockS3Client{}
	store := NewRawMessageStore(client, StorageConfig{BucketName: "raw-messages"})
	client.On("Download", mock.Anything, "raw-messages", "raw/x.eml").Return([]byte("data"), nil)
	client.On("Download", mock.Anything, "raw-messages", "raw/missing.eml").Return(nil, errors.New("NoSuchKey"))

	data, err := store.Fetch(context.Background(), "raw/x.eml")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)

	_, err = store.Fetch(context.Background(), "raw/missing.eml")
	assert.ErrorContains(t, err, "NoSuchKey")
}

func TestRemove(t *testing.T) {
	client := &mockS3Client{}
	store := NewRawMessageStore(client, StorageConfig{BucketName: "raw-messages"})
	client.On("Delete", mock.Anything, "raw-messages", "raw/x.eml").Return(nil)

	assert.NoError(t, store.Remove(context.Background(), "raw/x.eml"))
	client.AssertExpectations(t)
}

func TestRawMessageKey(t *testing.T) {
	assert.Equal(t, "raw/qubit.qzz.io/bodi12/1700000000000-abc123.eml", RawMessageKey("bodi12@qubit.qzz.io", "1700000000000-abc123"))
}

func TestNewR2RawMessageStore_Disabled(t *testing.T) {
	assert.Nil(t, NewR2RawMessageStore(&config.R2StorageConfig{}))
	assert.NotNil(t, NewR2RawMessageStore(&config.R2StorageConfig{AccountID: "acc", RawMessageBucket: "b"}))
}
