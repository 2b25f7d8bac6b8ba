package storage

import (
	"bytes"
	"context"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/mailtemp/tempmail/interfaces"
	"github.com/mailtemp/tempmail/internal/tracing"
	"github.com/mailtemp/tempmail/services/storage/aws_client"
)

const RawMessageContentType = "message/rfc822"

// rawMessageStore archives raw messages as .eml objects in one bucket.
type rawMessageStore struct {
	client     aws_client.S3Client
	bucketName string
}

type StorageConfig struct {
	BucketName string
}

func NewRawMessageStore(client aws_client.S3Client, config StorageConfig) interfaces.RawMessageStore {
	return &rawMessageStore{
		client:     client,
		bucketName: config.BucketName,
	}
}

func (s *rawMessageStore) Archive(ctx context.Context, address, emailID string, raw []byte) (string, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "rawMessageStore.Archive")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagAddress(span, address)
	tracing.TagEntity(span, emailID)

	key := RawMessageKey(address, emailID)
	span.LogKV("key", key, "size", len(raw))

	err := s.client.Upload(ctx, s3manager.UploadInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String(RawMessageContentType),
	})
	if err != nil {
		tracing.TraceErr(span, err)
		return "", errors.Wrap(err, "failed to upload raw message")
	}
	return key, nil
}

func (s *rawMessageStore) Fetch(ctx context.Context, key string) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "rawMessageStore.Fetch")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("key", key)

	content, err := s.client.Download(ctx, s.bucketName, key)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to download raw message")
	}
	span.LogKV("size", len(content))

	return content, nil
}

func (s *rawMessageStore) Remove(ctx context.Context, key string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "rawMessageStore.Remove")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	span.LogKV("key", key)

	if err := s.client.Delete(ctx, s.bucketName, key); err != nil {
		tracing.TraceErr(span, err)
		return errors.Wrap(err, "failed to delete raw message")
	}
	return nil
}

// RawMessageKey is the object key of the archived raw message of an email,
// grouped by domain and mailbox.
func RawMessageKey(address, emailID string) string {
	local, domain, _ := strings.Cut(address, "@")
	return "raw/" + domain + "/" + local + "/" + emailID + ".eml"
}
