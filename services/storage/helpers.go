package storage

import (
	"github.com/mailtemp/tempmail/config"
	"github.com/mailtemp/tempmail/interfaces"
	"github.com/mailtemp/tempmail/services/storage/aws_client"
)

// NewR2RawMessageStore returns the raw message archive on Cloudflare R2, or
// nil when R2 is not configured.
func NewR2RawMessageStore(cfg *config.R2StorageConfig) interfaces.RawMessageStore {
	if !cfg.Enabled() {
		return nil
	}

	r2Client := aws_client.NewR2Client(aws_client.R2Config{
		AccountID:       cfg.AccountID,
		AccessKeyID:     cfg.AccessKeyID,
		AccessKeySecret: cfg.AccessKeySecret,
	})

	return NewRawMessageStore(r2Client, StorageConfig{
		BucketName: cfg.RawMessageBucket,
	})
}
