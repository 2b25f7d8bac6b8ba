package interfaces

import "context"

// RawMessageStore keeps the original source of ingested emails next to the
// parsed rows.
type RawMessageStore interface {
	// Archive stores raw and returns the object key recorded on the email.
	Archive(ctx context.Context, address, emailID string, raw []byte) (string, error)
	Fetch(ctx context.Context, key string) ([]byte, error)
	Remove(ctx context.Context, key string) error
}
