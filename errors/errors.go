package tempmail_errors

import "github.com/pkg/errors"

var (
	// accounts
	ErrInvalidDomain   = errors.New("invalid domain")
	ErrInvalidAddress  = errors.New("invalid address")
	ErrAccountNotFound = errors.New("account expired or invalid")
	ErrInvalidSecret   = errors.New("invalid secret key")

	// emails
	ErrEmailNotFound   = errors.New("email not found")
	ErrMissingAddress  = errors.New("missing recipient address")
	ErrEmptyRawMessage = errors.New("raw message is empty")

	ErrRawMessageNotArchived = errors.New("raw message was not archived")

	// infrastructure
	ErrStorageDisabled = errors.New("raw message storage is not configured")
	ErrPublisherClosed = errors.New("event publisher is not available")
)
