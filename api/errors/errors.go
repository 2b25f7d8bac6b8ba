package errors

import (
	"net/http"

	"github.com/pkg/errors"

	tempmail_errors "github.com/mailtemp/tempmail/errors"
)

// HTTPError is the status and client-facing message for a service error.
type HTTPError struct {
	Status  int
	Message string
}

var knownErrors = []struct {
	err      error
	response HTTPError
}{
	{tempmail_errors.ErrInvalidDomain, HTTPError{http.StatusBadRequest, "Invalid domain"}},
	{tempmail_errors.ErrInvalidAddress, HTTPError{http.StatusBadRequest, "Invalid address"}},
	{tempmail_errors.ErrAccountNotFound, HTTPError{http.StatusForbidden, "Account expired or invalid."}},
	{tempmail_errors.ErrInvalidSecret, HTTPError{http.StatusUnauthorized, "Invalid Secret Key."}},
	{tempmail_errors.ErrEmailNotFound, HTTPError{http.StatusNotFound, "Email not found"}},
	{tempmail_errors.ErrMissingAddress, HTTPError{http.StatusBadRequest, "Missing recipient address"}},
	{tempmail_errors.ErrEmptyRawMessage, HTTPError{http.StatusBadRequest, "Raw message is empty"}},
	{tempmail_errors.ErrStorageDisabled, HTTPError{http.StatusNotFound, "Original message not available"}},
	{tempmail_errors.ErrRawMessageNotArchived, HTTPError{http.StatusNotFound, "Original message not available"}},
	{tempmail_errors.ErrPublisherClosed, HTTPError{http.StatusServiceUnavailable, "Inbound queue unavailable"}},
}

// FromError maps a service error to its HTTP response. Unknown errors are
// reported as 500 without leaking their text.
func FromError(err error) HTTPError {
	for _, known := range knownErrors {
		if errors.Is(err, known.err) {
			return known.response
		}
	}
	return HTTPError{Status: http.StatusInternalServerError, Message: "Internal server error"}
}

// IsAuthError reports whether err means the credentials no longer open an
// account.
func IsAuthError(err error) bool {
	return errors.Is(err, tempmail_errors.ErrAccountNotFound) || errors.Is(err, tempmail_errors.ErrInvalidSecret)
}
