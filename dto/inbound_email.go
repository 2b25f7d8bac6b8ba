package dto

import (
	"time"

	"github.com/mailtemp/tempmail/internal/enum"
)

// InboundEmail is one raw message handed over by the mail edge. To is the
// envelope recipient, Raw the full DATA content.
type InboundEmail struct {
	From       string           `json:"from"`
	To         string           `json:"to"`
	Raw        string           `json:"raw"`
	Source     enum.EmailSource `json:"source,omitempty"`
	ReceivedAt time.Time        `json:"receivedAt"`
}
