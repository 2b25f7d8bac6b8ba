package email

import (
	"context"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	tempmail_errors "github.com/mailtemp/tempmail/errors"
	"github.com/mailtemp/tempmail/interfaces"
	"github.com/mailtemp/tempmail/internal/models"
	"github.com/mailtemp/tempmail/internal/parser"
	"github.com/mailtemp/tempmail/internal/tracing"
	"github.com/mailtemp/tempmail/internal/utils"
)

type emailService struct {
	emails interfaces.EmailRepository
	// nil when raw messages are not archived
	rawStore interfaces.RawMessageStore
}

func NewEmailService(emails interfaces.EmailRepository, rawStore interfaces.RawMessageStore) interfaces.EmailService {
	return &emailService{
		emails:   emails,
		rawStore: rawStore,
	}
}

func (s *emailService) Inbox(ctx context.Context, address string) ([]*models.Email, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailService.Inbox")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	address = utils.NormalizeAddress(address)
	if address == "" {
		return nil, tempmail_errors.ErrMissingAddress
	}
	tracing.TagAddress(span, address)

	emails, err := s.emails.ListByAddress(ctx, address, 0)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to list emails")
	}
	span.LogKV("count", len(emails))
	return emails, nil
}

func (s *emailService) Get(ctx context.Context, address, id string) (*models.Email, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailService.Get")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	address = utils.NormalizeAddress(address)
	tracing.TagAddress(span, address)
	span.SetTag(tracing.SpanTagEntityId, id)
	if address == "" || id == "" {
		return nil, tempmail_errors.ErrEmailNotFound
	}

	email, err := s.emails.GetByID(ctx, address, id)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to load email")
	}
	if email == nil {
		return nil, tempmail_errors.ErrEmailNotFound
	}

	prepareForDisplay(email)
	return email, nil
}

// Raw returns the archived original source of an email.
func (s *emailService) Raw(ctx context.Context, address, id string) ([]byte, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "emailService.Raw")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	address = utils.NormalizeAddress(address)
	tracing.TagAddress(span, address)
	span.SetTag(tracing.SpanTagEntityId, id)
	if address == "" || id == "" {
		return nil, tempmail_errors.ErrEmailNotFound
	}
	if s.rawStore == nil {
		return nil, tempmail_errors.ErrStorageDisabled
	}

	email, err := s.emails.GetByID(ctx, address, id)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to load email")
	}
	if email == nil {
		return nil, tempmail_errors.ErrEmailNotFound
	}
	if email.RawObjectKey == "" {
		return nil, tempmail_errors.ErrRawMessageNotArchived
	}

	raw, err := s.rawStore.Fetch(ctx, email.RawObjectKey)
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, err
	}
	return raw, nil
}

// prepareForDisplay repeats the residual quoted-printable rescue and the HTML
// sniffing on the stored body. Both are no-ops on bodies that need neither.
// A rescue can decode fresh markup into a stored body: rescued text is moved
// to the sandboxed HTML view and rescued HTML is sanitized again.
func prepareForDisplay(email *models.Email) {
	body, rescued := parser.RescueQuotedPrintable(email.ParsedBody())
	body, _ = parser.Reclassify(body)
	if rescued {
		switch body.Kind {
		case parser.KindText:
			body = parser.ParsedBody{
				Kind:    parser.KindHTML,
				Content: preformattedOpen + body.Content + preformattedClose,
			}
		case parser.KindHTML:
			body.Content = parser.SanitizeHTML(body.Content)
		}
	}
	email.BodyType = body.Kind
	email.Body = body.Content
}

const (
	preformattedOpen  = `<div style="white-space:pre-wrap;font-family:monospace;">`
	preformattedClose = `</div>`
)
