package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/mailtemp/tempmail/config"
	"github.com/mailtemp/tempmail/dto"
	tempmail_errors "github.com/mailtemp/tempmail/errors"
	"github.com/mailtemp/tempmail/interfaces"
	"github.com/mailtemp/tempmail/internal/enum"
	"github.com/mailtemp/tempmail/internal/logger"
	"github.com/mailtemp/tempmail/internal/models"
	"github.com/mailtemp/tempmail/internal/parser"
	"github.com/mailtemp/tempmail/internal/tracing"
	"github.com/mailtemp/tempmail/internal/utils"
)

type ingestService struct {
	log      logger.Logger
	parser   *parser.Parser
	emails   interfaces.EmailRepository
	accounts interfaces.AccountService
	// nil when raw archiving is off
	rawStore interfaces.RawMessageStore
	emailTTL time.Duration
	now      func() time.Time
}

func NewIngestService(
	log logger.Logger,
	emails interfaces.EmailRepository,
	accounts interfaces.AccountService,
	rawStore interfaces.RawMessageStore,
	appCfg *config.AppConfig,
	parserCfg *config.ParserConfig,
) interfaces.IngestService {
	return &ingestService{
		log:      log,
		parser:   parser.NewParser(parser.WithMaxDepth(parserCfg.MaxDepth), parser.WithMaxParts(parserCfg.MaxParts)),
		emails:   emails,
		accounts: accounts,
		rawStore: rawStore,
		emailTTL: appCfg.EmailTTL,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *ingestService) Ingest(ctx context.Context, message dto.InboundEmail) (*models.Email, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "ingestService.Ingest")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	to := utils.NormalizeAddress(message.To)
	if to == "" {
		return nil, tempmail_errors.ErrMissingAddress
	}
	if strings.TrimSpace(message.Raw) == "" {
		return nil, tempmail_errors.ErrEmptyRawMessage
	}
	tracing.TagAddress(span, to)

	now := s.now()
	receivedAt := message.ReceivedAt.UTC()
	if message.ReceivedAt.IsZero() {
		receivedAt = now
	}
	source := message.Source
	if !source.IsValid() {
		source = enum.EmailSourceWebhook
	}

	env := readEnvelope(message.Raw)
	from := strings.TrimSpace(message.From)
	if from == "" {
		from = env.from
	}

	body, report := s.parser.Process(message.Raw)
	if len(report.Notes) > 0 {
		span.LogKV("parse.notes", strings.Join(report.Notes, ","))
	}
	if report.Has(parser.NoteRecoveredPanic) {
		s.log.With(zap.String("address", to)).Warnf("parser recovered from a panic: %v", report.Notes)
	}

	email := &models.Email{
		ID:          utils.GenerateEmailID(receivedAt),
		Address:     to,
		FromAddress: from,
		Subject:     env.subject,
		ReceivedAt:  receivedAt,
		ExpiresAt:   now.Add(s.emailTTL),
		BodyType:    body.Kind,
		Body:        body.Content,
		Preview:     parser.Preview(body),
		ParseNotes:  report.Notes,
		Headers:     env.headers,
		Source:      source,
	}
	span.SetTag(tracing.SpanTagEntityId, email.ID)

	s.archive(ctx, email, message.Raw)

	if err := s.emails.Create(ctx, email); err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "failed to save email")
	}

	// keep-alive failures must not lose the email
	if _, err := s.accounts.KeepAlive(ctx, to); err != nil {
		tracing.TraceErr(span, err)
		s.log.Warnf("keep-alive failed for %s: %v", to, err)
	}

	return email, nil
}

func (s *ingestService) archive(ctx context.Context, email *models.Email, raw string) {
	if s.rawStore == nil {
		return
	}
	key, err := s.rawStore.Archive(ctx, email.Address, email.ID, []byte(raw))
	if err != nil {
		s.log.Warnf("failed to archive raw message %s: %v", email.ID, err)
		return
	}
	email.RawObjectKey = key
}
