package mboximport

import (
	"context"
	"io"
	"time"

	"github.com/emersion/go-mbox"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/mailtemp/tempmail/dto"
	"github.com/mailtemp/tempmail/interfaces"
	"github.com/mailtemp/tempmail/internal/enum"
	"github.com/mailtemp/tempmail/internal/logger"
	"github.com/mailtemp/tempmail/internal/tracing"
	"github.com/mailtemp/tempmail/internal/utils"
)

type Result struct {
	Imported int
	Failed   int
}

type Importer struct {
	log    logger.Logger
	ingest interfaces.IngestService
	now    func() time.Time
}

func NewImporter(log logger.Logger, ingest interfaces.IngestService) *Importer {
	return &Importer{
		log:    log,
		ingest: ingest,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Import ingests every message of an mbox stream into the inbox of to.
// Messages that fail to ingest are counted and skipped; a broken mbox stream
// stops the import.
func (i *Importer) Import(ctx context.Context, r io.Reader, to string) (Result, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "Importer.Import")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)

	var result Result

	to = utils.NormalizeAddress(to)
	if to == "" {
		return result, errors.New("missing recipient address")
	}
	tracing.TagAddress(span, to)

	reader := mbox.NewReader(r)
	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		msg, err := reader.NextMessage()
		if err == io.EOF {
			break
		}
		if err != nil {
			tracing.TraceErr(span, err)
			return result, errors.Wrapf(err, "failed to read message %d", result.Imported+result.Failed+1)
		}

		raw, err := io.ReadAll(msg)
		if err != nil {
			tracing.TraceErr(span, err)
			return result, errors.Wrap(err, "failed to read message body")
		}

		email, err := i.ingest.Ingest(ctx, dto.InboundEmail{
			To:         to,
			Raw:        string(raw),
			Source:     enum.EmailSourceMboxImport,
			ReceivedAt: i.now(),
		})
		if err != nil {
			result.Failed++
			i.log.Warnf("failed to import message into %s: %v", to, err)
			continue
		}
		result.Imported++
		i.log.Debugf("imported %s into %s", email.ID, to)
	}

	span.LogKV("imported", result.Imported, "failed", result.Failed)
	return result, nil
}
