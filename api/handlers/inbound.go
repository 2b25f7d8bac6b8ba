package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	api_errors "github.com/mailtemp/tempmail/api/errors"
	"github.com/mailtemp/tempmail/dto"
	"github.com/mailtemp/tempmail/interfaces"
	"github.com/mailtemp/tempmail/internal/enum"
	"github.com/mailtemp/tempmail/internal/logger"
	"github.com/mailtemp/tempmail/internal/tracing"
)

type inboundRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Raw  string `json:"raw"`
}

type InboundHandler struct {
	log logger.Logger
	// nil when no broker is configured
	publisher interfaces.EventPublisher
	ingest    interfaces.IngestService
	maxBytes  int64
}

func NewInboundHandler(log logger.Logger, publisher interfaces.EventPublisher, ingest interfaces.IngestService, maxBytes int64) *InboundHandler {
	return &InboundHandler{
		log:       log,
		publisher: publisher,
		ingest:    ingest,
		maxBytes:  maxBytes,
	}
}

// Receive accepts one raw message from the mail edge, either as JSON
// {from,to,raw} or as a message/rfc822 body with from and to query
// parameters. The message is queued, or ingested in the background when no
// broker is configured.
func (h *InboundHandler) Receive() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "InboundHandler.Receive")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		message, err := h.parseInboundEmail(c)
		if err != nil {
			tracing.TraceErr(span, err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		tracing.TagAddress(span, message.To)
		span.LogKV("raw.size", len(message.Raw))

		if h.publisher != nil {
			if err := h.publisher.PublishInboundEmail(ctx, message); err != nil {
				tracing.TraceErr(span, err)
				h.log.Errorf("failed to queue inbound email for %s: %v", message.To, err)
				httpErr := api_errors.FromError(errors.Wrap(err, "publish"))
				if httpErr.Status == http.StatusInternalServerError {
					httpErr.Status = http.StatusServiceUnavailable
				}
				c.JSON(httpErr.Status, gin.H{"error": httpErr.Message})
				return
			}
			c.JSON(http.StatusAccepted, gin.H{"message": "Accepted"})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{"message": "Accepted"})

		// the request context ends with the response
		go h.ingestInline(context.WithoutCancel(ctx), message)
	}
}

func (h *InboundHandler) ingestInline(ctx context.Context, message dto.InboundEmail) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "InboundHandler.ingestInline")
	defer span.Finish()

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic recovered in inbound ingestion: %v\n%s", r, debug.Stack())
			tracing.TraceErr(span, err)
			h.log.Error(err.Error())
		}
	}()

	if _, err := h.ingest.Ingest(ctx, message); err != nil {
		tracing.TraceErr(span, err)
		h.log.Errorf("failed to ingest inbound email for %s: %v", message.To, err)
	}
}

func (h *InboundHandler) parseInboundEmail(c *gin.Context) (dto.InboundEmail, error) {
	message := dto.InboundEmail{
		Source:     enum.EmailSourceWebhook,
		ReceivedAt: time.Now().UTC(),
	}

	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}

	if strings.HasPrefix(c.ContentType(), "application/json") {
		var request inboundRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			return message, errors.Wrap(err, "invalid JSON body")
		}
		message.From, message.To, message.Raw = request.From, request.To, request.Raw
	} else {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return message, errors.Wrap(err, "failed to read body")
		}
		message.From, message.To, message.Raw = c.Query("from"), c.Query("to"), string(raw)
	}

	message.From = strings.TrimSpace(message.From)
	message.To = strings.ToLower(strings.TrimSpace(message.To))
	if message.To == "" {
		return message, errors.New("missing recipient")
	}
	if strings.TrimSpace(message.Raw) == "" {
		return message, errors.New("empty message")
	}
	return message, nil
}
