package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	api_errors "github.com/mailtemp/tempmail/api/errors"
	"github.com/mailtemp/tempmail/api/middleware"
	"github.com/mailtemp/tempmail/interfaces"
	"github.com/mailtemp/tempmail/internal/models"
	"github.com/mailtemp/tempmail/internal/tracing"
)

// millisecond precision, e.g. 2025-03-01T12:00:00.000Z
const isoTimestamp = "2006-01-02T15:04:05.000Z07:00"

// MessageResponse is one email in the JSON API.
type MessageResponse struct {
	ID      string `json:"id"`
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Date    string `json:"date"`
	Body    string `json:"body"`
	Type    string `json:"type"`
}

type AccountResponse struct {
	Address string `json:"address"`
	Secret  string `json:"secret"`
}

type APIHandler struct {
	accounts interfaces.AccountService
	emails   interfaces.EmailService
}

func NewAPIHandler(accounts interfaces.AccountService, emails interfaces.EmailService) *APIHandler {
	return &APIHandler{
		accounts: accounts,
		emails:   emails,
	}
}

// NewAccount issues an address on the requested domain, the default one
// when none is given.
func (h *APIHandler) NewAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "APIHandler.NewAccount")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		account, err := h.accounts.Create(ctx, c.Query("domain"))
		if err != nil {
			tracing.TraceErr(span, err)
			httpErr := api_errors.FromError(err)
			c.IndentedJSON(httpErr.Status, gin.H{"error": httpErr.Message})
			return
		}

		c.IndentedJSON(http.StatusOK, AccountResponse{
			Address: account.Address,
			Secret:  account.Secret,
		})
	}
}

// Messages lists the live emails of an account, newest first.
func (h *APIHandler) Messages() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "APIHandler.Messages")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		address := strings.TrimSpace(c.Query("address"))
		secret := strings.TrimSpace(c.Query("secret"))
		if address == "" || secret == "" {
			c.IndentedJSON(http.StatusBadRequest, gin.H{"error": "Missing 'address' or 'secret'"})
			return
		}
		tracing.TagAddress(span, address)

		account, err := h.accounts.Authenticate(ctx, address, secret)
		if err != nil {
			if api_errors.IsAuthError(err) {
				c.IndentedJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			tracing.TraceErr(span, err)
			httpErr := api_errors.FromError(err)
			c.IndentedJSON(httpErr.Status, gin.H{"error": httpErr.Message})
			return
		}

		emails, err := h.emails.Inbox(ctx, account.Address)
		if err != nil {
			tracing.TraceErr(span, err)
			httpErr := api_errors.FromError(err)
			c.IndentedJSON(httpErr.Status, gin.H{"error": httpErr.Message})
			return
		}

		messages := make([]MessageResponse, 0, len(emails))
		for _, email := range emails {
			messages = append(messages, toMessageResponse(email))
		}
		c.IndentedJSON(http.StatusOK, messages)
	}
}

// NotFound answers unknown routes, as JSON under /api.
func NotFound(c *gin.Context) {
	if strings.HasPrefix(c.Request.URL.Path, "/api") {
		middleware.SetCORSHeaders(c)
		c.IndentedJSON(http.StatusNotFound, gin.H{"error": "Endpoint not found"})
		return
	}
	c.String(http.StatusNotFound, "Not found")
}

func toMessageResponse(email *models.Email) MessageResponse {
	return MessageResponse{
		ID:      email.ID,
		From:    email.FromAddress,
		To:      email.Address,
		Subject: email.Subject,
		Date:    email.ReceivedAt.UTC().Format(isoTimestamp),
		Body:    email.Body,
		Type:    email.BodyType.String(),
	}
}
