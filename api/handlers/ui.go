package handlers

import (
	"context"
	"html/template"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	api_errors "github.com/mailtemp/tempmail/api/errors"
	"github.com/mailtemp/tempmail/config"
	"github.com/mailtemp/tempmail/interfaces"
	"github.com/mailtemp/tempmail/internal/models"
	"github.com/mailtemp/tempmail/internal/parser"
	"github.com/mailtemp/tempmail/internal/tracing"
	"github.com/mailtemp/tempmail/internal/utils"
)

const (
	actionCreate  = "create"
	actionRestore = "restore"

	displayTimeLayout = "2006-01-02 15:04:05 MST"
)

type inboxRow struct {
	ID      string
	From    string
	Subject string
	Preview string
	Date    string
}

type inboxPage struct {
	Address string
	Secret  string
	Emails  []inboxRow
}

type emailPage struct {
	ID       string
	HasRaw   bool
	Subject  string
	From     string
	To       string
	Date     string
	IsHTML   bool
	Body     string
	TextBody template.HTML
}

type UIHandler struct {
	accounts interfaces.AccountService
	emails   interfaces.EmailService
	cfg      *config.AppConfig
}

func NewUIHandler(accounts interfaces.AccountService, emails interfaces.EmailService, cfg *config.AppConfig) *UIHandler {
	return &UIHandler{
		accounts: accounts,
		emails:   emails,
		cfg:      cfg,
	}
}

// Index shows the landing page without a session and the inbox with one. A
// session whose account is gone is logged out.
func (h *UIHandler) Index() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "UIHandler.Index")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		address, secret, ok := session(c)
		if !ok {
			c.HTML(http.StatusOK, templateLanding, gin.H{"Domains": h.accounts.Domains()})
			return
		}

		account, err := h.accounts.Authenticate(ctx, address, secret)
		if err != nil {
			if api_errors.IsAuthError(err) {
				c.Redirect(http.StatusFound, "/logout")
				return
			}
			tracing.TraceErr(span, err)
			c.String(http.StatusInternalServerError, api_errors.FromError(err).Message)
			return
		}

		emails, err := h.emails.Inbox(ctx, account.Address)
		if err != nil {
			tracing.TraceErr(span, err)
			c.String(http.StatusInternalServerError, api_errors.FromError(err).Message)
			return
		}

		page := inboxPage{Address: account.Address, Secret: account.Secret}
		for _, email := range emails {
			page.Emails = append(page.Emails, inboxRow{
				ID:      email.ID,
				From:    email.FromAddress,
				Subject: email.Subject,
				Preview: email.Preview,
				Date:    email.ReceivedAt.UTC().Format(displayTimeLayout),
			})
		}
		c.HTML(http.StatusOK, templateInbox, page)
	}
}

// Auth handles the create and restore forms of the landing page.
func (h *UIHandler) Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "UIHandler.Auth")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		action := c.PostForm("action")
		span.LogKV("action", action)

		var (
			account *models.Account
			err     error
		)
		switch action {
		case actionCreate:
			account, err = h.accounts.Create(ctx, c.PostForm("domain"))
		case actionRestore:
			account, err = h.accounts.Restore(ctx, c.PostForm("address"), c.PostForm("secret"))
		default:
			c.String(http.StatusBadRequest, "Unknown action")
			return
		}
		if err != nil {
			tracing.TraceErr(span, err)
			httpErr := api_errors.FromError(err)
			c.String(httpErr.Status, httpErr.Message)
			return
		}

		tracing.TagAddress(span, account.Address)
		h.setSessionCookie(c, utils.SessionValue(account.Address, account.Secret), int(h.cfg.CookieTTL.Seconds()))
		c.Redirect(http.StatusFound, "/")
	}
}

func (h *UIHandler) Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.setSessionCookie(c, "", -1)
		c.Redirect(http.StatusFound, "/")
	}
}

// Email shows one email of the session's account. HTML bodies are rendered in
// a sandboxed iframe without script execution.
func (h *UIHandler) Email() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "UIHandler.Email")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		address, ok := h.authenticate(ctx, c, span)
		if !ok {
			return
		}

		email, err := h.emails.Get(ctx, address, c.Param("id"))
		if err != nil {
			httpErr := api_errors.FromError(err)
			if httpErr.Status >= http.StatusInternalServerError {
				tracing.TraceErr(span, err)
			}
			c.String(httpErr.Status, httpErr.Message)
			return
		}

		c.HTML(http.StatusOK, templateEmail, newEmailPage(email))
	}
}

// Raw serves the archived original source of an email as plain text.
func (h *UIHandler) Raw() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "UIHandler.Raw")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		address, ok := h.authenticate(ctx, c, span)
		if !ok {
			return
		}

		raw, err := h.emails.Raw(ctx, address, c.Param("id"))
		if err != nil {
			httpErr := api_errors.FromError(err)
			if httpErr.Status >= http.StatusInternalServerError {
				tracing.TraceErr(span, err)
			}
			c.String(httpErr.Status, httpErr.Message)
			return
		}

		c.Header("X-Content-Type-Options", "nosniff")
		c.Data(http.StatusOK, "text/plain; charset=utf-8", raw)
	}
}

func (h *UIHandler) Docs() gin.HandlerFunc {
	return func(c *gin.Context) {
		domains := h.accounts.Domains()
		if len(domains) == 0 {
			domains = []string{"@example.com"}
		}
		c.HTML(http.StatusOK, templateDocs, gin.H{
			"Domains":    domains,
			"EmailTTL":   formatTTL(h.cfg.EmailTTL),
			"AccountTTL": formatTTL(h.cfg.AccountTTL),
		})
	}
}

func (h *UIHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cfg.CookieName, value, maxAge, "/", "", h.cfg.CookieSecure, true)
}

// authenticate checks the session of a page that needs one and answers the
// request itself when it fails.
func (h *UIHandler) authenticate(ctx context.Context, c *gin.Context, span opentracing.Span) (string, bool) {
	address, secret, ok := session(c)
	if !ok {
		c.Redirect(http.StatusFound, "/")
		return "", false
	}
	account, err := h.accounts.Authenticate(ctx, address, secret)
	if err != nil {
		if api_errors.IsAuthError(err) {
			c.Redirect(http.StatusFound, "/logout")
			return "", false
		}
		tracing.TraceErr(span, err)
		c.String(http.StatusInternalServerError, api_errors.FromError(err).Message)
		return "", false
	}
	return account.Address, true
}

func session(c *gin.Context) (address, secret string, ok bool) {
	address = c.GetString(utils.GinKeyAddress)
	secret = c.GetString(utils.GinKeySecret)
	return address, secret, address != "" && secret != ""
}

func newEmailPage(email *models.Email) emailPage {
	page := emailPage{
		ID:      email.ID,
		HasRaw:  email.RawObjectKey != "",
		Subject: email.Subject,
		From:    email.FromAddress,
		To:      email.Address,
		Date:    email.ReceivedAt.UTC().Format(displayTimeLayout),
		IsHTML:  email.BodyType == parser.KindHTML,
	}
	if page.IsHTML {
		// escaped into the srcdoc attribute by the template
		page.Body = email.Body
	} else {
		// linkified text, markup already escaped
		page.TextBody = template.HTML(email.Body)
	}
	return page
}

func formatTTL(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return pluralize(int(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return pluralize(int(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

func pluralize(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
