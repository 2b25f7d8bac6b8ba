package api

import (
	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/mailtemp/tempmail/api/handlers"
	"github.com/mailtemp/tempmail/api/middleware"
	"github.com/mailtemp/tempmail/config"
	"github.com/mailtemp/tempmail/internal/logger"
	"github.com/mailtemp/tempmail/internal/tracing"
	"github.com/mailtemp/tempmail/services"
)

const (
	AppSourceWebhook = "webhook"
	AppSourceAPI     = "api"
	AppSourceUI      = "ui"
)

// RegisterRoutes sets up all API endpoints
func RegisterRoutes(r *gin.Engine, cfg *config.AppConfig, s *services.Services, log logger.Logger) {
	if s == nil {
		panic("Services cannot be nil")
	}

	// gin.Recovery must wrap the Jaeger recovery, which re-panics after logging
	r.Use(gin.Recovery())
	r.Use(tracing.RecoveryWithJaeger(opentracing.GlobalTracer()))

	r.SetHTMLTemplate(handlers.Templates())
	apiHandlers := handlers.InitHandlers(cfg, s, log)

	r.GET("/health", handlers.HealthCheck)

	// mail edge webhook
	inbound := r.Group("/inbound")
	inbound.Use(middleware.APIKeyMiddleware(middleware.APIKeyConfig{
		HeaderName:  middleware.APIKeyHeader,
		ValidAPIKey: cfg.APIKey,
	}))
	inbound.Use(middleware.CustomContextMiddleware(AppSourceWebhook))
	inbound.Use(middleware.TracingMiddleware())
	{
		inbound.POST("", apiHandlers.Inbound.Receive())
	}

	// public JSON API, credentials travel as query parameters
	api := r.Group("/api")
	api.Use(middleware.CORSMiddleware())
	api.Use(middleware.CustomContextMiddleware(AppSourceAPI))
	api.Use(middleware.TracingMiddleware())
	{
		api.GET("/new", apiHandlers.API.NewAccount())
		api.GET("/messages", apiHandlers.API.Messages())
	}

	// web UI, session in a cookie
	ui := r.Group("/")
	ui.Use(middleware.SessionMiddleware(cfg.CookieName))
	ui.Use(middleware.CustomContextMiddleware(AppSourceUI))
	ui.Use(middleware.TracingMiddleware())
	{
		ui.GET("", apiHandlers.UI.Index())
		ui.POST("auth", apiHandlers.UI.Auth())
		ui.GET("logout", apiHandlers.UI.Logout())
		ui.GET("email/:id", apiHandlers.UI.Email())
		ui.GET("email/:id/raw", apiHandlers.UI.Raw())
		ui.GET("docs", apiHandlers.UI.Docs())
	}

	r.NoRoute(handlers.NotFound)
}
