package utils

import (
	"context"

	"github.com/gin-gonic/gin"
)

type CustomContext struct {
	AppSource string
	Address   string
}

type contextKey string

const customContextKey contextKey = "CUSTOM_CONTEXT"

// gin context keys set by the session middleware
const (
	GinKeyAddress = "SessionAddress"
)

func WithCustomContext(ctx context.Context, customContext *CustomContext) context.Context {
	return context.WithValue(ctx, customContextKey, customContext)
}

func WithCustomContextFromGinRequest(c *gin.Context, appSource string) context.Context {
	customContext := &CustomContext{
		AppSource: appSource,
		Address:   c.GetString(GinKeyAddress),
	}
	return WithCustomContext(c.Request.Context(), customContext)
}

func GetContext(ctx context.Context) *CustomContext {
	customContext, ok := ctx.Value(customContextKey).(*CustomContext)
	if !ok {
		return new(CustomContext)
	}
	return customContext
}

func GetAppSourceFromContext(ctx context.Context) string {
	return GetContext(ctx).AppSource
}

func GetAddressFromContext(ctx context.Context) string {
	return GetContext(ctx).Address
}

func SetAddressInContext(ctx context.Context, address string) context.Context {
	customContext := *GetContext(ctx)
	customContext.Address = address
	return WithCustomContext(ctx, &customContext)
}
