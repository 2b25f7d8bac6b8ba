package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/mailtemp/tempmail/internal/utils"
)

// SessionMiddleware reads the session cookie into the gin context. Requests
// without a well-formed cookie carry no session; validating it against the
// account is up to the handler.
func SessionMiddleware(cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if value, err := c.Cookie(cookieName); err == nil {
			if address, secret, ok := utils.ParseSessionValue(value); ok {
				c.Set(utils.GinKeyAddress, address)
				c.Set(utils.GinKeySecret, secret)
			}
		}
		c.Next()
	}
}
