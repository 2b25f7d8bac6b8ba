package middleware

import (
	"github.com/gin-gonic/gin"
)

const (
	corsAllowOrigin  = "*"
	corsAllowMethods = "GET, POST, DELETE"
)

// SetCORSHeaders writes the headers every JSON API response carries.
func SetCORSHeaders(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", corsAllowOrigin)
	c.Header("Access-Control-Allow-Methods", corsAllowMethods)
}

// CORSMiddleware opens the JSON API to browser clients on any origin.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		SetCORSHeaders(c)
		c.Next()
	}
}
