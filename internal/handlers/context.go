package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/veriauth/veriauth/internal/middleware"
)

// requestContext returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// accountID extracts the authenticated account id set by the auth middleware.
func accountID(c *gin.Context) (string, bool) {
	v, ok := c.Get(middleware.CtxAccountIDKey)
	if !ok {
		return "", false
	}
	id, _ := v.(string)
	return id, id != ""
}
