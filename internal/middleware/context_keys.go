package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
)

const clientIDKey = contextKey("clientID")

// WithClientID returns a copy of ctx carrying the authenticated client id.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

// GetClientIDFromContext returns the id of the authenticated local client, if any.
func GetClientIDFromContext(c *gin.Context) (string, bool) {
	id, ok := c.Request.Context().Value(clientIDKey).(string)
	return id, ok && id != ""
}
