package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/mma_local/internal/core/queries"
	"github.com/SscSPs/mma_local/internal/live"
	"github.com/SscSPs/mma_local/internal/middleware"
	"github.com/gin-gonic/gin"
)

// registerLiveRoutes exposes live queries as server-sent event streams. Each stream sends
// the current value on connect and again after every commit that changes it.
func registerLiveRoutes(rg *gin.RouterGroup, engine *live.Engine) {
	l := rg.Group("/live")
	{
		l.GET("/accounts", func(c *gin.Context) {
			streamLive(c, engine, "accounts", queries.ActiveAccounts)
		})
		l.GET("/notifications", func(c *gin.Context) {
			streamLive(c, engine, "notifications", queries.Notifications(true))
		})
		l.GET("/net-worth", func(c *gin.Context) {
			streamLive(c, engine, "netWorth", queries.ComputeNetWorth)
		})
	}
}

// streamLive relays a live query as server-sent events until the client goes away.
func streamLive[T any](c *gin.Context, engine *live.Engine, event string, query live.QueryFunc[T]) {
	ctx := c.Request.Context()
	logger := middleware.GetLoggerFromCtx(ctx).With(slog.String("stream", event))

	updates := make(chan live.Result[T], 1)
	sub := live.Observe(ctx, engine, query, func(r live.Result[T]) {
		select {
		case updates <- r:
		case <-ctx.Done():
		}
	})
	defer sub.Cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)
	c.Writer.Flush()
	logger.Info("Live stream opened")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Live stream closed")
			return
		case r := <-updates:
			if r.Err != nil {
				logger.Warn("Live query failed", slog.String("error", r.Err.Error()))
				c.SSEvent("error", ErrorResponse{Error: r.Err.Error()})
			} else {
				c.SSEvent(event, r.Value)
			}
			c.Writer.Flush()
		}
	}
}
