package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/SscSPs/mma_local/internal/dto"
	"github.com/SscSPs/mma_local/internal/middleware"
	"github.com/SscSPs/mma_local/internal/syncqueue"
	"github.com/gin-gonic/gin"
)

// SyncController is the part of the sync queue the API drives.
type SyncController interface {
	ManualSyncNow(ctx context.Context) (syncqueue.Report, error)
	Status(ctx context.Context) (syncqueue.Status, error)
	SetOnline(online bool)
}

type syncHandler struct {
	sync SyncController
}

func registerSyncRoutes(rg *gin.RouterGroup, sync SyncController) {
	h := &syncHandler{sync: sync}

	s := rg.Group("/sync")
	{
		s.GET("/status", h.status)
		s.POST("/now", h.syncNow)
		s.POST("/online", h.setOnline)
	}
}

// status godoc
// @Summary Sync status
// @Description Pending change count, last successful sync and connectivity
// @Tags sync
// @Produce  json
// @Success 200 {object} dto.SyncStatusResponse
// @Security BearerAuth
// @Router /sync/status [get]
func (h *syncHandler) status(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	st, err := h.sync.Status(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to read sync status")
		return
	}
	c.JSON(http.StatusOK, dto.SyncStatusResponse{
		PendingCount: st.PendingCount,
		LastSyncedAt: st.LastSyncedAt,
		IsOnline:     st.IsOnline,
		InFlight:     st.InFlight,
		LastError:    st.LastError,
	})
}

// syncNow godoc
// @Summary Sync now
// @Description Pushes pending changes immediately
// @Tags sync
// @Produce  json
// @Success 200 {object} dto.SyncReportResponse
// @Failure 409 {object} ErrorResponse "A sync is already running"
// @Failure 502 {object} ErrorResponse "The remote rejected the batch"
// @Security BearerAuth
// @Router /sync/now [post]
func (h *syncHandler) syncNow(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	report, err := h.sync.ManualSyncNow(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Sync failed")
		return
	}
	logger.Info("Manual sync completed", slog.Int("records", report.Records), slog.Int("conflicts", report.Conflicts))
	c.JSON(http.StatusOK, dto.SyncReportResponse{
		Pushed:    report.Entities,
		Accepted:  report.Accepted,
		Conflicts: report.Conflicts,
	})
}

func (h *syncHandler) setOnline(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.SetOnlineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}
	h.sync.SetOnline(*req.Online)
	c.Status(http.StatusNoContent)
}
