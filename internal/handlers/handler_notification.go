package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	portssvc "github.com/SscSPs/mma_local/internal/core/ports/services"
	"github.com/SscSPs/mma_local/internal/dto"
	"github.com/SscSPs/mma_local/internal/middleware"
	"github.com/gin-gonic/gin"
)

type notificationHandler struct {
	notificationService portssvc.NotificationSvcFacade
}

func registerNotificationRoutes(rg *gin.RouterGroup, notificationService portssvc.NotificationSvcFacade) {
	h := &notificationHandler{notificationService: notificationService}

	n := rg.Group("/notifications")
	{
		n.GET("", h.listNotifications)
		n.PUT("", h.upsertNotification)
		n.POST("/:id/read", h.markRead)
		n.DELETE("/:id", h.deleteNotification)
	}
}

func (h *notificationHandler) listNotifications(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	unreadOnly, _ := strconv.ParseBool(c.DefaultQuery("unreadOnly", "false"))

	list, err := h.notificationService.ListNotifications(c.Request.Context(), unreadOnly)
	if err != nil {
		respondError(c, logger, err, "Failed to list notifications")
		return
	}
	c.JSON(http.StatusOK, list)
}

// upsertNotification godoc
// @Summary Create or refresh a notification
// @Description Keeps one notification per (type, relatedId)
// @Tags notifications
// @Accept  json
// @Produce  json
// @Param   notification body dto.UpsertNotificationRequest true "Notification"
// @Success 200 {object} domain.Notification
// @Security BearerAuth
// @Router /notifications [put]
func (h *notificationHandler) upsertNotification(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.UpsertNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	n, err := h.notificationService.UpsertNotification(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to save notification")
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *notificationHandler) markRead(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("notification_id", c.Param("id")))
	if err := h.notificationService.MarkNotificationRead(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, logger, err, "Failed to mark notification read")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *notificationHandler) deleteNotification(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("notification_id", c.Param("id")))
	if err := h.notificationService.DeleteNotification(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, logger, err, "Failed to delete notification")
		return
	}
	c.Status(http.StatusNoContent)
}
