package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/mma_local/internal/core/ports/services"
	"github.com/SscSPs/mma_local/internal/dto"
	"github.com/SscSPs/mma_local/internal/middleware"
	"github.com/gin-gonic/gin"
)

type friendHandler struct {
	friendService portssvc.FriendSvcFacade
}

func registerFriendRoutes(rg *gin.RouterGroup, friendService portssvc.FriendSvcFacade) {
	h := &friendHandler{friendService: friendService}

	friends := rg.Group("/friends")
	{
		friends.POST("", h.addFriend)
		friends.GET("", h.listFriends)
		friends.PUT("/:id", h.updateFriend)
		friends.DELETE("/:id", h.deleteFriend)
	}
}

func (h *friendHandler) addFriend(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	f, err := h.friendService.AddFriend(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to add friend")
		return
	}
	logger.Info("Friend added", slog.String("friend_id", f.ID))
	c.JSON(http.StatusCreated, f)
}

func (h *friendHandler) listFriends(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	list, err := h.friendService.ListFriends(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to list friends")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *friendHandler) updateFriend(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("friend_id", c.Param("id")))
	var req dto.UpdateFriendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	f, err := h.friendService.UpdateFriend(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, logger, err, "Failed to update friend")
		return
	}
	c.JSON(http.StatusOK, f)
}

func (h *friendHandler) deleteFriend(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("friend_id", c.Param("id")))
	if err := h.friendService.DeleteFriend(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, logger, err, "Failed to delete friend")
		return
	}
	c.Status(http.StatusNoContent)
}
