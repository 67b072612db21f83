package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/mma_local/internal/core/ports/services"
	"github.com/SscSPs/mma_local/internal/dto"
	"github.com/SscSPs/mma_local/internal/middleware"
	"github.com/gin-gonic/gin"
)

type goalHandler struct {
	goalService portssvc.GoalSvcFacade
}

func registerGoalRoutes(rg *gin.RouterGroup, goalService portssvc.GoalSvcFacade) {
	h := &goalHandler{goalService: goalService}

	goals := rg.Group("/goals")
	{
		goals.POST("", h.addGoal)
		goals.GET("", h.listGoals)
		goals.POST("/contributions", h.contribute)
		goals.GET("/:id", h.getGoal)
		goals.PUT("/:id", h.updateGoal)
		goals.DELETE("/:id", h.deleteGoal)
	}
}

func (h *goalHandler) addGoal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	goal, err := h.goalService.AddGoal(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to add goal")
		return
	}
	logger.Info("Goal added", slog.String("goal_id", goal.ID))
	c.JSON(http.StatusCreated, goal)
}

func (h *goalHandler) listGoals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	goals, err := h.goalService.ListGoals(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to list goals")
		return
	}
	c.JSON(http.StatusOK, goals)
}

func (h *goalHandler) getGoal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("goal_id", c.Param("id")))
	goal, err := h.goalService.GetGoalByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve goal")
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (h *goalHandler) updateGoal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("goal_id", c.Param("id")))
	var req dto.UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	goal, err := h.goalService.UpdateGoal(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, logger, err, "Failed to update goal")
		return
	}
	c.JSON(http.StatusOK, goal)
}

func (h *goalHandler) deleteGoal(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("goal_id", c.Param("id")))
	if err := h.goalService.DeleteGoal(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, logger, err, "Failed to delete goal")
		return
	}
	c.Status(http.StatusNoContent)
}

// contribute godoc
// @Summary Contribute to a goal
// @Description Moves money from an account into a goal in one transaction
// @Tags goals
// @Accept  json
// @Produce  json
// @Param   contribution body dto.ContributeToGoalRequest true "Contribution"
// @Success 201 {object} domain.GoalContribution
// @Failure 400 {object} ErrorResponse "Validation error or insufficient funds"
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /goals/contributions [post]
func (h *goalHandler) contribute(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.ContributeToGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	logger = logger.With(slog.String("goal_id", req.GoalID), slog.String("account_id", req.AccountID))
	contribution, err := h.goalService.ContributeToGoal(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to contribute to goal")
		return
	}
	logger.Info("Goal contribution recorded", slog.String("contribution_id", contribution.ID))
	c.JSON(http.StatusCreated, contribution)
}
