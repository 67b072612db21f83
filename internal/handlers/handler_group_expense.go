package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/mma_local/internal/core/ports/services"
	"github.com/SscSPs/mma_local/internal/dto"
	"github.com/SscSPs/mma_local/internal/middleware"
	"github.com/gin-gonic/gin"
)

type groupExpenseHandler struct {
	groupExpenseService portssvc.GroupExpenseSvcFacade
}

func registerGroupExpenseRoutes(rg *gin.RouterGroup, groupExpenseService portssvc.GroupExpenseSvcFacade) {
	h := &groupExpenseHandler{groupExpenseService: groupExpenseService}

	group := rg.Group("/group-expenses")
	{
		group.POST("", h.addGroupExpense)
		group.GET("", h.listGroupExpenses)
		group.PUT("/:id/members", h.markMemberPaid)
		group.DELETE("/:id", h.deleteGroupExpense)
	}
}

// addGroupExpense godoc
// @Summary Add a shared bill
// @Description Equal splits are rounded to 2 decimals with remainder cents spread over the first members
// @Tags group-expenses
// @Accept  json
// @Produce  json
// @Param   expense body dto.CreateGroupExpenseRequest true "Group expense"
// @Success 201 {object} domain.GroupExpense
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /group-expenses [post]
func (h *groupExpenseHandler) addGroupExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateGroupExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	exp, err := h.groupExpenseService.AddGroupExpense(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to add group expense")
		return
	}
	logger.Info("Group expense added", slog.String("group_expense_id", exp.ID), slog.Int("members", len(exp.Members)))
	c.JSON(http.StatusCreated, exp)
}

func (h *groupExpenseHandler) listGroupExpenses(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	list, err := h.groupExpenseService.ListGroupExpenses(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to list group expenses")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *groupExpenseHandler) markMemberPaid(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("group_expense_id", c.Param("id")))
	var req dto.MarkMemberPaidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	exp, err := h.groupExpenseService.MarkGroupMemberPaid(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, logger, err, "Failed to update group member")
		return
	}
	c.JSON(http.StatusOK, exp)
}

func (h *groupExpenseHandler) deleteGroupExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("group_expense_id", c.Param("id")))
	if err := h.groupExpenseService.DeleteGroupExpense(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, logger, err, "Failed to delete group expense")
		return
	}
	c.Status(http.StatusNoContent)
}
