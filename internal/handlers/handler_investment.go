package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/mma_local/internal/core/ports/services"
	"github.com/SscSPs/mma_local/internal/dto"
	"github.com/SscSPs/mma_local/internal/middleware"
	"github.com/gin-gonic/gin"
)

type investmentHandler struct {
	investmentService portssvc.InvestmentSvcFacade
}

func registerInvestmentRoutes(rg *gin.RouterGroup, investmentService portssvc.InvestmentSvcFacade) {
	h := &investmentHandler{investmentService: investmentService}

	inv := rg.Group("/investments")
	{
		inv.POST("", h.addInvestment)
		inv.GET("", h.listInvestments)
		inv.PUT("/:id/price", h.updatePrice)
		inv.DELETE("/:id", h.deleteInvestment)
	}
}

func (h *investmentHandler) addInvestment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateInvestmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	inv, err := h.investmentService.AddInvestment(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to add investment")
		return
	}
	logger.Info("Investment added", slog.String("investment_id", inv.ID))
	c.JSON(http.StatusCreated, inv)
}

func (h *investmentHandler) listInvestments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	list, err := h.investmentService.ListInvestments(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to list investments")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *investmentHandler) updatePrice(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("investment_id", c.Param("id")))
	var req dto.UpdateInvestmentPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	inv, err := h.investmentService.UpdateInvestmentPrice(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, logger, err, "Failed to update investment price")
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *investmentHandler) deleteInvestment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("investment_id", c.Param("id")))
	if err := h.investmentService.DeleteInvestment(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, logger, err, "Failed to delete investment")
		return
	}
	c.Status(http.StatusNoContent)
}
