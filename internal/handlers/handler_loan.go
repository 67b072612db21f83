package handlers

import (
	"log/slog"
	"net/http"

	"github.com/SscSPs/mma_local/internal/apperrors"
	"github.com/SscSPs/mma_local/internal/core/domain"
	portssvc "github.com/SscSPs/mma_local/internal/core/ports/services"
	"github.com/SscSPs/mma_local/internal/dto"
	"github.com/SscSPs/mma_local/internal/middleware"
	"github.com/gin-gonic/gin"
)

type loanHandler struct {
	loanService portssvc.LoanSvcFacade
}

func registerLoanRoutes(rg *gin.RouterGroup, loanService portssvc.LoanSvcFacade) {
	h := &loanHandler{loanService: loanService}

	loans := rg.Group("/loans")
	{
		loans.POST("", h.addLoan)
		loans.GET("", h.listLoans)
		loans.POST("/payments", h.recordPayment)
		loans.GET("/:id", h.getLoan)
		loans.PUT("/:id", h.updateLoan)
		loans.DELETE("/:id", h.deleteLoan)
		loans.GET("/:id/payments", h.listPayments)
		loans.POST("/:id/correction", h.correctOutstanding)
	}
}

// addLoan godoc
// @Summary Add a loan
// @Tags loans
// @Accept  json
// @Produce  json
// @Param   loan body dto.CreateLoanRequest true "Loan"
// @Success 201 {object} domain.Loan
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /loans [post]
func (h *loanHandler) addLoan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	loan, err := h.loanService.AddLoan(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to add loan")
		return
	}
	logger.Info("Loan added", slog.String("loan_id", loan.ID))
	c.JSON(http.StatusCreated, loan)
}

// listLoans godoc
// @Summary List loans
// @Tags loans
// @Produce  json
// @Param   status query string false "active, overdue or completed"
// @Success 200 {array} domain.Loan
// @Security BearerAuth
// @Router /loans [get]
func (h *loanHandler) listLoans(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	status := domain.LoanStatus(c.Query("status"))
	switch status {
	case "", domain.LoanActive, domain.LoanOverdue, domain.LoanCompleted:
	default:
		respondError(c, logger, apperrors.ErrValidation, "Invalid loan status")
		return
	}

	loans, err := h.loanService.ListLoans(c.Request.Context(), status)
	if err != nil {
		respondError(c, logger, err, "Failed to list loans")
		return
	}
	c.JSON(http.StatusOK, loans)
}

func (h *loanHandler) getLoan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("loan_id", c.Param("id")))
	loan, err := h.loanService.GetLoanByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to retrieve loan")
		return
	}
	c.JSON(http.StatusOK, loan)
}

func (h *loanHandler) updateLoan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("loan_id", c.Param("id")))
	var req dto.UpdateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	loan, err := h.loanService.UpdateLoan(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, logger, err, "Failed to update loan")
		return
	}
	c.JSON(http.StatusOK, loan)
}

func (h *loanHandler) deleteLoan(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("loan_id", c.Param("id")))
	if err := h.loanService.DeleteLoan(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, logger, err, "Failed to delete loan")
		return
	}
	logger.Info("Loan deleted")
	c.Status(http.StatusNoContent)
}

func (h *loanHandler) listPayments(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("loan_id", c.Param("id")))
	payments, err := h.loanService.ListLoanPayments(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, logger, err, "Failed to list loan payments")
		return
	}
	c.JSON(http.StatusOK, payments)
}

// recordPayment godoc
// @Summary Record a loan payment
// @Description Inserts the payment, reduces the outstanding balance and moves the paying account's balance atomically
// @Tags loans
// @Accept  json
// @Produce  json
// @Param   payment body dto.RecordLoanPaymentRequest true "Payment"
// @Success 201 {object} domain.LoanPayment
// @Failure 400 {object} ErrorResponse "Validation error or insufficient funds"
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse "Payment could not be recorded, try again"
// @Security BearerAuth
// @Router /loans/payments [post]
func (h *loanHandler) recordPayment(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.RecordLoanPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	logger = logger.With(slog.String("loan_id", req.LoanID), slog.String("account_id", req.AccountID))
	payment, err := h.loanService.RecordLoanPayment(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to record loan payment")
		return
	}
	logger.Info("Loan payment recorded", slog.String("payment_id", payment.ID))
	c.JSON(http.StatusCreated, payment)
}

// correctOutstanding godoc
// @Summary Correct a loan's outstanding balance
// @Tags loans
// @Accept  json
// @Produce  json
// @Param   id path string true "Loan ID"
// @Param   correction body dto.CorrectLoanOutstandingRequest true "Correction"
// @Success 200 {object} domain.Loan
// @Security BearerAuth
// @Router /loans/{id}/correction [post]
func (h *loanHandler) correctOutstanding(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context()).With(slog.String("loan_id", c.Param("id")))
	var req dto.CorrectLoanOutstandingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, logger, err)
		return
	}

	loan, err := h.loanService.CorrectLoanOutstanding(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, logger, err, "Failed to correct loan")
		return
	}
	c.JSON(http.StatusOK, loan)
}
